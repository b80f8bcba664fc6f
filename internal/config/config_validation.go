// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// daemon invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or one of the sentinel errors
// from errors.go otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Notion.APIKey == "" || cfg.Notion.DatabaseID == "" {
		return ErrInvalidNotionConfigs
	}

	if cfg.Zotero.APIKey == "" || cfg.Zotero.GroupID <= 0 {
		return ErrInvalidZoteroConfigs
	}

	if cfg.Storage.DSN == "" && cfg.Storage.StateFile == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Sync.PollInterval < 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
