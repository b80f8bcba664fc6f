package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidNotionConfigs indicates missing or invalid document
	// workspace settings (for example, an empty API key or database id).
	ErrInvalidNotionConfigs = errors.New("invalid notion configuration")
	// ErrInvalidZoteroConfigs indicates missing or invalid reference
	// library settings (for example, an empty API key or zero group id).
	ErrInvalidZoteroConfigs = errors.New("invalid zotero configuration")
	// ErrInvalidStorageConfigs indicates invalid persistence settings
	// (for example, neither a DSN nor a state file path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid reconciliation loop settings
	// (for example, a negative poll interval).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
