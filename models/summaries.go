// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// CycleSummary reports the outcome of one poll cycle.
type CycleSummary struct {
	StartedAt      time.Time `json:"started_at"`
	Duration       string    `json:"duration"`
	PagesSeen      int       `json:"pages_seen"`
	Synced         int       `json:"synced"`
	Skipped        int       `json:"skipped"`
	FieldConflicts int       `json:"field_conflicts"`
	VersionRetries int       `json:"version_retries"`
	Errors         int       `json:"errors"`
	FullScan       bool      `json:"full_scan"`
}

// BootstrapSummary reports counts from one bootstrap pass.
type BootstrapSummary struct {
	Created         int `json:"created"`
	AlreadyMirrored int `json:"already_mirrored"`
	AttachedFiles   int `json:"attached_files"`
	Skipped         int `json:"skipped"`
}

// StatusReport is the operational status exposed over the HTTP surface.
type StatusReport struct {
	LastPolledAt  time.Time `json:"last_polled_at"`
	TrackedPages  int       `json:"tracked_pages"`
	TrackedNotes  int       `json:"tracked_notes"`
	CycleRunning  bool      `json:"cycle_running"`
	StorageDriver string    `json:"storage_driver,omitempty"`
}
