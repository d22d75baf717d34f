package domain

import (
	"sort"
	"time"
)

type HistoryEntry struct {
	ID       string      `json:"id"`
	FileName string      `json:"fileName"`
	FileType string      `json:"fileType"`
	Date     time.Time   `json:"date"`
	Result   AuditResult `json:"result"`
}

// SortNewestFirst orders entries by date, newest first, keeping ties stable.
func SortNewestFirst(entries []HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
}

// SyncMode is the state of the history mirror for the running session.
type SyncMode string

const (
	SyncLocal               SyncMode = "local"
	SyncSyncingRemote       SyncMode = "syncing_remote"
	SyncRemoteAuthoritative SyncMode = "remote_authoritative"
	SyncDenied              SyncMode = "denied"
)

type AppendOutcome struct {
	RemoteSynced bool `json:"remote_synced"`
}

type ClearOutcome struct {
	RemoteCleared bool   `json:"remote_cleared"`
	RemoteWarning string `json:"remote_warning,omitempty"`
}

// AuditCompletedEvent is published after an entry has been committed locally.
type AuditCompletedEvent struct {
	Entry   HistoryEntry    `json:"entry"`
	Profile ReviewerProfile `json:"profile"`
}
