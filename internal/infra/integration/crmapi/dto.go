package crmapi

// SyncResult is what the calendar sync endpoint reports back.
type SyncResult struct {
	SyncedAccounts int    `json:"synced_accounts"`
	SyncedEvents   int    `json:"synced_events"`
	Message        string `json:"message,omitempty"`
}
