package capture

import "clipvault/internal/database"

type EventKind string

const (
	// EventInserted announces a freshly captured entry.
	EventInserted EventKind = "inserted"
	// EventUpdated announces an entry changed in place (pin toggle,
	// enrichment applied).
	EventUpdated EventKind = "updated"
	// EventDeleted announces an entry removed by the user or by eviction.
	EventDeleted EventKind = "deleted"
	// EventStorageDegraded tells the subscriber that a store mutation failed
	// and history capture is degraded. Capture keeps polling.
	EventStorageDegraded EventKind = "storage_degraded"
)

// Event is one change notification for the UI layer. Entry is nil for
// EventStorageDegraded.
type Event struct {
	Kind  EventKind
	Entry *database.Entry
	Err   error
}
