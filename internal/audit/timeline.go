package audit

import (
	"time"

	"github.com/yonetim/adminpanel/internal/shared"
)

// Entry is one append-only audit log row.
type Entry struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	ActorID    string         `json:"actor_id,omitempty"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
}

// TimelineFilters holds the activity log filters. Action and Actor are
// case-insensitive substring matches on action and actor email.
type TimelineFilters struct {
	Action   string
	Actor    string
	Page     int
	PageSize int
}

// Result wraps one page of the activity log.
type Result struct {
	Entries    []Entry           `json:"logs"`
	Pagination shared.Pagination `json:"pagination"`
}

// LogEntry is the listing view of an entry with its human-readable label.
type LogEntry struct {
	Entry
	Label string `json:"label"`
}

// Labelled attaches Describe labels to entries.
func Labelled(entries []Entry) []LogEntry {
	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, LogEntry{Entry: e, Label: Describe(e.Action, e.Metadata)})
	}
	return out
}
