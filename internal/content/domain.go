package content

import (
	"errors"
	"strings"
	"time"
)

// Kind names a content collection. Each kind is stored in its own table.
type Kind string

const (
	KindNews          Kind = "news"
	KindAnnouncements Kind = "announcements"
	KindCommittees    Kind = "committees"
	KindEvents        Kind = "events"
	KindProjects      Kind = "projects"
)

// Kinds lists every collection in sidebar order.
var Kinds = []Kind{KindNews, KindAnnouncements, KindCommittees, KindEvents, KindProjects}

// ErrUnknownKind is returned for collection names outside Kinds.
var ErrUnknownKind = errors.New("unknown content kind")

// ParseKind validates a collection name taken from the URL.
func ParseKind(value string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == value {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// Table returns the table backing the kind. Only values from Kinds reach SQL.
func (k Kind) Table() string {
	return string(k)
}

// Singular is the entity name used in audit actions, e.g. "announcement_updated".
func (k Kind) Singular() string {
	switch k {
	case KindNews:
		return "news"
	case KindAnnouncements:
		return "announcement"
	case KindCommittees:
		return "committee"
	case KindEvents:
		return "event"
	case KindProjects:
		return "project"
	}
	return string(k)
}

// Item is one row of any content table.
type Item struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Body        string     `json:"body"`
	ImageURL    string     `json:"image_url"`
	Slug        string     `json:"slug"`
	Location    string     `json:"location"`
	EventDate   *time.Time `json:"event_date"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Published reports whether the item is visible on the public website.
func (i Item) Published() bool {
	return i.PublishedAt != nil
}

// Input carries the editable fields of an item.
type Input struct {
	Title     string     `json:"title" validate:"required,max=300"`
	Summary   string     `json:"summary" validate:"max=2000"`
	Body      string     `json:"body"`
	ImageURL  string     `json:"image_url" validate:"omitempty,url,max=2048"`
	Slug      string     `json:"slug" validate:"max=200"`
	Location  string     `json:"location" validate:"max=300"`
	EventDate *time.Time `json:"event_date"`
	Publish   bool       `json:"publish"`
}

// Normalize trims the free-text fields so validation sees what will be stored.
func (in *Input) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Location = strings.TrimSpace(in.Location)
}

// KindCount is the published/draft split of one collection.
type KindCount struct {
	Kind      Kind `json:"kind"`
	Published int  `json:"published"`
	Draft     int  `json:"draft"`
}

// Summary feeds the dashboard.
type Summary struct {
	Counts         []KindCount `json:"counts"`
	UpcomingEvents []Item      `json:"upcoming_events"`
}
