package music

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metadata is what a Resolver knows about a query before it is queued.
type Metadata struct {
	Title       string
	StreamURL   string
	WebpageURL  string
	Duration    time.Duration
	HasDuration bool
}

type Track struct {
	ID          string
	Title       string
	StreamURL   string
	WebpageURL  string
	Duration    time.Duration
	HasDuration bool
	RequesterID string
	QueuedAt    time.Time
}

func NewTrack(md Metadata, requesterID string) Track {
	return Track{
		ID:          uuid.NewString(),
		Title:       md.Title,
		StreamURL:   md.StreamURL,
		WebpageURL:  md.WebpageURL,
		Duration:    md.Duration,
		HasDuration: md.HasDuration,
		RequesterID: requesterID,
		QueuedAt:    time.Now(),
	}
}

// Played is a history entry.
type Played struct {
	Title       string
	WebpageURL  string
	Duration    time.Duration
	HasDuration bool
	RequesterID string
	PlayedAt    time.Time
}

// FormatDuration renders whole seconds as MM:SS. Minutes are not folded into hours.
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
