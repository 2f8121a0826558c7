package events

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// MeetingLinkProvider supplies a conferencing link for an event created without one.
type MeetingLinkProvider interface {
	NewLink(ctx context.Context, title string, at time.Time) (string, error)
}

// StaticMeetingLinks mints links under a fixed base URL with a random numeric meeting id.
type StaticMeetingLinks struct {
	Base string
}

// NewLink returns Base/<10-digit id>.
func (p StaticMeetingLinks) NewLink(_ context.Context, _ string, _ time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return "", fmt.Errorf("meeting id: %w", err)
	}
	return fmt.Sprintf("%s/%d", p.Base, n.Int64()+1_000_000_000), nil
}
