package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakerhub/backend/internal/models"
)

var (
	alice = models.UserRef{ID: uuid.New(), Name: "Alice", Email: "alice@example.com"}
	bob   = models.UserRef{ID: uuid.New(), Name: "Bob", Email: "bob@example.com"}

	speakerCaller  = models.Identity{ID: alice.ID, Email: alice.Email, Role: models.RoleSpeaker}
	attendeeCaller = models.Identity{ID: uuid.New(), Email: "att@example.com", Role: models.RoleAttendee}
)

func newTestService(rsvps fakeRSVPs) (*Service, *fakeStore) {
	store := newFakeStore(alice, bob)
	if rsvps == nil {
		rsvps = fakeRSVPs{}
	}
	return NewService(store, rsvps, fixedLink("https://meet.example.com/j/42"), nil), store
}

func TestService_Create(t *testing.T) {
	when := time.Date(2026, 11, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		caller  models.Identity
		in      CreateInput
		wantErr error
		wantVal bool
	}{
		{
			name:   "speaker creates with defaults",
			caller: speakerCaller,
			in:     CreateInput{Title: "GopherCon", DateTime: when, SpeakerIDs: []uuid.UUID{bob.ID, alice.ID}},
		},
		{
			name:    "attendee is forbidden",
			caller:  attendeeCaller,
			in:      CreateInput{Title: "GopherCon", DateTime: when, SpeakerIDs: []uuid.UUID{bob.ID}},
			wantErr: models.ErrForbidden,
		},
		{
			name:    "empty speaker list",
			caller:  speakerCaller,
			in:      CreateInput{Title: "GopherCon", DateTime: when, SpeakerIDs: []uuid.UUID{}},
			wantVal: true,
		},
		{
			name:    "missing title",
			caller:  speakerCaller,
			in:      CreateInput{Title: "  ", DateTime: when, SpeakerIDs: []uuid.UUID{bob.ID}},
			wantVal: true,
		},
		{
			name:    "missing date",
			caller:  speakerCaller,
			in:      CreateInput{Title: "GopherCon", SpeakerIDs: []uuid.UUID{bob.ID}},
			wantVal: true,
		},
		{
			name:    "bad rsvp state",
			caller:  speakerCaller,
			in:      CreateInput{Title: "GopherCon", DateTime: when, SpeakerIDs: []uuid.UUID{bob.ID}, RSVPState: "maybe"},
			wantVal: true,
		},
		{
			name:    "unknown speaker",
			caller:  speakerCaller,
			in:      CreateInput{Title: "GopherCon", DateTime: when, SpeakerIDs: []uuid.UUID{uuid.New()}},
			wantVal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(nil)
			got, err := svc.Create(context.Background(), tt.caller, tt.in)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, store.writes)
			case tt.wantVal:
				require.Error(t, err)
				assert.True(t, models.IsValidation(err), "want validation error, got %v", err)
				assert.Zero(t, store.writes)
			default:
				require.NoError(t, err)
				assert.Equal(t, models.RSVPOpen, got.RSVPState)
				assert.Equal(t, "https://meet.example.com/j/42", got.MeetingLink)
				assert.ElementsMatch(t, tt.in.SpeakerIDs, got.SpeakerIDs)
				assert.Equal(t, []models.UserRef{bob, alice}, got.Speakers)
				require.NotNil(t, got.CreatedBy)
				assert.Equal(t, speakerCaller.ID, *got.CreatedBy)
			}
		})
	}
}

func TestService_Create_KeepsSuppliedLinkAndDropsDuplicates(t *testing.T) {
	svc, _ := newTestService(nil)
	got, err := svc.Create(context.Background(), speakerCaller, CreateInput{
		Title:       "Workshop",
		DateTime:    time.Now().Add(time.Hour),
		MeetingLink: "https://zoom.us/j/1",
		SpeakerIDs:  []uuid.UUID{bob.ID, bob.ID, alice.ID},
		RSVPState:   models.RSVPClosed,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://zoom.us/j/1", got.MeetingLink)
	assert.Equal(t, []uuid.UUID{bob.ID, alice.ID}, got.SpeakerIDs)
	assert.Equal(t, models.RSVPClosed, got.RSVPState)
}

func TestService_GetAndList(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, speakerCaller, CreateInput{Title: "Talk", DateTime: time.Now().Add(time.Hour), SpeakerIDs: []uuid.UUID{bob.ID}})
	require.NoError(t, err)

	entry := models.RSVPEntry{EventID: created.ID, Speaker: bob, Status: models.RSVPMaybe}
	svc.rsvps = fakeRSVPs{created.ID: {entry}}

	asSpeaker, err := svc.Get(ctx, speakerCaller, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.RSVPEntry{entry}, asSpeaker.RSVPs)
	assert.Equal(t, []models.UserRef{bob}, asSpeaker.Speakers)

	asAttendee, err := svc.Get(ctx, attendeeCaller, created.ID)
	require.NoError(t, err)
	assert.Empty(t, asAttendee.RSVPs)

	_, err = svc.Get(ctx, speakerCaller, uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)

	list, err := svc.List(ctx, attendeeCaller)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []models.RSVPEntry{entry}, list[0].RSVPs)
}

func TestService_Update(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, speakerCaller, CreateInput{Title: "Talk", DateTime: time.Now().Add(time.Hour), SpeakerIDs: []uuid.UUID{bob.ID}})
	require.NoError(t, err)

	closed := models.RSVPClosed
	title := "Keynote"
	got, err := svc.Update(ctx, attendeeCaller, created.ID, UpdateInput{Title: &title, RSVPState: &closed, SpeakerIDs: []uuid.UUID{alice.ID}})
	require.NoError(t, err, "any authenticated caller may update")
	assert.Equal(t, "Keynote", got.Title)
	assert.Equal(t, models.RSVPClosed, got.RSVPState)
	assert.Equal(t, []uuid.UUID{alice.ID}, got.SpeakerIDs)

	writes := store.writes
	_, err = svc.Update(ctx, speakerCaller, created.ID, UpdateInput{SpeakerIDs: []uuid.UUID{}})
	assert.True(t, models.IsValidation(err))

	bad := models.RSVPState("paused")
	_, err = svc.Update(ctx, speakerCaller, created.ID, UpdateInput{RSVPState: &bad})
	assert.True(t, models.IsValidation(err))

	blank := " "
	_, err = svc.Update(ctx, speakerCaller, created.ID, UpdateInput{Title: &blank})
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, writes, store.writes)

	_, err = svc.Update(ctx, speakerCaller, uuid.New(), UpdateInput{Title: &title})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, speakerCaller, CreateInput{Title: "Talk", DateTime: time.Now().Add(time.Hour), SpeakerIDs: []uuid.UUID{bob.ID}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, attendeeCaller, created.ID))
	err = svc.Delete(ctx, attendeeCaller, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type failingLinks struct{}

func (failingLinks) NewLink(context.Context, string, time.Time) (string, error) {
	return "", errors.New("provider down")
}

func TestService_Create_LinkProviderFailure(t *testing.T) {
	store := newFakeStore(bob)
	svc := NewService(store, fakeRSVPs{}, failingLinks{}, nil)
	_, err := svc.Create(context.Background(), speakerCaller, CreateInput{Title: "Talk", DateTime: time.Now(), SpeakerIDs: []uuid.UUID{bob.ID}})
	require.Error(t, err)
	assert.False(t, models.IsValidation(err))
	assert.Zero(t, store.writes)
}

func TestStaticMeetingLinks(t *testing.T) {
	link, err := StaticMeetingLinks{Base: "https://zoom.us/j"}.NewLink(context.Background(), "x", time.Now())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://zoom.us/j/"))
	assert.Len(t, strings.TrimPrefix(link, "https://zoom.us/j/"), 10)
}
