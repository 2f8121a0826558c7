package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/models"
)

type fakeStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event
	users  map[uuid.UUID]models.UserRef
	writes int
}

func newFakeStore(users ...models.UserRef) *fakeStore {
	f := &fakeStore{events: map[uuid.UUID]*models.Event{}, users: map[uuid.UUID]models.UserRef{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeStore) checkSpeakers(ids []uuid.UUID) error {
	for _, id := range ids {
		if _, ok := f.users[id]; !ok {
			return models.Invalid(fmt.Sprintf("unknown speaker %s", id))
		}
	}
	return nil
}

func (f *fakeStore) Create(_ context.Context, e *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkSpeakers(e.SpeakerIDs); err != nil {
		return err
	}
	f.writes++
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("event %w", models.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Event{}
	for _, e := range f.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, upd models.EventUpdate) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("event %w", models.ErrNotFound)
	}
	if upd.SpeakerIDs != nil {
		if err := f.checkSpeakers(upd.SpeakerIDs); err != nil {
			return nil, err
		}
		e.SpeakerIDs = upd.SpeakerIDs
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.DateTime != nil {
		e.DateTime = *upd.DateTime
	}
	if upd.MeetingLink != nil {
		e.MeetingLink = *upd.MeetingLink
	}
	if upd.RSVPState != nil {
		e.RSVPState = *upd.RSVPState
	}
	f.writes++
	cp := *e
	return &cp, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return fmt.Errorf("event %w", models.ErrNotFound)
	}
	delete(f.events, id)
	f.writes++
	return nil
}

func (f *fakeStore) SpeakersFor(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.UserRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID][]models.UserRef{}
	for _, id := range ids {
		if e, ok := f.events[id]; ok {
			for _, sid := range e.SpeakerIDs {
				out[id] = append(out[id], f.users[sid])
			}
		}
	}
	return out, nil
}

type fakeRSVPs map[uuid.UUID][]models.RSVPEntry

func (f fakeRSVPs) ListForEvents(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.RSVPEntry, error) {
	out := map[uuid.UUID][]models.RSVPEntry{}
	for _, id := range ids {
		if rows, ok := f[id]; ok {
			out[id] = rows
		}
	}
	return out, nil
}

type fixedLink string

func (l fixedLink) NewLink(context.Context, string, time.Time) (string, error) {
	return string(l), nil
}
