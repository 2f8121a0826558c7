package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
)

type memStore struct {
	mu   sync.Mutex
	fail error
	rows []models.Message
	seq  int
}

func (s *memStore) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.seq++
	m.ID = uuid.New()
	m.Timestamp = time.Unix(int64(s.seq), 0)
	s.rows = append(s.rows, *m)
	return nil
}

func (s *memStore) ListByEvent(_ context.Context, eventID uuid.UUID, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.rows {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type recorder struct {
	mu   sync.Mutex
	sent []*models.Message
}

func (r *recorder) Publish(_ context.Context, _ uuid.UUID, event string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event == EventMessage {
		r.sent = append(r.sent, payload.(*models.Message))
	}
	return nil
}

func TestService_SendPersistsThenBroadcasts(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	svc := NewService(store, rec, nil)
	eventID := uuid.New()

	m, err := svc.Send(context.Background(), eventID, " Ada ", " hello ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", m.From)
	assert.Equal(t, "hello", m.Text)
	assert.False(t, m.Timestamp.IsZero())
	require.Len(t, rec.sent, 1)
	assert.Equal(t, m, rec.sent[0])
	assert.Len(t, store.rows, 1)
}

func TestService_SendFailureIsNotBroadcast(t *testing.T) {
	store := &memStore{fail: errors.New("db down")}
	rec := &recorder{}
	svc := NewService(store, rec, nil)

	_, err := svc.Send(context.Background(), uuid.New(), "Ada", "hello")
	require.Error(t, err)
	assert.Empty(t, rec.sent)
}

func TestService_SendValidation(t *testing.T) {
	tests := []struct {
		name, from, text string
	}{
		{"empty text", "Ada", "   "},
		{"empty sender", "", "hi"},
		{"text too long", "Ada", strings.Repeat("x", MaxTextLength+1)},
		{"sender too long", strings.Repeat("y", MaxSenderLength+1), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			rec := &recorder{}
			_, err := NewService(store, rec, nil).Send(context.Background(), uuid.New(), tt.from, tt.text)
			assert.True(t, models.IsValidation(err))
			assert.Empty(t, store.rows)
			assert.Empty(t, rec.sent)
		})
	}
}

func TestService_BroadcastOrderMatchesPersistOrder(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	svc := NewService(store, rec, nil)
	eventID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Send(context.Background(), eventID, "sender", "line")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, rec.sent, 50)
	for i := 1; i < len(rec.sent); i++ {
		assert.True(t, rec.sent[i-1].Timestamp.Before(rec.sent[i].Timestamp), "broadcast %d out of persistence order", i)
	}
}

func TestService_RoomLocksStayBounded(t *testing.T) {
	svc := NewService(&memStore{fail: errors.New("unknown event")}, &recorder{}, nil)
	seen := map[*sync.Mutex]struct{}{}
	for i := 0; i < 10000; i++ {
		id := uuid.New()
		_, err := svc.Send(context.Background(), id, "Eve", "spam")
		require.Error(t, err)
		seen[svc.roomLock(id)] = struct{}{}
	}
	assert.LessOrEqual(t, len(seen), roomLockStripes)

	id := uuid.New()
	assert.Same(t, svc.roomLock(id), svc.roomLock(id))
}

func TestHandler_History(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &memStore{}
	svc := NewService(store, &recorder{}, nil)
	eventID := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := svc.Send(context.Background(), eventID, "Ada", "line")
		require.NoError(t, err)
	}

	r := gin.New()
	r.GET("/api/events/:id/messages", func(c *gin.Context) {
		c.Set(middleware.ContextIdentity, models.Identity{ID: uuid.New()})
	}, NewHandler(svc).History)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events/"+eventID.String()+"/messages?limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, strings.Count(rr.Body.String(), `"text":"line"`))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events/"+eventID.String()+"/messages?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
