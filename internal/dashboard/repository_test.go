package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
)

func TestRepository_Summary(t *testing.T) {
	ctx := context.Background()
	e1, e2 := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		mock    func(mock pgxmock.PgxPoolIface)
		want    *Summary
		wantErr bool
	}{
		{
			name: "counts and top events",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM events\)`).
					WillReturnRows(pgxmock.NewRows([]string{"e", "s", "a", "r", "v"}).AddRow(3, 4, 10, 12, 6))
				mock.ExpectQuery(`FROM registrations r JOIN events e`).
					WithArgs(TopEventsLimit).
					WillReturnRows(pgxmock.NewRows([]string{"id", "title", "attendee_count"}).
						AddRow(e1, "Keynote", 8).
						AddRow(e2, "Workshop", 4))
			},
			want: &Summary{
				EventCount: 3, SpeakerCount: 4, AttendeeCount: 10, RegistrationCount: 12, RSVPCount: 6,
				TopEvents: []TopEvent{{EventID: e1, Title: "Keynote", AttendeeCount: 8}, {EventID: e2, Title: "Workshop", AttendeeCount: 4}},
			},
		},
		{
			name: "no registrations yields empty ranking",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM events\)`).
					WillReturnRows(pgxmock.NewRows([]string{"e", "s", "a", "r", "v"}).AddRow(1, 1, 0, 0, 0))
				mock.ExpectQuery(`FROM registrations r JOIN events e`).
					WithArgs(TopEventsLimit).
					WillReturnRows(pgxmock.NewRows([]string{"id", "title", "attendee_count"}))
			},
			want: &Summary{EventCount: 1, SpeakerCount: 1, TopEvents: []TopEvent{}},
		},
		{
			name: "count query error",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM events\)`).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.mock(mock)

			got, err := NewRepository(mock).Summary(ctx)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Summary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM events\)`).
		WillReturnRows(pgxmock.NewRows([]string{"e", "s", "a", "r", "v"}).AddRow(2, 1, 1, 1, 0))
	mock.ExpectQuery(`FROM registrations r JOIN events e`).
		WithArgs(TopEventsLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "attendee_count"}))

	h := NewHandler(NewRepository(mock))
	r := gin.New()
	r.GET("/open", h.Summary)
	r.GET("/authed", func(c *gin.Context) {
		c.Set(middleware.ContextIdentity, models.Identity{ID: uuid.New(), Role: models.RoleAttendee})
	}, h.Summary)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/authed", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"event_count":2`)
	require.NoError(t, mock.ExpectationsWereMet())
}
