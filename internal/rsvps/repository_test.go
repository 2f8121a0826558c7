package rsvps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakerhub/backend/internal/models"
)

const (
	upsertSQL = `INSERT INTO rsvps \(event_id, speaker_id, status\)`
	stateSQL  = `SELECT rsvp_state FROM events WHERE id`
)

var rsvpColumns = []string{"event_id", "speaker_id", "status", "created_at", "updated_at"}

func TestRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	eventID, speakerID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raced := &pgconn.PgError{Code: "23505", ConstraintName: "rsvps_event_speaker_key"}

	tests := []struct {
		name    string
		mock    func(mock pgxmock.PgxPoolIface)
		want    *models.RSVP
		wantErr error
	}{
		{
			name: "stores status",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "yes").
					WillReturnRows(pgxmock.NewRows(rsvpColumns).AddRow(eventID, speakerID, "yes", now, now))
			},
			want: &models.RSVP{EventID: eventID, SpeakerID: speakerID, Status: models.RSVPYes, CreatedAt: now, UpdatedAt: now},
		},
		{
			name: "unique violation on first insert is retried",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "maybe").WillReturnError(raced)
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "maybe").
					WillReturnRows(pgxmock.NewRows(rsvpColumns).AddRow(eventID, speakerID, "maybe", now, now.Add(time.Second)))
			},
			want: &models.RSVP{EventID: eventID, SpeakerID: speakerID, Status: models.RSVPMaybe, CreatedAt: now, UpdatedAt: now.Add(time.Second)},
		},
		{
			name: "unique violation twice surfaces",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "maybe").WillReturnError(raced)
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "maybe").WillReturnError(raced)
			},
			wantErr: raced,
		},
		{
			name: "closed event rejects",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "maybe").WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(stateSQL).WithArgs(eventID).
					WillReturnRows(pgxmock.NewRows([]string{"rsvp_state"}).AddRow("closed"))
			},
			wantErr: models.ErrRSVPClosed,
		},
		{
			name: "missing event is not found",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "maybe").WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(stateSQL).WithArgs(eventID).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "deleted speaker is not found",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(upsertSQL).WithArgs(eventID, speakerID, "maybe").
					WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "rsvps_speaker_id_fkey"})
			},
			wantErr: models.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.mock(mock)

			status := models.RSVPMaybe
			if tt.want != nil {
				status = tt.want.Status
			}
			got, err := NewRepository(mock).Upsert(ctx, eventID, speakerID, status)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ListForEvents(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e1, e2 := uuid.New(), uuid.New()
	s1, s2 := uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM rsvps r JOIN users u`).WithArgs([]uuid.UUID{e1, e2}).
		WillReturnRows(pgxmock.NewRows([]string{"event_id", "id", "name", "email", "status", "updated_at"}).
			AddRow(e1, s1, "Ada", "ada@example.com", "yes", now).
			AddRow(e1, s2, "Lin", "lin@example.com", "no", now))

	got, err := NewRepository(mock).ListForEvents(context.Background(), []uuid.UUID{e1, e2})
	require.NoError(t, err)
	require.Len(t, got[e1], 2)
	assert.Equal(t, s1, got[e1][0].Speaker.ID)
	assert.Equal(t, models.RSVPNo, got[e1][1].Status)
	assert.Empty(t, got[e2])
	require.NoError(t, mock.ExpectationsWereMet())

	// No ids means no query.
	got, err = NewRepository(mock).ListForEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
