package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("speaker")
	require.NoError(t, err)
	assert.Equal(t, RoleSpeaker, r)

	_, err = ParseRole("admin")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestIdentity_Require(t *testing.T) {
	speaker := Identity{ID: uuid.New(), Role: RoleSpeaker}
	attendee := Identity{ID: uuid.New(), Role: RoleAttendee}

	assert.NoError(t, speaker.Require(RoleSpeaker))
	err := attendee.Require(RoleSpeaker)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConflictSentinels(t *testing.T) {
	assert.ErrorIs(t, ErrAlreadyRegistered, ErrConflict)
	assert.ErrorIs(t, ErrRSVPClosed, ErrConflict)
	assert.ErrorIs(t, fmt.Errorf("register: %w", ErrAlreadyRegistered), ErrAlreadyRegistered)
	assert.False(t, errors.Is(ErrNotFound, ErrConflict))
}

func TestStatusValidity(t *testing.T) {
	for _, s := range []RSVPStatus{RSVPYes, RSVPNo, RSVPMaybe} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, RSVPStatus("perhaps").Valid())
	assert.False(t, RSVPStatus("").Valid())
	assert.True(t, RSVPOpen.Valid())
	assert.False(t, RSVPState("paused").Valid())
}
