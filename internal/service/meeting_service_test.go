package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMeeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, creatorID, model.GenderMale, 25)
	env.user(t, aliceID, model.GenderFemale, 20)
	crew := env.newCrew(t, creatorID, "crew", nil)

	_, err := env.meetings.CreateMeeting(ctx, crew.ID, aliceID, "not yet", time.Now())
	assert.ErrorIs(t, err, pkg.ErrNotCrewMember)

	_, err = env.meetings.CreateMeeting(ctx, crew.ID, creatorID, " ", time.Now())
	assert.ErrorIs(t, err, pkg.ErrInvalidMeetingTitle)
	_, err = env.meetings.CreateMeeting(ctx, crew.ID, creatorID, strings.Repeat("t", 101), time.Now())
	assert.ErrorIs(t, err, pkg.ErrInvalidMeetingTitle)

	_, err = env.meetings.CreateMeeting(ctx, 999, creatorID, "nowhere", time.Now())
	assert.ErrorIs(t, err, pkg.ErrCrewNotFound)

	m, err := env.meetings.CreateMeeting(ctx, crew.ID, creatorID, "saturday session", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.count(t, &model.MeetingMember{}, "meeting_id = ? AND user_id = ?", m.ID, creatorID))
	assert.Equal(t, int64(1), env.reload(t, crew.ID).MeetingCount)
}

func TestJoinMeeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, creatorID, model.GenderMale, 25)
	env.user(t, aliceID, model.GenderFemale, 20)
	crew := env.newCrew(t, creatorID, "crew", nil)
	m, err := env.meetings.CreateMeeting(ctx, crew.ID, creatorID, "saturday session", time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, env.meetings.JoinMeeting(ctx, m.ID, aliceID), pkg.ErrNotCrewMember)
	assert.ErrorIs(t, env.meetings.JoinMeeting(ctx, 999, aliceID), pkg.ErrMeetingNotFound)

	_, err = env.crews.ApplyCrew(ctx, crew.ID, aliceID, "")
	require.NoError(t, err)
	require.NoError(t, env.meetings.JoinMeeting(ctx, m.ID, aliceID))

	err = env.meetings.JoinMeeting(ctx, m.ID, aliceID)
	assert.ErrorIs(t, err, pkg.ErrDuplicateTransition)
	assert.Equal(t, pkg.KindConflict, pkg.KindOf(err))
}
