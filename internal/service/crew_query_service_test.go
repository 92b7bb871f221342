package service

import (
	"context"
	"testing"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileURL(id string) string {
	return "https://img.test/user/profile-" + id
}

func TestGetCrewDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, creatorID, model.GenderMale, 25)
	env.user(t, aliceID, model.GenderFemale, 20)
	crew := env.newCrew(t, creatorID, "detail", nil)

	d, err := env.queries.GetCrewDetail(ctx, crew.ID, creatorID)
	require.NoError(t, err)
	assert.True(t, d.IsMember)
	assert.True(t, d.IsCreator)
	assert.Equal(t, []string{"boulder"}, d.Tags)
	assert.Equal(t, []string{profileURL("1")}, d.UserImages)

	d, err = env.queries.GetCrewDetail(ctx, crew.ID, aliceID)
	require.NoError(t, err)
	assert.False(t, d.IsMember)
	assert.False(t, d.IsCreator)

	_, err = env.queries.GetCrewDetail(ctx, 999, aliceID)
	assert.ErrorIs(t, err, pkg.ErrCrewNotFound)
}

func TestUserImagesByCrew_CreatorFirstAndCapped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, creatorID, model.GenderMale, 25)
	crew := env.newCrew(t, creatorID, "busy", nil)
	for id := uint64(2); id <= 7; id++ {
		env.user(t, id, model.GenderFemale, 20)
		_, err := env.crews.ApplyCrew(ctx, crew.ID, id, "")
		require.NoError(t, err)
	}

	images, err := env.queries.UserImagesByCrew(ctx, crew, pkg.MaxListThumbnails)
	require.NoError(t, err)
	require.Len(t, images, pkg.MaxListThumbnails)
	assert.Equal(t, profileURL("1"), images[0])

	detail, err := env.queries.UserImagesByCrew(ctx, crew, pkg.MaxDetailThumbnails)
	require.NoError(t, err)
	require.Len(t, detail, pkg.MaxDetailThumbnails)
	assert.Equal(t, profileURL("1"), detail[0])

	// 第二次读取命中缓存
	cached, hit, err := env.thumbs.Get(ctx, crew.ID, pkg.MaxListThumbnails)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, images, cached)

	// 成员变动后缓存失效
	require.NoError(t, env.crews.LeaveCrew(ctx, crew.ID, 2))
	_, hit, err = env.thumbs.Get(ctx, crew.ID, pkg.MaxListThumbnails)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestListCrews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, creatorID, model.GenderMale, 25)
	env.user(t, aliceID, model.GenderFemale, 20)
	env.user(t, bobID, model.GenderMale, 45)

	anyCrew := env.newCrew(t, creatorID, "any", nil)
	env.newCrew(t, creatorID, "men", func(in *CrewInput) { in.Gender = model.CrewGenderMale })
	women := env.newCrew(t, creatorID, "women", func(in *CrewInput) { in.Gender = model.CrewGenderFemale })
	env.newCrew(t, creatorID, "seniors", func(in *CrewInput) { in.MinAge, in.MaxAge = 40, 60 })
	_, err := env.crews.ApplyCrew(ctx, women.ID, aliceID, "")
	require.NoError(t, err)

	popular, err := env.queries.ListCrews(ctx, model.CrewSortPopular, 0, aliceID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), popular.Total)
	assert.Equal(t, pkg.CrewPageSize, popular.Size)
	require.Len(t, popular.List, 4)
	assert.Equal(t, women.ID, popular.List[0].ID)
	assert.Len(t, popular.List[0].UserImages, 2)

	latest, err := env.queries.ListCrews(ctx, model.CrewSortLatest, 0, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "seniors", latest.List[0].Name)

	recommended, err := env.queries.ListCrews(ctx, model.CrewSortRecommended, 0, aliceID)
	require.NoError(t, err)
	ids := make([]uint64, 0, len(recommended.List))
	for _, c := range recommended.List {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []uint64{anyCrew.ID, women.ID}, ids)

	empty, err := env.queries.ListCrews(ctx, model.CrewSortPopular, 1, aliceID)
	require.NoError(t, err)
	assert.Empty(t, empty.List)
	assert.Equal(t, int64(4), empty.Total)
}

func TestMyCrews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, creatorID, model.GenderMale, 25)
	env.user(t, aliceID, model.GenderFemale, 20)
	open := env.newCrew(t, creatorID, "open", nil)
	gated := env.newCrew(t, creatorID, "gated", func(in *CrewInput) { in.PermissionRequired = true })
	_, err := env.crews.ApplyCrew(ctx, open.ID, aliceID, "")
	require.NoError(t, err)
	_, err = env.crews.ApplyCrew(ctx, gated.ID, aliceID, "")
	require.NoError(t, err)

	joined, err := env.queries.GetJoinedCrews(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, open.ID, joined[0].ID)
	assert.False(t, joined[0].JoinedAt.IsZero())

	applied, err := env.queries.GetAppliedCrews(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, gated.ID, applied[0].ID)
	assert.False(t, applied[0].AppliedAt.IsZero())

	mine, err := env.queries.GetJoinedCrews(ctx, creatorID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestMembersAndApplicants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, creatorID, model.GenderMale, 25)
	env.user(t, aliceID, model.GenderFemale, 20)
	env.user(t, bobID, model.GenderMale, 22)
	crew := env.newCrew(t, creatorID, "gated", func(in *CrewInput) {
		in.PermissionRequired = true
		in.AnswerRequired = true
	})
	_, err := env.crews.ApplyCrew(ctx, crew.ID, aliceID, "pick me")
	require.NoError(t, err)
	require.NoError(t, env.crews.ApproveApplication(ctx, crew.ID, aliceID, creatorID))
	_, err = env.crews.ApplyCrew(ctx, crew.ID, bobID, "me too")
	require.NoError(t, err)

	members, err := env.queries.GetMembers(ctx, crew.ID, aliceID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, creatorID, members[0].UserID)
	assert.True(t, members[0].IsCreator)
	assert.Equal(t, aliceID, members[1].UserID)
	assert.Equal(t, profileURL("2"), members[1].ProfileImage)

	applicants, err := env.queries.GetApplicants(ctx, crew.ID, creatorID)
	require.NoError(t, err)
	require.Len(t, applicants, 1)
	assert.Equal(t, bobID, applicants[0].UserID)
	assert.Equal(t, "me too", applicants[0].Answer)
}
