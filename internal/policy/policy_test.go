package policy

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

type pair struct{ crew, user uint64 }

type fakeRelations struct {
	rows map[pair]bool
}

func newRelations(ps ...pair) *fakeRelations {
	f := &fakeRelations{rows: map[pair]bool{}}
	for _, p := range ps {
		f.rows[p] = true
	}
	return f
}

func (f *fakeRelations) Exists(_ context.Context, crewID, userID uint64) (bool, error) {
	return f.rows[pair{crewID, userID}], nil
}

func (f *fakeRelations) CountByUser(_ context.Context, userID uint64) (int64, error) {
	var n int64
	for p := range f.rows {
		if p.user == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRelations) ListUserIDs(_ context.Context, crewID uint64) ([]uint64, error) {
	var ids []uint64
	for p := range f.rows {
		if p.crew == crewID {
			ids = append(ids, p.user)
		}
	}
	return ids, nil
}

type fakeNames map[string]uint64

func (f fakeNames) ExistsByName(_ context.Context, name string, excludeID uint64) (bool, error) {
	id, ok := f[name]
	return ok && id != excludeID, nil
}

type fakeUsers map[uint64]*model.User

func (f fakeUsers) GetUserByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, pkg.ErrUserNotFound
}

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func userAged(id uint64, gender model.Gender, age int) *model.User {
	return &model.User{ID: id, Gender: gender, Birthday: now.AddDate(-age, 0, -1)}
}

func validCrew() *model.Crew {
	return &model.Crew{
		ID:        1,
		CreatorID: 10,
		Name:      "morning boulder",
		MinAge:    15,
		MaxAge:    30,
		Gender:    model.CrewGenderAny,
		Tags:      []string{"boulder", "gangnam"},
	}
}

func TestValidateCrewFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *model.Crew)
		want   error
	}{
		{"ok", func(c *model.Crew) {}, nil},
		{"blank name", func(c *model.Crew) { c.Name = "  " }, pkg.ErrInvalidCrewName},
		{"long name", func(c *model.Crew) { c.Name = strings.Repeat("가", 31) }, pkg.ErrInvalidCrewName},
		{"long description", func(c *model.Crew) { c.Description = strings.Repeat("d", 501) }, pkg.ErrInvalidDescription},
		{"min over max", func(c *model.Crew) { c.MinAge, c.MaxAge = 31, 30 }, pkg.ErrInvalidAgeRange},
		{"negative min", func(c *model.Crew) { c.MinAge = -1 }, pkg.ErrInvalidAgeRange},
		{"max over limit", func(c *model.Crew) { c.MaxAge = 101 }, pkg.ErrInvalidAgeRange},
		{"bad gender", func(c *model.Crew) { c.Gender = "OTHER" }, pkg.ErrInvalidCrewGender},
		{"too many tags", func(c *model.Crew) { c.Tags = []string{"a", "b", "c", "d"} }, pkg.ErrInvalidTags},
		{"empty tag", func(c *model.Crew) { c.Tags = []string{""} }, pkg.ErrInvalidTags},
		{"duplicate tag", func(c *model.Crew) { c.Tags = []string{"a", "a"} }, pkg.ErrInvalidTags},
		{"duplicate after trim", func(c *model.Crew) { c.Tags = []string{"a", " a "} }, pkg.ErrInvalidTags},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCrew()
			tc.mutate(c)
			err := ValidateCrewFields(c)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckAgeBoundsInclusive(t *testing.T) {
	c := validCrew()
	assert.NoError(t, CheckAge(c, userAged(1, model.GenderMale, 15), now))
	assert.NoError(t, CheckAge(c, userAged(1, model.GenderMale, 30), now))
	assert.ErrorIs(t, CheckAge(c, userAged(1, model.GenderMale, 14), now), pkg.ErrAgeForbidden)
	assert.ErrorIs(t, CheckAge(c, userAged(1, model.GenderMale, 31), now), pkg.ErrAgeForbidden)
}

func TestMembershipPolicy(t *testing.T) {
	p := &MembershipPolicy{Members: newRelations(pair{1, 2})}
	ctx := context.Background()

	assert.NoError(t, p.ValidateCrewMember(ctx, 1, 2))
	assert.ErrorIs(t, p.ValidateCrewMember(ctx, 1, 3), pkg.ErrNotCrewMember)

	c := validCrew()
	assert.NoError(t, ValidateCrewCreator(c, 10))
	assert.ErrorIs(t, ValidateCrewCreator(c, 2), pkg.ErrNotCrewCreator)
	assert.Equal(t, pkg.KindForbidden, pkg.KindOf(ValidateCrewCreator(c, 2)))
}

func TestCreatePolicy(t *testing.T) {
	ctx := context.Background()
	p := &CreatePolicy{
		Crews:     fakeNames{"taken": 5},
		Members:   newRelations(pair{7, 10}),
		MaxJoined: 2,
	}

	assert.NoError(t, p.Validate(ctx, validCrew()))

	dup := validCrew()
	dup.Name = "taken"
	assert.ErrorIs(t, p.Validate(ctx, dup), pkg.ErrDuplicateCrewName)

	p.Members = newRelations(pair{7, 10}, pair{8, 10})
	assert.ErrorIs(t, p.Validate(ctx, validCrew()), pkg.ErrJoinedCrewsExceeded)
}

func TestUpdatePolicy(t *testing.T) {
	ctx := context.Background()
	old := validCrew()
	users := fakeUsers{
		10: userAged(10, model.GenderMale, 25),
		11: userAged(11, model.GenderFemale, 18),
	}
	p := &UpdatePolicy{
		Crews:   fakeNames{"morning boulder": 1, "taken": 2},
		Members: newRelations(pair{1, 10}, pair{1, 11}),
		Users:   users,
		Now:     func() time.Time { return now },
	}

	t.Run("non creator", func(t *testing.T) {
		assert.ErrorIs(t, p.Validate(ctx, old, validCrew(), 11), pkg.ErrNotCrewCreator)
	})
	t.Run("same name is not a duplicate", func(t *testing.T) {
		assert.NoError(t, p.Validate(ctx, old, validCrew(), 10))
	})
	t.Run("duplicate name", func(t *testing.T) {
		u := validCrew()
		u.Name = "taken"
		assert.ErrorIs(t, p.Validate(ctx, old, u, 10), pkg.ErrDuplicateCrewName)
	})
	t.Run("narrowing excludes member", func(t *testing.T) {
		u := validCrew()
		u.MinAge = 20
		assert.ErrorIs(t, p.Validate(ctx, old, u, 10), pkg.ErrMemberOutOfBounds)
	})
	t.Run("gender narrowing excludes member", func(t *testing.T) {
		u := validCrew()
		u.Gender = model.CrewGenderMale
		assert.ErrorIs(t, p.Validate(ctx, old, u, 10), pkg.ErrMemberOutOfBounds)
	})
	t.Run("narrowing that keeps everyone", func(t *testing.T) {
		u := validCrew()
		u.MinAge, u.MaxAge = 18, 25
		assert.NoError(t, p.Validate(ctx, old, u, 10))
	})
}

func TestApplicationPolicy_ValidateApply(t *testing.T) {
	ctx := context.Background()
	newPolicy := func() *ApplicationPolicy {
		return &ApplicationPolicy{
			Members:      newRelations(pair{1, 10}),
			Applications: newRelations(),
			MaxJoined:    5,
			MaxApplied:   5,
			Now:          func() time.Time { return now },
		}
	}

	t.Run("eligible", func(t *testing.T) {
		assert.NoError(t, newPolicy().ValidateApply(ctx, validCrew(), userAged(2, model.GenderMale, 20), ""))
	})
	t.Run("too old", func(t *testing.T) {
		err := newPolicy().ValidateApply(ctx, validCrew(), userAged(2, model.GenderMale, 40), "")
		assert.ErrorIs(t, err, pkg.ErrAgeForbidden)
		assert.Equal(t, pkg.KindValidation, pkg.KindOf(err))
	})
	t.Run("gender", func(t *testing.T) {
		c := validCrew()
		c.Gender = model.CrewGenderFemale
		assert.ErrorIs(t, newPolicy().ValidateApply(ctx, c, userAged(2, model.GenderMale, 20), ""), pkg.ErrGenderForbidden)
	})
	t.Run("answer required", func(t *testing.T) {
		c := validCrew()
		c.AnswerRequired = true
		assert.ErrorIs(t, newPolicy().ValidateApply(ctx, c, userAged(2, model.GenderMale, 20), " "), pkg.ErrEmptyAnswer)
		assert.NoError(t, newPolicy().ValidateApply(ctx, c, userAged(2, model.GenderMale, 20), "hello"))
	})
	t.Run("creator is already a member", func(t *testing.T) {
		assert.ErrorIs(t, newPolicy().ValidateApply(ctx, validCrew(), userAged(10, model.GenderMale, 20), ""), pkg.ErrAlreadyMember)
	})
	t.Run("already applied", func(t *testing.T) {
		p := newPolicy()
		p.Applications = newRelations(pair{1, 2})
		assert.ErrorIs(t, p.ValidateApply(ctx, validCrew(), userAged(2, model.GenderMale, 20), ""), pkg.ErrAlreadyApplied)
	})
	t.Run("joined quota", func(t *testing.T) {
		p := newPolicy()
		p.MaxJoined = 1
		p.Members = newRelations(pair{9, 2})
		assert.ErrorIs(t, p.ValidateApply(ctx, validCrew(), userAged(2, model.GenderMale, 20), ""), pkg.ErrJoinedCrewsExceeded)
	})
	t.Run("applied quota only for permission crews", func(t *testing.T) {
		p := newPolicy()
		p.MaxApplied = 1
		p.Applications = newRelations(pair{9, 2})
		c := validCrew()
		assert.NoError(t, p.ValidateApply(ctx, c, userAged(2, model.GenderMale, 20), ""))
		c.PermissionRequired = true
		assert.ErrorIs(t, p.ValidateApply(ctx, c, userAged(2, model.GenderMale, 20), ""), pkg.ErrAppliedExceeded)
	})
}

func TestApplicationPolicy_ValidateApplication(t *testing.T) {
	p := &ApplicationPolicy{Applications: newRelations(pair{1, 2})}
	ctx := context.Background()

	require.NoError(t, p.ValidateApplication(ctx, 1, 2))
	err := p.ValidateApplication(ctx, 1, 3)
	assert.ErrorIs(t, err, pkg.ErrApplicationNotFound)
	assert.Equal(t, pkg.KindNotFound, pkg.KindOf(err))
}
