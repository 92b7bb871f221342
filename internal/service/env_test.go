package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"testing"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
	"Crew_Community/internal/repository/mysql"
	"Crew_Community/internal/repository/mysql/mysqltest"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeImages struct {
	mu         sync.Mutex
	seq        int
	objects    map[string]bool
	deleted    []string
	failUpload bool
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string]bool{}}
}

func (f *fakeImages) Upload(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload {
		return "", errors.New("upload failed")
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.seq++
	key := fmt.Sprintf("img-%d%s", f.seq, path.Ext(filename))
	f.objects[folder+"/"+key] = true
	return key, nil
}

func (f *fakeImages) Delete(_ context.Context, folder, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, folder+"/"+key)
	f.deleted = append(f.deleted, folder+"/"+key)
	return nil
}

func (f *fakeImages) URL(folder, key string) string {
	if key == "" {
		return ""
	}
	return "https://img.test/" + folder + "/" + key
}

func (f *fakeImages) has(folder, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[folder+"/"+key]
}

type fakeThumbnails struct {
	mu          sync.Mutex
	data        map[uint64]map[int][]string
	invalidated map[uint64]int
}

func newFakeThumbnails() *fakeThumbnails {
	return &fakeThumbnails{data: map[uint64]map[int][]string{}, invalidated: map[uint64]int{}}
}

func (f *fakeThumbnails) Get(_ context.Context, crewID uint64, limit int) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	images, ok := f.data[crewID][limit]
	return images, ok, nil
}

func (f *fakeThumbnails) Set(_ context.Context, crewID uint64, limit int, images []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[crewID] == nil {
		f.data[crewID] = map[int][]string{}
	}
	f.data[crewID][limit] = images
	return nil
}

func (f *fakeThumbnails) Invalidate(_ context.Context, crewID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, crewID)
	f.invalidated[crewID]++
	return nil
}

type failingOutbox struct{}

func (failingOutbox) Insert(context.Context, string, uint64, uint64, uint64) error {
	return errors.New("outbox unavailable")
}

type testEnv struct {
	db       *gorm.DB
	deps     CrewDeps
	crews    *CrewService
	queries  *CrewQueryService
	meetings *MeetingService
	images   *fakeImages
	thumbs   *fakeThumbnails
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := mysqltest.NewDB(t)
	env := &testEnv{db: db, images: newFakeImages(), thumbs: newFakeThumbnails()}
	env.deps = CrewDeps{
		Tx:             &mysql.Transactor{DB: db},
		Crews:          &mysql.CrewRepository{DB: db},
		Tags:           &mysql.CrewTagRepository{DB: db},
		Members:        &mysql.CrewMemberRepository{DB: db},
		Applications:   &mysql.CrewApplicationRepository{DB: db},
		Meetings:       &mysql.MeetingRepository{DB: db},
		MeetingMembers: &mysql.MeetingMemberRepository{DB: db},
		Users:          &mysql.UserRepository{DB: db},
		Outbox:         &mysql.OutboxRepository{DB: db},
		Images:         env.images,
		Thumbnails:     env.thumbs,
		Log:            pkg.NopLogger(),
		MaxJoined:      5,
		MaxApplied:     5,
	}
	env.rebuild()
	return env
}

// rebuild 修改 deps 之后重新构造服务
func (e *testEnv) rebuild() {
	e.crews = NewCrewService(e.deps)
	e.queries = NewCrewQueryService(e.deps)
	e.meetings = NewMeetingService(e.deps)
}

func (e *testEnv) user(t *testing.T, id uint64, gender model.Gender, age int) *model.User {
	t.Helper()
	return mysqltest.SeedUser(t, e.db, id, gender, age)
}

func crewInput(name string) CrewInput {
	return CrewInput{
		Name:   name,
		MinAge: 15,
		MaxAge: 30,
		Gender: model.CrewGenderAny,
		Tags:   []string{"boulder"},
	}
}

// newCrew 通过业务层创建，creatorID 对应的用户需要已存在
func (e *testEnv) newCrew(t *testing.T, creatorID uint64, name string, mutate func(*CrewInput)) *model.Crew {
	t.Helper()
	in := crewInput(name)
	if mutate != nil {
		mutate(&in)
	}
	crew, err := e.crews.CreateCrew(context.Background(), creatorID, in, nil)
	require.NoError(t, err)
	return crew
}

func (e *testEnv) count(t *testing.T, m any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}

func (e *testEnv) isMember(t *testing.T, crewID, userID uint64) bool {
	return e.count(t, &model.CrewMember{}, "crew_id = ? AND user_id = ?", crewID, userID) == 1
}

func (e *testEnv) hasApplied(t *testing.T, crewID, userID uint64) bool {
	return e.count(t, &model.CrewApplication{}, "crew_id = ? AND user_id = ?", crewID, userID) == 1
}

func (e *testEnv) reload(t *testing.T, crewID uint64) *model.Crew {
	t.Helper()
	var c model.Crew
	require.NoError(t, e.db.First(&c, crewID).Error)
	return &c
}
