package mysql

import (
	"context"
	"errors"
	"fmt"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CrewRepository struct {
	DB *gorm.DB
}

func (r *CrewRepository) Create(ctx context.Context, c *model.Crew) error {
	if err := conn(ctx, r.DB).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkg.ErrDuplicateCrewName
		}
		return err
	}
	return nil
}

// Save 更新可修改的字段，creator_id 与计数字段不在此更新
func (r *CrewRepository) Save(ctx context.Context, c *model.Crew) error {
	err := conn(ctx, r.DB).Model(&model.Crew{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":                c.Name,
			"description":         c.Description,
			"icon":                c.Icon,
			"min_age":             c.MinAge,
			"max_age":             c.MaxAge,
			"gender":              c.Gender,
			"permission_required": c.PermissionRequired,
			"answer_required":     c.AnswerRequired,
			"question":            c.Question,
		}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkg.ErrDuplicateCrewName
	}
	return err
}

func (r *CrewRepository) FindByID(ctx context.Context, id uint64) (*model.Crew, error) {
	var crew model.Crew
	err := conn(ctx, r.DB).First(&crew, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.ErrCrewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

// FindByIDForUpdate 事务内加行锁读取，申请与修改克鲁信息在这把锁上串行
func (r *CrewRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Crew, error) {
	var crew model.Crew
	err := conn(ctx, r.DB).Clauses(clause.Locking{Strength: "UPDATE"}).First(&crew, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.ErrCrewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

// ExistsByName excludeID 为 0 时不排除任何克鲁
func (r *CrewRepository) ExistsByName(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var count int64
	q := conn(ctx, r.DB).Model(&model.Crew{}).Where("name = ?", name)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// Delete 硬删除克鲁及其全部从属数据，应在事务中调用
func (r *CrewRepository) Delete(ctx context.Context, id uint64) error {
	db := conn(ctx, r.DB)
	meetingIDs := db.Model(&model.Meeting{}).Select("id").Where("crew_id = ?", id)
	if err := db.Where("meeting_id IN (?)", meetingIDs).Delete(&model.MeetingMember{}).Error; err != nil {
		return fmt.Errorf("delete meeting members: %w", err)
	}
	steps := []struct {
		name  string
		model any
		where string
	}{
		{"meetings", &model.Meeting{}, "crew_id = ?"},
		{"applications", &model.CrewApplication{}, "crew_id = ?"},
		{"members", &model.CrewMember{}, "crew_id = ?"},
		{"tags", &model.CrewTag{}, "crew_id = ?"},
		{"crew", &model.Crew{}, "id = ?"},
	}
	for _, s := range steps {
		if err := db.Where(s.where, id).Delete(s.model).Error; err != nil {
			return fmt.Errorf("delete %s: %w", s.name, err)
		}
	}
	return nil
}

func (r *CrewRepository) AddMemberCount(ctx context.Context, crewID uint64, delta int64) error {
	return r.addCount(ctx, crewID, "member_count", delta)
}

func (r *CrewRepository) AddMeetingCount(ctx context.Context, crewID uint64, delta int64) error {
	return r.addCount(ctx, crewID, "meeting_count", delta)
}

// addCount 计数不小于 0，偏差由对账任务兜底
func (r *CrewRepository) addCount(ctx context.Context, crewID uint64, column string, delta int64) error {
	if delta == 0 {
		return nil
	}
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", column), delta, delta)
	return conn(ctx, r.DB).Model(&model.Crew{}).
		Where("id = ?", crewID).
		UpdateColumn(column, expr).Error
}

func (r *CrewRepository) ListBySort(ctx context.Context, sort model.CrewSort, offset, limit int) ([]model.Crew, int64, error) {
	var order string
	switch sort {
	case model.CrewSortPopular:
		order = "member_count DESC, id DESC"
	case model.CrewSortActive:
		order = "meeting_count DESC, updated_at DESC, id DESC"
	case model.CrewSortLatest:
		order = "created_at DESC, id DESC"
	default:
		return nil, 0, fmt.Errorf("unsupported crew sort %d", sort)
	}
	return r.page(ctx, func(db *gorm.DB) *gorm.DB { return db }, order, offset, limit)
}

// ListRecommended 只返回性别、年龄都符合条件的克鲁；ANY 性别的克鲁总是符合
func (r *CrewRepository) ListRecommended(ctx context.Context, gender model.Gender, age, offset, limit int) ([]model.Crew, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("(gender = ? OR gender = ?) AND min_age <= ? AND max_age >= ?",
			string(gender), string(model.CrewGenderAny), age, age)
	}
	return r.page(ctx, scope, "member_count DESC, created_at DESC, id DESC", offset, limit)
}

func (r *CrewRepository) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, order string, offset, limit int) ([]model.Crew, int64, error) {
	var total int64
	if err := conn(ctx, r.DB).Model(&model.Crew{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Crew
	err := conn(ctx, r.DB).Scopes(scope).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

// ListJoinedByUser 用户已加入的克鲁，按加入时间倒序
func (r *CrewRepository) ListJoinedByUser(ctx context.Context, userID uint64) ([]model.Crew, error) {
	var list []model.Crew
	err := conn(ctx, r.DB).Select("crews.*").
		Joins("JOIN crew_members m ON m.crew_id = crews.id").
		Where("m.user_id = ?", userID).
		Order("m.created_at DESC, crews.id DESC").
		Find(&list).Error
	return list, err
}

// ListAppliedByUser 用户申请中的克鲁，按申请时间倒序
func (r *CrewRepository) ListAppliedByUser(ctx context.Context, userID uint64) ([]model.Crew, error) {
	var list []model.Crew
	err := conn(ctx, r.DB).Select("crews.*").
		Joins("JOIN crew_applications a ON a.crew_id = crews.id").
		Where("a.user_id = ?", userID).
		Order("a.created_at DESC, crews.id DESC").
		Find(&list).Error
	return list, err
}

// Pair 对账用
type Pair struct {
	ID          uint64
	MemberCount int64
}

// ReconcileList 按 id 分批读取计数
func (r *CrewRepository) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]Pair, uint64, error) {
	var list []Pair
	if err := conn(ctx, r.DB).Model(&model.Crew{}).
		Select("id", "member_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealMemberCount 以 crew_members 表为准
func (r *CrewRepository) RealMemberCount(ctx context.Context, crewID uint64) (int64, error) {
	var n int64
	err := conn(ctx, r.DB).Model(&model.CrewMember{}).Where("crew_id = ?", crewID).Count(&n).Error
	return n, err
}

func (r *CrewRepository) SetMemberCount(ctx context.Context, crewID uint64, n int64) error {
	return conn(ctx, r.DB).Model(&model.Crew{}).Where("id = ?", crewID).
		UpdateColumn("member_count", n).Error
}
