package mysql

import (
	"context"
	"encoding/json"
	"time"

	"Crew_Community/internal/model"

	"gorm.io/gorm"
)

const outboxMaxRetry = 5

type OutboxRepository struct {
	DB *gorm.DB
}

// Insert 插入 outbox 事件，调用方负责放在状态变更的同一事务里
func (r *OutboxRepository) Insert(ctx context.Context, event string, crewID, userID, actorID uint64) error {
	payload, _ := json.Marshal(map[string]any{
		"event":      event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"crew_id":    crewID,
		"user_id":    userID,
		"actor_id":   actorID,
	})
	return conn(ctx, r.DB).Create(&model.CrewOutbox{
		EventType: event,
		CrewID:    crewID,
		UserID:    userID,
		ActorID:   actorID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}).Error
}

// List 查询待投递和可重试的事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.CrewOutbox, error) {
	var list []model.CrewOutbox
	if err := conn(ctx, r.DB).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, outboxMaxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败，记录重试次数
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return conn(ctx, r.DB).Model(&model.CrewOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return conn(ctx, r.DB).Model(&model.CrewOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
