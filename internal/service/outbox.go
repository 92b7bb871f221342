package service

import (
	"context"
	"time"

	"Crew_Community/internal/metrics"
	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"github.com/segmentio/kafka-go"
)

type OutboxQueue interface {
	List(ctx context.Context, batchSize int) ([]model.CrewOutbox, error)
	RetryUpdate(ctx context.Context, id uint64) error
	SuccessUpdate(ctx context.Context, id uint64) error
}

type Sender func(ctx context.Context, ob *model.CrewOutbox) error

// OutboxRelayer 从 crew_outbox 表读取事件并投递
type OutboxRelayer struct {
	repo      OutboxQueue
	sender    Sender
	lock      Locker
	log       *pkg.Logger
	batchSize int
	interval  time.Duration
}

func NewOutboxRelayer(repo OutboxQueue, sender Sender, lock Locker, log *pkg.Logger, interval time.Duration) *OutboxRelayer {
	if log == nil {
		log = pkg.NopLogger()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      repo,
		sender:    sender,
		lock:      lock,
		log:       log.With("service", "OutboxRelayer"),
		batchSize: 200,
		interval:  interval,
	}
}

// Run outbox 启动器，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *OutboxRelayer) tick(ctx context.Context) {
	if r.lock != nil {
		release, err := r.lock.TryLock(ctx, "outbox", r.interval*5)
		if err != nil {
			r.log.Warn("outbox lock failed", "err", err)
			return
		}
		if release == nil {
			return
		}
		defer release()
	}
	r.DrainOnce(ctx)
}

// DrainOnce 投递一批，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query failed", "err", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			metrics.RecordOutboxDelivery(false)
			r.log.Warn("outbox send failed", "id", ob.ID, "event", ob.EventType, "retry", ob.Retry, "err", err)
			if err := r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				r.log.Error("outbox retry update failed", "id", ob.ID, "err", err)
			}
			continue
		}
		metrics.RecordOutboxDelivery(true)
		if err := r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.Error("outbox success update failed", "id", ob.ID, "err", err)
			continue
		}
		sent++
	}
	return sent
}

// LogSender 未配置 Kafka 时使用
func LogSender(log *pkg.Logger) Sender {
	return func(ctx context.Context, ob *model.CrewOutbox) error {
		log.Info("outbox send", "event", ob.EventType, "crew_id", ob.CrewID, "user_id", ob.UserID, "payload", ob.Payload)
		return nil
	}
}

// KafkaSender 以克鲁 id 为 key，同一克鲁的事件保持顺序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.CrewOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.CrewID), []byte(ob.Payload),
			kafka.Header{Key: "event", Value: []byte(ob.EventType)})
	}
}
