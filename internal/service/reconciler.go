package service

import (
	"context"
	"time"

	"Crew_Community/internal/metrics"
	"Crew_Community/internal/pkg"
	"Crew_Community/internal/repository/mysql"
)

type MemberCountStore interface {
	ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]mysql.Pair, uint64, error)
	RealMemberCount(ctx context.Context, crewID uint64) (int64, error)
	SetMemberCount(ctx context.Context, crewID uint64, n int64) error
}

// MemberCountReconciler 以 crew_members 表为准修正 member_count
type MemberCountReconciler struct {
	repo      MemberCountStore
	lock      Locker
	log       *pkg.Logger
	batchSize int
	interval  time.Duration
}

func NewMemberCountReconciler(repo MemberCountStore, lock Locker, log *pkg.Logger, interval time.Duration) *MemberCountReconciler {
	if log == nil {
		log = pkg.NopLogger()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MemberCountReconciler{
		repo:      repo,
		lock:      lock,
		log:       log.With("service", "MemberCountReconciler"),
		batchSize: 500,
		interval:  interval,
	}
}

// Run 对账定时任务启动器
func (r *MemberCountReconciler) Run(ctx context.Context) {
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

func (r *MemberCountReconciler) tick(ctx context.Context) {
	if r.lock != nil {
		release, err := r.lock.TryLock(ctx, "reconcile", r.interval)
		if err != nil {
			r.log.Warn("reconcile lock failed", "err", err)
			return
		}
		if release == nil {
			return
		}
		defer release()
	}
	if fixed := r.ReconcileOnce(ctx); fixed > 0 {
		r.log.Info("member counts reconciled", "fixed", fixed)
	}
}

// ReconcileOnce 按 id 分批扫描全表，返回修正的克鲁数
func (r *MemberCountReconciler) ReconcileOnce(ctx context.Context) int {
	fixed := 0
	var lastID uint64
	for {
		crews, next, err := r.repo.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			r.log.Error("reconcile list failed", "last_id", lastID, "err", err)
			return fixed
		}
		if len(crews) == 0 {
			return fixed
		}
		for _, c := range crews {
			actual, err := r.repo.RealMemberCount(ctx, c.ID)
			if err != nil {
				r.log.Warn("count crew members failed", "crew_id", c.ID, "err", err)
				continue
			}
			if actual == c.MemberCount {
				continue
			}
			if err := r.repo.SetMemberCount(ctx, c.ID, actual); err != nil {
				r.log.Warn("set member count failed", "crew_id", c.ID, "err", err)
				continue
			}
			metrics.RecordReconcileFix()
			fixed++
		}
		lastID = next
	}
}
