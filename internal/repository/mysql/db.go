package mysql

import (
	"context"
	"errors"
	"fmt"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 打开 MySQL 连接；TranslateError 让唯一键冲突统一成 gorm.ErrDuplicatedKey
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}

// AutoMigrate 自动建表（开发阶段 OK）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Crew{},
		&model.CrewTag{},
		&model.CrewMember{},
		&model.CrewApplication{},
		&model.Meeting{},
		&model.MeetingMember{},
		&model.CrewOutbox{},
	)
}

type txKey struct{}

// Transactor 把 *gorm.DB 事务放进 context，仓储通过 conn 取用，
// 这样业务层可以把多次仓储调用组合成一个原子单元
type Transactor struct {
	DB *gorm.DB
}

func (t *Transactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		// 已在事务中，直接复用
		return fn(ctx)
	}
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// translate 唯一键冲突视为并发重复操作
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkg.ErrDuplicateTransition
	}
	return err
}
