// Package mysqltest 提供基于内存 SQLite 的 gorm 连接，只供测试使用
package mysqltest

import (
	"strconv"
	"testing"
	"time"

	"Crew_Community/internal/model"
	"Crew_Community/internal/repository/mysql"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 单连接的内存库，事务与唯一键约束都是真实的
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, mysql.AutoMigrate(db))
	return db
}

// SeedUser 写入一个指定年龄的用户
func SeedUser(t *testing.T, db *gorm.DB, id uint64, gender model.Gender, age int) *model.User {
	t.Helper()
	u := &model.User{
		ID:           id,
		Nickname:     "user",
		Gender:       gender,
		Birthday:     time.Now().AddDate(-age, 0, -1),
		ProfileImage: "profile-" + strconv.FormatUint(id, 10),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedCrew 直接写入克鲁及创建者成员行，不经过业务层
func SeedCrew(t *testing.T, db *gorm.DB, c *model.Crew) *model.Crew {
	t.Helper()
	if c.Gender == "" {
		c.Gender = model.CrewGenderAny
	}
	if c.MaxAge == 0 {
		c.MaxAge = 100
	}
	c.MemberCount = 1
	require.NoError(t, db.Create(c).Error)
	require.NoError(t, db.Create(&model.CrewMember{CrewID: c.ID, UserID: c.CreatorID}).Error)
	return c
}
