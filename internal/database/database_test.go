package database_test

import (
	"testing"

	"github.com/mautops/fieldops-gin/internal/config"
	"github.com/mautops/fieldops-gin/internal/database"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestMigrateAndSeed 迁移建表建索引并写入状态目录
func TestMigrateAndSeed(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedStates(db))

	var states []model.OrderStateModel
	require.NoError(t, db.Order("display_order ASC").Find(&states).Error)
	require.Len(t, states, 7)
	assert.Equal(t, "SCHEDULED", states[0].Code)
	assert.False(t, states[0].IsTerminal)
	assert.Equal(t, "CANCELLED", states[6].Code)
	assert.True(t, states[6].IsTerminal)

	// 种子可以重复执行,upsert 语义
	require.NoError(t, database.SeedStates(db))
	var count int64
	require.NoError(t, db.Model(&model.OrderStateModel{}).Count(&count).Error)
	assert.Equal(t, int64(7), count)
}

// TestBuildDSN DSN 拼装
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "fieldops",
		Password: "secret",
		DBName:   "fieldops",
		SSLMode:  "require",
	})
	assert.Contains(t, dsn, "host=db.example.com")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "dbname=fieldops")
	assert.Contains(t, dsn, "sslmode=require")
}

// TestCheckHealth 空连接视为不健康
func TestCheckHealth(t *testing.T) {
	assert.False(t, database.CheckHealth(nil))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.True(t, database.CheckHealth(db))
}
