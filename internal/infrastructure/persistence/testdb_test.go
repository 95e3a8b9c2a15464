package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&DeviceModel{},
		&AppModel{},
		&UsageEventModel{},
		&DailySnapshotModel{},
		&GoalModel{},
		&AppCategoryModel{},
		&CategoryAppModel{},
		&AppLimitModel{},
	)
	require.NoError(t, err)

	return db
}
