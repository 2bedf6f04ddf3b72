package catalog

import (
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	gormv2logrus "github.com/thomas-tacquet/gormv2-logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormLogger bridges gorm messages into the standard logrus logger
func NewGormLogger() *gormv2logrus.Gormlog {
	return gormv2logrus.NewGormlog(
		gormv2logrus.WithLogrus(log.StandardLogger()),
		gormv2logrus.WithGormOptions(
			gormv2logrus.GormOptions{
				SlowThreshold: 800 * time.Millisecond,
				LogLevel:      logger.LogLevel(log.GetLevel()),
				LogLatency:    true,
			},
		),
	)
}

func NewConnection(dbPath string) (db *gorm.DB, err error) {
	db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: NewGormLogger()})
	if err != nil {
		return nil, err
	}
	// close sqlite sync to improve performance
	err = db.Exec("PRAGMA synchronous = OFF").Error
	if err != nil {
		CloseConnection(db)
		return nil, err
	}
	return db, nil
}

func CloseConnection(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
