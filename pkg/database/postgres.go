// pkg/database/postgres.go
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"MoonSniper/pkg/config"
	"MoonSniper/pkg/model"
)

// Database 预警历史库
type Database struct {
	db *gorm.DB
}

// NewDatabase 连接Postgres并迁移历史表
func NewDatabase(cfg *config.Config) (*Database, error) {
	pg := cfg.Database.Postgres

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&model.AlertEvent{}, &model.NotificationRecord{}); err != nil {
		return nil, fmt.Errorf("迁移历史表失败: %w", err)
	}

	return &Database{db: db}, nil
}

// Close 关闭数据库连接
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveAlertEvent 保存预警事件
func (d *Database) SaveAlertEvent(event *model.AlertEvent) error {
	if err := d.db.Create(event).Error; err != nil {
		return fmt.Errorf("保存预警事件失败: %w", err)
	}
	return nil
}

// SaveNotificationRecords 批量保存投递记录
func (d *Database) SaveNotificationRecords(records []model.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := d.db.Create(&records).Error; err != nil {
		return fmt.Errorf("保存投递记录失败: %w", err)
	}
	return nil
}

// GetAlertHistory 查询预警历史，ticker为空时返回全部
func (d *Database) GetAlertHistory(ticker string, limit int) ([]model.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := d.db.Order("created_at DESC").Limit(limit)
	if ticker != "" {
		query = query.Where("ticker = ?", ticker)
	}

	var events []model.AlertEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("查询预警历史失败: %w", err)
	}
	return events, nil
}

// GetEventsSince 查询某时间点之后的预警事件，用于每日总结
func (d *Database) GetEventsSince(since time.Time) ([]model.AlertEvent, error) {
	var events []model.AlertEvent
	if err := d.db.Where("created_at >= ?", since).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("查询预警事件失败: %w", err)
	}
	return events, nil
}
