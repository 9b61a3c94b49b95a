package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/SerxWco/OG88/internal/alerts"
	"github.com/SerxWco/OG88/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	// Configure GORM logger
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs GORM auto-migration (for development only)
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(
		&Subscription{},
		&AlertEvent{},
	)
}

// SaveSubscription persists a chat's subscription to an alert stream
func (db *DB) SaveSubscription(ctx context.Context, kind string, chatID int64) error {
	sub := Subscription{
		Kind:   kind,
		ChatID: chatID,
	}
	result := db.conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sub)
	return result.Error
}

// RemoveSubscription deletes a chat's subscription to an alert stream
func (db *DB) RemoveSubscription(ctx context.Context, kind string, chatID int64) error {
	result := db.conn.WithContext(ctx).
		Where("kind = ? AND chat_id = ?", kind, chatID).
		Delete(&Subscription{})
	return result.Error
}

// LoadSubscriptions returns all persisted subscriptions grouped by kind
func (db *DB) LoadSubscriptions(ctx context.Context) (map[string][]int64, error) {
	var subs []Subscription
	result := db.conn.WithContext(ctx).Find(&subs)
	if result.Error != nil {
		return nil, result.Error
	}

	out := make(map[string][]int64)
	for _, sub := range subs {
		out[sub.Kind] = append(out[sub.Kind], sub.ChatID)
	}
	return out, nil
}

// InsertAlert inserts a new alert event record
func (db *DB) InsertAlert(ctx context.Context, event *alerts.Event) error {
	row := AlertEvent{
		Kind:            string(event.Kind),
		TransactionHash: event.TransactionHash,
		LogIndex:        event.LogIndex,
		FromAddress:     event.From,
		ToAddress:       event.To,
		Amount:          event.Amount.String(),
		USDValue:        event.USDValue.String(),
		WCOValue:        event.WCOValue.String(),
		Method:          event.Method,
	}
	if !event.Timestamp.IsZero() {
		row.TransferTS = event.Timestamp.Unix()
	}
	result := db.conn.WithContext(ctx).Create(&row)
	return result.Error
}

// RecentAlerts returns the latest stored alert events for a kind, newest first
func (db *DB) RecentAlerts(ctx context.Context, kind string, limit int) ([]AlertEvent, error) {
	var events []AlertEvent
	result := db.conn.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_ts DESC").
		Limit(limit).
		Find(&events)
	return events, result.Error
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
