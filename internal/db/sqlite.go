package db

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// UserRow строка таблицы users.
type UserRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserRow) TableName() string { return "users" }

// LinkRow строка таблицы links.
type LinkRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	OwnerID   string    `gorm:"not null;index:idx_links_owner_created,priority:1;size:36"`
	LongURL   string    `gorm:"not null"`
	ShortID   string    `gorm:"not null;uniqueIndex;size:32"`
	Alias     *string   `gorm:"size:32"`
	Clicks    int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"index:idx_links_owner_created,priority:2"`
	UpdatedAt time.Time
	History   []ClickRow `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE"`
}

func (LinkRow) TableName() string { return "links" }

// ClickRow количество переходов по ссылке за день.
type ClickRow struct {
	LinkID string    `gorm:"primaryKey;size:36"`
	Day    time.Time `gorm:"primaryKey"`
	Count  int64     `gorm:"not null"`
}

func (ClickRow) TableName() string { return "link_clicks" }

func NewSQLite(dbPath string) (*gorm.DB, error) {
	conn, connErr := connectSQLite(dbPath)
	if connErr != nil {
		return nil, fmt.Errorf("init database error: %w", connErr)
	}
	if migrateErr := migrateSQLite(conn); migrateErr != nil {
		return nil, fmt.Errorf("migrate database error: %w", migrateErr)
	}
	return conn, nil
}

func connectSQLite(dbPath string) (*gorm.DB, error) {
	// foreign_keys нужен для каскадного удаления истории переходов,
	// busy_timeout - чтобы параллельные транзакции ждали блокировку, а не падали с SQLITE_BUSY.
	dsn := dbPath + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect database with path %s error: %w", dbPath, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	// sqlite допускает одного писателя.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func migrateSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserRow{}, &LinkRow{}, &ClickRow{}); err != nil {
		return fmt.Errorf("migrating sql: %w", err)
	}
	return nil
}
