package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Keys of the persisted client state. Each value is a JSON-serialized array.
const (
	KeyCart            = "cart"
	KeySaved           = "saved"
	KeyWishlist        = "wishlist"
	KeyOrders          = "orders"
	KeyPurchaseHistory = "purchase_history"
	KeyLastPurchase    = "last_purchase"
)

type entry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value []byte `gorm:"column:value"`
}

func (entry) TableName() string { return "client_state" }

// Store is the durable key/value state store. It is the only authority over
// cart, wishlist and order state; concurrent writers go through Txn so every
// mutation re-reads the stored value before writing.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open connects to postgres when dsn is set, otherwise to a local sqlite file.
func Open(dsn, path string, log *slog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	if dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate state store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Tx exposes reads and writes inside a single transaction.
type Tx struct {
	tx  *gorm.DB
	log *slog.Logger
}

// Txn runs fn in one transaction. Status timers and multi-key cart moves use
// this so two concurrent views never write from stale state.
func (s *Store) Txn(fn func(tx *Tx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{tx: tx, log: s.log})
	})
}

// Read decodes the value under key into out. A missing key or a corrupt value
// yields the zero default, never an error.
func (t *Tx) Read(key string, out any) {
	var e entry
	if err := t.tx.First(&e, "key = ?", key).Error; err != nil {
		return
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		t.log.Warn("corrupt state value, using empty default", "key", key, "error", err)
	}
}

func (t *Tx) Write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	return t.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry{Key: key, Value: data}).Error
}

func (s *Store) Read(key string, out any) {
	(&Tx{tx: s.db, log: s.log}).Read(key, out)
}

func (s *Store) Write(key string, v any) error {
	return (&Tx{tx: s.db, log: s.log}).Write(key, v)
}
