// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package chatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sawka/txwrap"

	dbfs "github.com/chatstudiodev/chatstudio/db"
	"github.com/chatstudiodev/chatstudio/pkg/studiobase"
	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
)

const ChatStoreDBName = "chatstudio.db"

type TxWrap = txwrap.TxWrap

// SQLiteStore persists conversation history to a local sqlite database.
// It implements Store.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

func GetDBName() string {
	return path.Join(studiobase.GetStudioDBDir(), ChatStoreDBName)
}

func InitSQLiteStore(ctx context.Context) (*SQLiteStore, error) {
	err := studiobase.EnsureStudioDBDir()
	if err != nil {
		return nil, err
	}
	db, err := MakeDB(ctx, GetDBName())
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db}
	err = store.Migrate()
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("chatstore initialized at %s\n", GetDBName())
	return store, nil
}

func MakeDB(ctx context.Context, dbName string) (*sqlx.DB, error) {
	rtn, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbName))
	if err != nil {
		return nil, err
	}
	rtn.DB.SetMaxOpenConns(1)
	return rtn, nil
}

func (s *SQLiteStore) Migrate() error {
	fsVar, err := iofs.New(dbfs.ChatstoreMigrationFS, "migrations-chatstore")
	if err != nil {
		return fmt.Errorf("opening iofs: %w", err)
	}
	mdriver, err := sqlite3migrate.WithInstance(s.db.DB, &sqlite3migrate.Config{})
	if err != nil {
		return fmt.Errorf("making chatstore migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", fsVar, "sqlite3", mdriver)
	if err != nil {
		return fmt.Errorf("making chatstore migration db: %w", err)
	}
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrating chatstore: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx *TxWrap) error) error {
	return txwrap.WithTx(ctx, s.db, fn)
}

func WithTxRtn[RT any](ctx context.Context, s *SQLiteStore, fn func(tx *TxWrap) (RT, error)) (RT, error) {
	return txwrap.WithTxRtn(ctx, s.db, fn)
}

func TxJson(tx *TxWrap, v any) string {
	barr, err := json.Marshal(v)
	if err != nil {
		tx.SetErr(fmt.Errorf("json marshal (%T): %w", v, err))
		return ""
	}
	return string(barr)
}
