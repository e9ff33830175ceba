// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatstore owns persisted conversation history.  History is
// append-only: turns are inserted with a monotonically increasing index
// per session and are never updated or removed except by deleting the
// whole session.
package chatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
)

// Store is the history persistence contract shared by the sqlite and
// bucket implementations.
type Store interface {
	GetHistory(ctx context.Context, sessionId string) ([]dispatch.Turn, error)
	AppendTurns(ctx context.Context, sessionId string, turns []dispatch.Turn) error
	ListSessions(ctx context.Context) ([]string, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

type turnRow struct {
	SessionId string `db:"sessionid"`
	TurnIdx   int    `db:"turnidx"`
	Role      string `db:"role"`
	Parts     string `db:"parts"`
	CreatedTs int64  `db:"createdts"`
}

func (s *SQLiteStore) GetHistory(ctx context.Context, sessionId string) ([]dispatch.Turn, error) {
	return WithTxRtn(ctx, s, func(tx *TxWrap) ([]dispatch.Turn, error) {
		var rows []turnRow
		query := `SELECT sessionid, turnidx, role, parts, createdts FROM db_turn WHERE sessionid = ? ORDER BY turnidx`
		tx.Select(&rows, query, sessionId)
		rtn := make([]dispatch.Turn, 0, len(rows))
		for _, row := range rows {
			var parts []dispatch.Part
			if err := json.Unmarshal([]byte(row.Parts), &parts); err != nil {
				return nil, fmt.Errorf("bad parts json in session %s turn %d: %w", sessionId, row.TurnIdx, err)
			}
			rtn = append(rtn, dispatch.Turn{Role: row.Role, Parts: parts})
		}
		return rtn, nil
	})
}

func (s *SQLiteStore) AppendTurns(ctx context.Context, sessionId string, turns []dispatch.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(tx *TxWrap) error {
		now := time.Now().UnixMilli()
		query := `SELECT sessionid FROM db_session WHERE sessionid = ?`
		if !tx.Exists(query, sessionId) {
			query = `INSERT INTO db_session (sessionid, createdts, updatedts) VALUES (?, ?, ?)`
			tx.Exec(query, sessionId, now, now)
		} else {
			query = `UPDATE db_session SET updatedts = ? WHERE sessionid = ?`
			tx.Exec(query, now, sessionId)
		}
		query = `SELECT COALESCE(max(turnidx)+1, 0) FROM db_turn WHERE sessionid = ?`
		nextIdx := tx.GetInt(query, sessionId)
		for i, turn := range turns {
			query = `INSERT INTO db_turn (sessionid, turnidx, role, parts, createdts) VALUES (?, ?, ?, ?, ?)`
			tx.Exec(query, sessionId, nextIdx+i, turn.Role, TxJson(tx, turn.Parts), now)
		}
		return nil
	})
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]string, error) {
	return WithTxRtn(ctx, s, func(tx *TxWrap) ([]string, error) {
		query := `SELECT sessionid FROM db_session ORDER BY updatedts DESC`
		return tx.SelectStrings(query), nil
	})
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionId string) error {
	return s.WithTx(ctx, func(tx *TxWrap) error {
		query := `DELETE FROM db_turn WHERE sessionid = ?`
		tx.Exec(query, sessionId)
		query = `DELETE FROM db_session WHERE sessionid = ?`
		tx.Exec(query, sessionId)
		return nil
	})
}
