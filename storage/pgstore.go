// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitmark-inc/logger"

	"github.com/bvault/bvaultd/account"
	"github.com/bvault/bvaultd/baltop"
	"github.com/bvault/bvaultd/iopool"
)

// schema matches the file backed layout: one row per identity and
// bank, plus the set of banks seen so far
var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS player_balances (
	    uuid UUID NOT NULL,
	    nickname VARCHAR(36) NOT NULL DEFAULT '',
	    bank VARCHAR(16) NOT NULL,
	    balance DOUBLE PRECISION NOT NULL,
	    PRIMARY KEY (uuid, bank)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bank_balance ON player_balances (bank, balance DESC)`,
	`CREATE TABLE IF NOT EXISTS banks (bank_name VARCHAR(16) PRIMARY KEY)`,
}

const (
	pgUpsertBalance = `
	    INSERT INTO player_balances (uuid, nickname, bank, balance)
	    VALUES ($1, $2, $3, $4)
	    ON CONFLICT (uuid, bank) DO UPDATE SET
	        balance = excluded.balance,
	        nickname = CASE WHEN '' <> excluded.nickname
	                        THEN excluded.nickname
	                        ELSE player_balances.nickname END`

	pgSelectBalances = `
	    SELECT bank, balance, nickname
	    FROM player_balances
	    WHERE uuid = $1`

	pgSelectTop = `
	    SELECT uuid, nickname, balance
	    FROM player_balances
	    WHERE bank = $1
	    ORDER BY balance DESC, uuid ASC
	    LIMIT $2`

	pgInsertBank = `
	    INSERT INTO banks (bank_name) VALUES ($1)
	    ON CONFLICT DO NOTHING`

	pgSelectBanks = `SELECT bank_name FROM banks`

	pgDeleteBank = `DELETE FROM player_balances WHERE bank = $1`
)

// Postgres - SQL backed store
//
// same caller visible behaviour as the file backed store, with the
// durable state in a postgresql server
type Postgres struct {
	log         *logger.L
	db          *pgxpool.Pool
	pool        *iopool.Pool
	tiers       *tiers
	banks       *bankSet
	top         *baltop.BalTop
	defaultBank string
}

// NewPostgres - connect, create missing tables and seed the leaderboard
func NewPostgres(url string, cfg Config, top *baltop.BalTop, connected ConnectedProbe) (*Postgres, error) {

	log := logger.New("storage")
	ctx := context.Background()

	db, err := pgxpool.New(ctx, url)
	if nil != err {
		return nil, err
	}
	for _, statement := range pgSchema {
		if _, err := db.Exec(ctx, statement); nil != err {
			db.Close()
			return nil, err
		}
	}

	t, err := newTiers(cfg.CacheLifetime, cfg.SweepInterval, connected)
	if nil != err {
		db.Close()
		return nil, err
	}

	s := &Postgres{
		log:         log,
		db:          db,
		pool:        iopool.New("storage", cfg.Workers),
		tiers:       t,
		banks:       newBankSet(),
		top:         top,
		defaultBank: cfg.defaultBank(),
	}

	if err := s.seed(ctx); nil != err {
		s.Close()
		return nil, err
	}

	log.Infof("connected  banks: %d", len(s.banks.all()))
	return s, nil
}

func (s *Postgres) seed(ctx context.Context) error {
	rows, err := s.db.Query(ctx, pgSelectBanks)
	if nil != err {
		return err
	}
	for rows.Next() {
		bankName := ""
		if err := rows.Scan(&bankName); nil != err {
			rows.Close()
			return err
		}
		s.banks.add(bankName)
	}
	rows.Close()
	if err := rows.Err(); nil != err {
		return err
	}

	if s.banks.add(s.defaultBank) {
		if _, err := s.db.Exec(ctx, pgInsertBank, s.defaultBank); nil != err {
			return err
		}
	}

	if nil == s.top {
		return nil
	}
	for bankName := range s.banks.all() {
		entries, err := s.topEntries(ctx, bankName, s.top.TopSize())
		if nil != err {
			return err
		}
		s.top.SetTop(bankName, entries)
	}
	return nil
}

// GetAccount - fetch an account, loading it from the server on a miss
func (s *Postgres) GetAccount(id uuid.UUID) <-chan GetResult {
	if a := s.tiers.lookup(id); nil != a {
		ch := make(chan GetResult, 1)
		ch <- GetResult{Account: a}
		return ch
	}

	ch := make(chan GetResult, 1)
	s.pool.Submit(func() {
		a, err := s.loadAccount(id)
		if nil != err {
			s.log.Errorf("load account: %s  error: %s", id, err)
			ch <- GetResult{Err: err}
			return
		}
		ch <- GetResult{Account: s.tiers.admit(a)}
	})
	return ch
}

func (s *Postgres) loadAccount(id uuid.UUID) (*account.Account, error) {
	rows, err := s.db.Query(context.Background(), pgSelectBalances, id)
	if nil != err {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[string]float64)
	displayName := ""
	for rows.Next() {
		bankName := ""
		balance := 0.0
		nickname := ""
		if err := rows.Scan(&bankName, &balance, &nickname); nil != err {
			return nil, err
		}
		balances[bankName] = balance
		if "" != nickname {
			displayName = nickname
		}
	}
	if err := rows.Err(); nil != err {
		return nil, err
	}
	return account.NewWithBalances(id, balances, displayName), nil
}

// WriteBalance - queue one balance for persistence
//
// the leaderboard is told about the new balance either way
func (s *Postgres) WriteBalance(id uuid.UUID, bankName string, balance float64, displayName string) {
	if nil != s.top {
		s.top.UpdateBalance(id, balance, bankName, displayName)
	}
	newBank := s.banks.add(bankName)
	s.pool.Submit(func() {
		ctx := context.Background()
		if newBank {
			if _, err := s.db.Exec(ctx, pgInsertBank, bankName); nil != err {
				s.log.Errorf("register bank: %s: %s", bankName, err)
			}
		}
		if _, err := s.db.Exec(ctx, pgUpsertBalance, id, displayName, bankName, balance); nil != err {
			s.log.Errorf("write balance: %s %s: %s", id, bankName, err)
		}
	})
}

// KnownBanks - every bank that ever held a balance
func (s *Postgres) KnownBanks() map[string]struct{} {
	return s.banks.all()
}

// TopByBank - the highest balances of one bank straight from the server
func (s *Postgres) TopByBank(bankName string, limit int) <-chan TopResult {
	ch := make(chan TopResult, 1)
	s.pool.Submit(func() {
		entries, err := s.topEntries(context.Background(), bankName, limit)
		if nil != err {
			s.log.Errorf("top by bank: %s: %s", bankName, err)
		}
		ch <- TopResult{Entries: entries, Err: err}
	})
	return ch
}

func (s *Postgres) topEntries(ctx context.Context, bankName string, limit int) ([]baltop.Entry, error) {
	rows, err := s.db.Query(ctx, pgSelectTop, bankName, limit)
	if nil != err {
		return nil, err
	}
	defer rows.Close()

	entries := []baltop.Entry{}
	for rows.Next() {
		e := baltop.Entry{}
		if err := rows.Scan(&e.Id, &e.DisplayName, &e.Balance); nil != err {
			return nil, err
		}
		e.Rank = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); nil != err {
		return nil, err
	}
	for len(entries) < limit {
		entries = append(entries, baltop.Empty)
	}
	return entries, nil
}

// WipeBank - erase one bank everywhere
func (s *Postgres) WipeBank(bankName string) <-chan error {
	ch := make(chan error, 1)
	s.pool.Submit(func() {
		if _, err := s.db.Exec(context.Background(), pgDeleteBank, bankName); nil != err {
			s.log.Errorf("wipe bank: %s: %s", bankName, err)
			ch <- err
			return
		}
		s.tiers.forEach(func(a *account.Account) {
			a.RemoveBank(bankName)
		})
		if nil != s.top {
			s.top.ClearBank(bankName)
		}
		ch <- nil
	})
	return ch
}

// WipeAll - erase every balance and bank
func (s *Postgres) WipeAll() <-chan error {
	ch := make(chan error, 1)
	s.pool.Submit(func() {
		ctx := context.Background()
		if _, err := s.db.Exec(ctx, `DELETE FROM player_balances`); nil != err {
			s.log.Errorf("wipe all: %s", err)
			ch <- err
			return
		}
		if _, err := s.db.Exec(ctx, `DELETE FROM banks`); nil != err {
			s.log.Errorf("wipe all: %s", err)
			ch <- err
			return
		}
		if _, err := s.db.Exec(ctx, pgInsertBank, s.defaultBank); nil != err {
			s.log.Errorf("wipe all: %s", err)
			ch <- err
			return
		}
		s.banks.reset(s.defaultBank)
		s.tiers.forEach(func(a *account.Account) {
			a.Clear()
		})
		if nil != s.top {
			s.top.ClearAll()
		}
		ch <- nil
	})
	return ch
}

// Promote - pin an account in the hot tier
func (s *Postgres) Promote(id uuid.UUID) {
	s.tiers.promote(id)
}

// Demote - release an account to the expiring tier
func (s *Postgres) Demote(id uuid.UUID) {
	s.tiers.demote(id)
}

// Close - drain queued writes and release the connection pool
func (s *Postgres) Close() error {
	s.pool.Close()
	s.tiers.close()
	s.db.Close()
	return nil
}
