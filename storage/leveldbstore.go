// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/logger"

	"github.com/bvault/bvaultd/account"
	"github.com/bvault/bvaultd/baltop"
	"github.com/bvault/bvaultd/bank"
	"github.com/bvault/bvaultd/fault"
	"github.com/bvault/bvaultd/iopool"
)

// Config - tuning shared by the concrete backends
type Config struct {
	CacheLifetime time.Duration // cold tier entry lifetime
	SweepInterval time.Duration // cold tier sweep period
	Workers       int           // I/O worker count
	DefaultBank   string        // registered at open, bank.Default when empty
}

func (c Config) defaultBank() string {
	if "" == c.DefaultBank {
		return bank.Default
	}
	return c.DefaultBank
}

// one-byte key prefixes
//
//	B <id[16]> <bank>        -> float64 balance, big endian bits
//	I <bank> 0x00 <id[16]>   -> float64 balance, big endian bits
//	N <bank>                 -> empty, the set of known banks
//	D <id[16]>               -> utf-8 display name
const (
	prefixBalance     = 'B'
	prefixBankIndex   = 'I'
	prefixBank        = 'N'
	prefixDisplayName = 'D'
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const currentDBVersion = 0x100

// LevelDB - file backed store
//
// reads and writes run on a bounded worker pool so callers are never
// blocked on disk; loaded accounts are held in the two tier cache
type LevelDB struct {
	log         *logger.L
	db          *leveldb.DB
	pool        *iopool.Pool
	tiers       *tiers
	banks       *bankSet
	top         *baltop.BalTop
	defaultBank string
}

// NewLevelDB - open the database and seed the leaderboard
//
// the default bank is registered on first open; every known bank has
// its leaderboard reloaded from the ranked index before this returns
func NewLevelDB(databasePath string, cfg Config, top *baltop.BalTop, connected ConnectedProbe) (*LevelDB, error) {

	log := logger.New("storage")

	db, err := openLevelDB(databasePath)
	if nil != err {
		return nil, err
	}

	t, err := newTiers(cfg.CacheLifetime, cfg.SweepInterval, connected)
	if nil != err {
		db.Close()
		return nil, err
	}

	s := &LevelDB{
		log:         log,
		db:          db,
		pool:        iopool.New("storage", cfg.Workers),
		tiers:       t,
		banks:       newBankSet(),
		top:         top,
		defaultBank: cfg.defaultBank(),
	}

	if err := s.seed(); nil != err {
		s.Close()
		return nil, err
	}

	log.Infof("opened: %s  banks: %d", databasePath, len(s.banks.all()))
	return s, nil
}

func openLevelDB(databasePath string) (*leveldb.DB, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(databasePath, opt)
	if nil != err {
		return nil, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		currentVersion := make([]byte, 4)
		binary.BigEndian.PutUint32(currentVersion, currentDBVersion)
		if err := db.Put(versionKey, currentVersion, nil); nil != err {
			db.Close()
			return nil, err
		}
		return db, nil
	} else if nil != err {
		db.Close()
		return nil, err
	}

	if 4 != len(versionValue) || currentDBVersion < binary.BigEndian.Uint32(versionValue) {
		db.Close()
		return nil, fault.ErrWrongDatabaseVersion
	}
	return db, nil
}

// load the known banks and rebuild every leaderboard
func (s *LevelDB) seed() error {
	iter := s.db.NewIterator(ldb_util.BytesPrefix([]byte{prefixBank}), nil)
	for iter.Next() {
		s.banks.add(string(iter.Key()[1:]))
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return err
	}

	if s.banks.add(s.defaultBank) {
		if err := s.db.Put(bankKey(s.defaultBank), []byte{}, nil); nil != err {
			return err
		}
	}

	if nil == s.top {
		return nil
	}
	for bankName := range s.banks.all() {
		entries, err := s.topEntries(bankName, s.top.TopSize())
		if nil != err {
			return err
		}
		s.top.SetTop(bankName, entries)
	}
	return nil
}

func balanceKey(id uuid.UUID, bankName string) []byte {
	key := make([]byte, 0, 1+len(id)+len(bankName))
	key = append(key, prefixBalance)
	key = append(key, id[:]...)
	return append(key, bankName...)
}

func bankIndexKey(id uuid.UUID, bankName string) []byte {
	key := make([]byte, 0, 1+len(bankName)+1+len(id))
	key = append(key, prefixBankIndex)
	key = append(key, bankName...)
	key = append(key, 0x00)
	return append(key, id[:]...)
}

func bankKey(bankName string) []byte {
	key := make([]byte, 0, 1+len(bankName))
	key = append(key, prefixBank)
	return append(key, bankName...)
}

func displayNameKey(id uuid.UUID) []byte {
	key := make([]byte, 0, 1+len(id))
	key = append(key, prefixDisplayName)
	return append(key, id[:]...)
}

func encodeBalance(balance float64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, math.Float64bits(balance))
	return buffer
}

func decodeBalance(buffer []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(buffer))
}

// GetAccount - fetch an account, loading it from disk on a cache miss
func (s *LevelDB) GetAccount(id uuid.UUID) <-chan GetResult {
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

func (s *LevelDB) loadAccount(id uuid.UUID) (*account.Account, error) {
	balances := make(map[string]float64)

	prefix := make([]byte, 0, 1+len(id))
	prefix = append(prefix, prefixBalance)
	prefix = append(prefix, id[:]...)

	iter := s.db.NewIterator(ldb_util.BytesPrefix(prefix), nil)
	for iter.Next() {
		bankName := string(iter.Key()[len(prefix):])
		balances[bankName] = decodeBalance(iter.Value())
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return nil, err
	}

	displayName := ""
	if value, err := s.db.Get(displayNameKey(id), nil); nil == err {
		displayName = string(value)
	} else if leveldb.ErrNotFound != err {
		return nil, err
	}

	return account.NewWithBalances(id, balances, displayName), nil
}

// WriteBalance - queue one balance for persistence
//
// fire and forget: a failed write is logged and dropped; the
// leaderboard is told about the new balance either way
func (s *LevelDB) WriteBalance(id uuid.UUID, bankName string, balance float64, displayName string) {
	if nil != s.top {
		s.top.UpdateBalance(id, balance, bankName, displayName)
	}
	s.pool.Submit(func() {
		batch := new(leveldb.Batch)
		value := encodeBalance(balance)
		batch.Put(balanceKey(id, bankName), value)
		batch.Put(bankIndexKey(id, bankName), value)
		if s.banks.add(bankName) {
			batch.Put(bankKey(bankName), []byte{})
		}
		if "" != displayName {
			batch.Put(displayNameKey(id), []byte(displayName))
		}
		if err := s.db.Write(batch, nil); nil != err {
			s.log.Errorf("write balance: %s %s: %s", id, bankName, err)
		}
	})
}

// KnownBanks - every bank that ever held a balance
func (s *LevelDB) KnownBanks() map[string]struct{} {
	return s.banks.all()
}

// TopByBank - the highest balances of one bank straight from disk
func (s *LevelDB) TopByBank(bankName string, limit int) <-chan TopResult {
	ch := make(chan TopResult, 1)
	s.pool.Submit(func() {
		entries, err := s.topEntries(bankName, limit)
		if nil != err {
			s.log.Errorf("top by bank: %s: %s", bankName, err)
		}
		ch <- TopResult{Entries: entries, Err: err}
	})
	return ch
}

func (s *LevelDB) topEntries(bankName string, limit int) ([]baltop.Entry, error) {

	prefix := make([]byte, 0, 1+len(bankName)+1)
	prefix = append(prefix, prefixBankIndex)
	prefix = append(prefix, bankName...)
	prefix = append(prefix, 0x00)

	entries := []baltop.Entry{}
	iter := s.db.NewIterator(ldb_util.BytesPrefix(prefix), nil)
	for iter.Next() {
		id, err := uuid.FromBytes(iter.Key()[len(prefix):])
		if nil != err {
			continue
		}
		entries = append(entries, baltop.Entry{
			Id:      id,
			Balance: decodeBalance(iter.Value()),
		})
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Balance != entries[j].Balance {
			return entries[i].Balance > entries[j].Balance
		}
		return bytes.Compare(entries[i].Id[:], entries[j].Id[:]) < 0
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	for i := range entries {
		entries[i].Rank = i
		if value, err := s.db.Get(displayNameKey(entries[i].Id), nil); nil == err {
			entries[i].DisplayName = string(value)
		}
	}
	for len(entries) < limit {
		entries = append(entries, baltop.Empty)
	}
	return entries, nil
}

// WipeBank - erase one bank everywhere
//
// removes the durable balances, the ranked index entries and the bank
// from every live account
func (s *LevelDB) WipeBank(bankName string) <-chan error {
	ch := make(chan error, 1)
	s.pool.Submit(func() {

		prefix := make([]byte, 0, 1+len(bankName)+1)
		prefix = append(prefix, prefixBankIndex)
		prefix = append(prefix, bankName...)
		prefix = append(prefix, 0x00)

		batch := new(leveldb.Batch)
		iter := s.db.NewIterator(ldb_util.BytesPrefix(prefix), nil)
		for iter.Next() {
			if id, err := uuid.FromBytes(iter.Key()[len(prefix):]); nil == err {
				batch.Delete(balanceKey(id, bankName))
			}
			batch.Delete(append([]byte{}, iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); nil != err {
			s.log.Errorf("wipe bank: %s: %s", bankName, err)
			ch <- err
			return
		}

		if err := s.db.Write(batch, nil); nil != err {
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

// WipeAll - erase every balance, bank and display name
//
// the version record survives; the default bank is registered again so
// the store stays usable
func (s *LevelDB) WipeAll() <-chan error {
	ch := make(chan error, 1)
	s.pool.Submit(func() {

		batch := new(leveldb.Batch)
		for _, prefix := range []byte{prefixBalance, prefixBankIndex, prefixBank, prefixDisplayName} {
			iter := s.db.NewIterator(ldb_util.BytesPrefix([]byte{prefix}), nil)
			for iter.Next() {
				batch.Delete(append([]byte{}, iter.Key()...))
			}
			iter.Release()
			if err := iter.Error(); nil != err {
				s.log.Errorf("wipe all: %s", err)
				ch <- err
				return
			}
		}
		batch.Put(bankKey(s.defaultBank), []byte{})

		if err := s.db.Write(batch, nil); nil != err {
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
func (s *LevelDB) Promote(id uuid.UUID) {
	s.tiers.promote(id)
}

// Demote - release an account to the expiring tier
func (s *LevelDB) Demote(id uuid.UUID) {
	s.tiers.demote(id)
}

// Close - drain queued writes and close the database
func (s *LevelDB) Close() error {
	s.pool.Close()
	s.tiers.close()
	return s.db.Close()
}
