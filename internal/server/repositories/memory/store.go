// Package memory is an in-process implementation of every repository
// interface. It backs the "memory" DSN and the service and HTTP tests.
package memory

import (
	"sort"
	"sync"

	"github.com/dmitrijs2005/peermail/internal/server/models"
)

type connKey struct {
	self  string
	other string
}

type state struct {
	accounts    map[string]models.Account
	passCodes   map[string]models.PassCode
	handshakes  map[string]models.HandshakeRecord
	connections map[connKey]models.Connection
	outbox      map[string]models.OutboxEntry
	sent        []models.SentEntry
	inbox       []models.InboxEntry
}

func newState() *state {
	return &state{
		accounts:    make(map[string]models.Account),
		passCodes:   make(map[string]models.PassCode),
		handshakes:  make(map[string]models.HandshakeRecord),
		connections: make(map[connKey]models.Connection),
		outbox:      make(map[string]models.OutboxEntry),
	}
}

// Store holds all tables behind a single mutex.
type Store struct {
	mu   sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

// Tx is a view of the store that remembers how to undo every write made
// through it. Rollback reverts only those writes; rows written by others in
// the meantime are left alone.
type Tx struct {
	s    *Store
	undo []func(d *state)
}

// Begin starts a Tx. Callers serialize transactions themselves.
func (s *Store) Begin() *Tx {
	return &Tx{s: s}
}

// record is called with s.mu held.
func (t *Tx) record(fn func(d *state)) {
	if t == nil {
		return
	}
	t.undo = append(t.undo, fn)
}

// Rollback reverts the writes of t, newest first.
func (t *Tx) Rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i](t.s.data)
	}
	t.undo = nil
}

func (t *Tx) Users() *UserRepository             { return &UserRepository{s: t.s, tx: t} }
func (t *Tx) PassCodes() *PassCodeRepository     { return &PassCodeRepository{s: t.s, tx: t} }
func (t *Tx) Handshakes() *HandshakeRepository   { return &HandshakeRepository{s: t.s, tx: t} }
func (t *Tx) Connections() *ConnectionRepository { return &ConnectionRepository{s: t.s, tx: t} }
func (t *Tx) Messages() *MessageRepository       { return &MessageRepository{s: t.s, tx: t} }

func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }
func (s *Store) PassCodes() *PassCodeRepository     { return &PassCodeRepository{s: s} }
func (s *Store) Handshakes() *HandshakeRepository   { return &HandshakeRepository{s: s} }
func (s *Store) Connections() *ConnectionRepository { return &ConnectionRepository{s: s} }
func (s *Store) Messages() *MessageRepository       { return &MessageRepository{s: s} }

// OutboxEntries returns every pending outbox entry.
func (s *Store) OutboxEntries() []models.OutboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.OutboxEntry, 0, len(s.data.outbox))
	for _, e := range s.data.outbox {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// SentEntries returns the sent ledger of selfAddress, oldest first.
func (s *Store) SentEntries(selfAddress string) []models.SentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.SentEntry
	for _, e := range s.data.sent {
		if e.SelfAddress == selfAddress {
			result = append(result, e)
		}
	}
	return result
}
