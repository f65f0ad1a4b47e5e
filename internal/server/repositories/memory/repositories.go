package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/server/models"
)

type UserRepository struct {
	s  *Store
	tx *Tx
}

func (r *UserRepository) Create(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.accounts[a.Address]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.data.accounts[a.Address] = *a
	addr := a.Address
	r.tx.record(func(d *state) { delete(d.accounts, addr) })
	return nil
}

func (r *UserRepository) GetByAddress(_ context.Context, address string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.data.accounts[address]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

type PassCodeRepository struct {
	s  *Store
	tx *Tx
}

func (r *PassCodeRepository) Create(_ context.Context, c *models.PassCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.passCodes[c.ID] = *c
	id := c.ID
	r.tx.record(func(d *state) { delete(d.passCodes, id) })
	return nil
}

func (r *PassCodeRepository) Find(_ context.Context, owner, code string) (*models.PassCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *models.PassCode
	for _, c := range r.s.data.passCodes {
		if c.OwnerAddress != owner || c.Code != code {
			continue
		}
		if found == nil || c.IssuedAt.After(found.IssuedAt) {
			c := c
			found = &c
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *PassCodeRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.data.passCodes[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.s.data.passCodes, id)
	r.tx.record(func(d *state) { d.passCodes[id] = old })
	return nil
}

func (r *PassCodeRepository) DeleteIssuedBefore(_ context.Context, t time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, c := range r.s.data.passCodes {
		if c.IssuedAt.Before(t) {
			delete(r.s.data.passCodes, id)
			r.tx.record(func(d *state) { d.passCodes[id] = c })
			n++
		}
	}
	return n, nil
}

type HandshakeRepository struct {
	s  *Store
	tx *Tx
}

func (r *HandshakeRepository) Create(_ context.Context, h *models.HandshakeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.handshakes[h.ID] = *h
	id := h.ID
	r.tx.record(func(d *state) { delete(d.handshakes, id) })
	return nil
}

func (r *HandshakeRepository) Find(_ context.Context, otherAddress, passCode string) (*models.HandshakeRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *models.HandshakeRecord
	for _, h := range r.s.data.handshakes {
		if h.OtherAddress != otherAddress || h.PassCode != passCode {
			continue
		}
		if found == nil || h.CreatedAt.After(found.CreatedAt) {
			h := h
			found = &h
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *HandshakeRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.data.handshakes[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.s.data.handshakes, id)
	r.tx.record(func(d *state) { d.handshakes[id] = old })
	return nil
}

func (r *HandshakeRepository) DeleteCreatedBefore(_ context.Context, t time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, h := range r.s.data.handshakes {
		if h.CreatedAt.Before(t) {
			delete(r.s.data.handshakes, id)
			r.tx.record(func(d *state) { d.handshakes[id] = h })
			n++
		}
	}
	return n, nil
}

type ConnectionRepository struct {
	s  *Store
	tx *Tx
}

func (r *ConnectionRepository) Create(_ context.Context, c *models.Connection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := connKey{self: c.SelfAddress, other: c.OtherAddress}
	if _, ok := r.s.data.connections[key]; ok {
		return common.ErrorAlreadyExists
	}
	for k, existing := range r.s.data.connections {
		if k.self == c.SelfAddress && existing.IdentCode == c.IdentCode {
			return common.ErrorAlreadyExists
		}
	}
	r.s.data.connections[key] = *c
	r.tx.record(func(d *state) { delete(d.connections, key) })
	return nil
}

func (r *ConnectionRepository) Delete(_ context.Context, selfAddress, otherAddress string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := connKey{self: selfAddress, other: otherAddress}
	if old, ok := r.s.data.connections[key]; ok {
		delete(r.s.data.connections, key)
		r.tx.record(func(d *state) { d.connections[key] = old })
	}
	return nil
}

func (r *ConnectionRepository) GetByAddresses(_ context.Context, selfAddress, otherAddress string) (*models.Connection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.data.connections[connKey{self: selfAddress, other: otherAddress}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *ConnectionRepository) GetByIdentCode(_ context.Context, selfAddress, identCode string) (*models.Connection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, c := range r.s.data.connections {
		if k.self == selfAddress && c.IdentCode == identCode {
			c := c
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

type MessageRepository struct {
	s  *Store
	tx *Tx
}

func (r *MessageRepository) CreateOutbox(_ context.Context, e *models.OutboxEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.outbox[e.ID] = *e
	id := e.ID
	r.tx.record(func(d *state) { delete(d.outbox, id) })
	return nil
}

func (r *MessageRepository) FindOutbox(_ context.Context, hash, nonce string) (*models.OutboxEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.data.outbox {
		if e.MessageHash == hash && e.MessageNonce == nonce {
			e := e
			return &e, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MessageRepository) DeleteOutbox(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.data.outbox[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.s.data.outbox, id)
	r.tx.record(func(d *state) { d.outbox[id] = old })
	return nil
}

func (r *MessageRepository) DeleteOutboxCreatedBefore(_ context.Context, t time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, e := range r.s.data.outbox {
		if e.CreatedAt.Before(t) {
			delete(r.s.data.outbox, id)
			r.tx.record(func(d *state) { d.outbox[id] = e })
			n++
		}
	}
	return n, nil
}

func (r *MessageRepository) CreateSent(_ context.Context, e *models.SentEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.sent = append(r.s.data.sent, *e)
	id := e.ID
	r.tx.record(func(d *state) {
		d.sent = slices.DeleteFunc(d.sent, func(x models.SentEntry) bool { return x.ID == id })
	})
	return nil
}

func (r *MessageRepository) CreateInbox(_ context.Context, e *models.InboxEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.inbox {
		if existing.SelfAddress == e.SelfAddress && existing.MessageHash == e.MessageHash {
			return common.ErrorAlreadyExists
		}
	}
	r.s.data.inbox = append(r.s.data.inbox, *e)
	id := e.ID
	r.tx.record(func(d *state) {
		d.inbox = slices.DeleteFunc(d.inbox, func(x models.InboxEntry) bool { return x.ID == id })
	})
	return nil
}

func (r *MessageRepository) ListInbox(_ context.Context, selfAddress string, limit int) ([]models.InboxEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]models.InboxEntry, 0)
	for _, e := range r.s.data.inbox {
		if e.SelfAddress == selfAddress {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
