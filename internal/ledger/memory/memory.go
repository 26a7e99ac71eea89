// Package memory provides an in-memory ledger.Store used as the dev
// backend and as the test double for service-level tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Store struct {
	mu sync.Mutex

	transactions  map[string]map[string]core.Transaction           // userID -> id -> record
	subscriptions map[string]map[string]core.RecurringSubscription // userID -> id -> record
	accounts      map[string]map[string]core.Account
	categories    map[string]map[string]core.Category
	records       map[string]map[string]core.Record

	// forcedErr, when set, makes every operation fail. Tests use it to
	// exercise store-unavailable paths and batch atomicity.
	forcedErr error

	now func() time.Time
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		transactions:  make(map[string]map[string]core.Transaction),
		subscriptions: make(map[string]map[string]core.RecurringSubscription),
		accounts:      make(map[string]map[string]core.Account),
		categories:    make(map[string]map[string]core.Category),
		records:       make(map[string]map[string]core.Record),
		now:           time.Now,
	}
}

// SetError forces every subsequent operation to fail with err until
// called again with nil.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcedErr = err
}

// SetClock overrides the CreatedAt clock, for deterministic tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) fail() error {
	if s.forcedErr != nil {
		return fmt.Errorf("%w: %w", ledger.ErrStoreUnavailable, s.forcedErr)
	}
	return nil
}

func bucket[T any](m map[string]map[string]T, userID string) map[string]T {
	b, ok := m[userID]
	if !ok {
		b = make(map[string]T)
		m[userID] = b
	}
	return b
}

func (s *Store) CreateTransaction(_ context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	bucket(s.transactions, userID)[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return core.Transaction{}, err
	}
	t, ok := bucket(s.transactions, userID)[id]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID string, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.transactions, userID)
	prev, ok := b[t.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	t.CreatedAt = prev.CreatedAt
	b[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.transactions, userID)
	if _, ok := b[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(b, id)
	return nil
}

func (s *Store) ListInRange(_ context.Context, userID string, start, end core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range bucket(s.transactions, userID) {
		if t.Date.IsZero() {
			// Kept so aggregation can route it to the unparseable tally.
			out = append(out, t)
			continue
		}
		if t.Date.Before(start.Time) || t.Date.After(end.Time) {
			continue
		}
		out = append(out, t)
	}
	core.SortTransactions(out)
	return out, nil
}

func (s *Store) ListDue(_ context.Context, userID string, asOf core.Date) ([]core.RecurringSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []core.RecurringSubscription
	for _, sub := range bucket(s.subscriptions, userID) {
		if sub.Active && !sub.NextDue.After(asOf.Time) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// CommitBatch applies the whole batch or nothing: every advancement is
// checked against the live records before any map is touched.
func (s *Store) CommitBatch(_ context.Context, userID string, batch ledger.Batch) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	subs := bucket(s.subscriptions, userID)
	for _, adv := range batch.Advance {
		if _, ok := subs[adv.SubscriptionID]; !ok {
			return nil, fmt.Errorf("%w: subscription %s", ledger.ErrNotFound, adv.SubscriptionID)
		}
	}

	txs := bucket(s.transactions, userID)
	createdAt := s.now()
	created := make([]core.Transaction, 0, len(batch.Create))
	for _, t := range batch.Create {
		t.ID = uuid.NewString()
		t.CreatedAt = createdAt
		txs[t.ID] = t
		created = append(created, t)
	}
	for _, adv := range batch.Advance {
		sub := subs[adv.SubscriptionID]
		sub.NextDue = adv.NextDue
		subs[adv.SubscriptionID] = sub
	}
	return created, nil
}

func (s *Store) ListSubscriptions(_ context.Context, userID string) ([]core.RecurringSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []core.RecurringSubscription
	for _, sub := range bucket(s.subscriptions, userID) {
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) CreateSubscription(_ context.Context, userID string, sub core.RecurringSubscription) (core.RecurringSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return core.RecurringSubscription{}, err
	}
	sub.ID = uuid.NewString()
	bucket(s.subscriptions, userID)[sub.ID] = sub
	return sub, nil
}

func (s *Store) UpdateSubscription(_ context.Context, userID string, sub core.RecurringSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.subscriptions, userID)
	if _, ok := b[sub.ID]; !ok {
		return ledger.ErrNotFound
	}
	b[sub.ID] = sub
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.subscriptions, userID)
	if _, ok := b[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(b, id)
	return nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []core.Account
	for _, a := range bucket(s.accounts, userID) {
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateAccount(_ context.Context, userID string, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return core.Account{}, err
	}
	a.ID = uuid.NewString()
	bucket(s.accounts, userID)[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, userID string, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.accounts, userID)
	if _, ok := b[a.ID]; !ok {
		return ledger.ErrNotFound
	}
	b[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.accounts, userID)
	if _, ok := b[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(b, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []core.Category
	for _, c := range bucket(s.categories, userID) {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, userID string, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.NewString()
	bucket(s.categories, userID)[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.categories, userID)
	if _, ok := b[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(b, id)
	return nil
}

func (s *Store) ListRecords(_ context.Context, userID string, kind core.RecordKind) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []core.Record
	for _, r := range bucket(s.records, userID) {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) CreateRecord(_ context.Context, userID string, r core.Record) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return core.Record{}, err
	}
	r.ID = uuid.NewString()
	bucket(s.records, userID)[r.ID] = r
	return r, nil
}

func (s *Store) UpdateRecord(_ context.Context, userID string, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.records, userID)
	if _, ok := b[r.ID]; !ok {
		return ledger.ErrNotFound
	}
	b[r.ID] = r
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	b := bucket(s.records, userID)
	if _, ok := b[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(b, id)
	return nil
}
