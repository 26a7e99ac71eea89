// Package ledger defines the ports between the FinTrack core and its
// backing stores. Every operation is scoped to a user ID; isolation
// between users is the store's job, not the core's.
package ledger

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable wraps backing store read/write failures. A
	// failed batch commit surfaces as this error with nothing applied.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Batch is the atomic write unit of the recurring sweep: created
// transactions plus subscription advancements, applied all or nothing.
type Batch struct {
	Create  []core.Transaction
	Advance []Advancement
}

// Advancement moves one subscription's next-due date forward.
type Advancement struct {
	SubscriptionID string
	NextDue        core.Date
}

func (b Batch) Empty() bool {
	return len(b.Create) == 0 && len(b.Advance) == 0
}

type (
	// DueLister returns active subscriptions with nextDue <= asOf.
	DueLister interface {
		ListDue(ctx context.Context, userID string, asOf core.Date) ([]core.RecurringSubscription, error)
	}

	// RangeLister returns transactions dated within [start, end]
	// inclusive, ordered by date then CreatedAt.
	RangeLister interface {
		ListInRange(ctx context.Context, userID string, start, end core.Date) ([]core.Transaction, error)
	}

	// BatchCommitter applies a recurring-sweep batch atomically and
	// returns the created transactions with their store-assigned IDs.
	BatchCommitter interface {
		CommitBatch(ctx context.Context, userID string, batch Batch) ([]core.Transaction, error)
	}

	TransactionStore interface {
		RangeLister
		CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	SubscriptionStore interface {
		DueLister
		BatchCommitter
		ListSubscriptions(ctx context.Context, userID string) ([]core.RecurringSubscription, error)
		CreateSubscription(ctx context.Context, userID string, s core.RecurringSubscription) (core.RecurringSubscription, error)
		UpdateSubscription(ctx context.Context, userID string, s core.RecurringSubscription) error
		DeleteSubscription(ctx context.Context, userID, id string) error
	}

	AccountStore interface {
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		CreateAccount(ctx context.Context, userID string, a core.Account) (core.Account, error)
		UpdateAccount(ctx context.Context, userID string, a core.Account) error
		DeleteAccount(ctx context.Context, userID, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	// RecordStore holds the opaque budget/goal/debt collections.
	RecordStore interface {
		ListRecords(ctx context.Context, userID string, kind core.RecordKind) ([]core.Record, error)
		CreateRecord(ctx context.Context, userID string, r core.Record) (core.Record, error)
		UpdateRecord(ctx context.Context, userID string, r core.Record) error
		DeleteRecord(ctx context.Context, userID, id string) error
	}
)

// Store is the full backend surface the server wires against.
type Store interface {
	TransactionStore
	SubscriptionStore
	AccountStore
	CategoryStore
	RecordStore
}
