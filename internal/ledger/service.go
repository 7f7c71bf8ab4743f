// Package ledger keeps per-user wallets and the append-only transaction log,
// and answers balance, history and statistics queries over them.
//
// Every mutating operation runs in a single database transaction while
// holding the service mutex, so existence and balance checks cannot race
// with a concurrent writer.
package ledger

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultWallet          = "cash"
	DefaultExpenseCategory = "lainnya"
	CategoryTransfer       = "transfer"
	CategoryAdjustment     = "adjustment"

	defaultHistoryLimit = 10
	defaultPeriodLimit  = 20
)

// Service is the ledger entry point shared by the bot and the HTTP API.
type Service struct {
	db  *gorm.DB
	mu  sync.Mutex
	loc *time.Location
	now func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger Service. Periods ("today", "this_month") are
// evaluated in loc; nil means time.Local.
func NewService(db *gorm.DB, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{db: db, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used for period boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the service clock in its location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// write runs fn in one transaction with writers serialized.
func (s *Service) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Service) read(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// stamp picks the transaction time: the given date or now, stored in UTC so
// text comparison on created_at stays chronological.
func (s *Service) stamp(date *time.Time) time.Time {
	if date != nil && !date.IsZero() {
		return date.UTC()
	}
	return s.now().UTC()
}
