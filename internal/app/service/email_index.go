package service

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	emailIndexCapacity  = 100_000
	emailIndexFalseRate = 0.01

	// Catch-up loads reach back this far before the last sync to cover clock
	// skew between instances and transactions still in flight.
	emailIndexOverlap = time.Minute
)

// emailLoader returns the emails registered at or after since.
type emailLoader func(ctx context.Context, since time.Time) ([]string, error)

// emailIndex is a bloom filter of registered emails. A positive answer must
// be confirmed in the database. A negative answer is only trusted after a
// catch-up sync, since other instances register users too. Until seeded
// every lookup answers "maybe".
type emailIndex struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	seeded   bool
	syncedAt time.Time
}

func newEmailIndex() *emailIndex {
	return &emailIndex{filter: bloom.NewWithEstimates(emailIndexCapacity, emailIndexFalseRate)}
}

// sync adds the emails registered since the last sync, or all of them on the
// first call. now is taken before the load.
func (i *emailIndex) sync(ctx context.Context, load emailLoader, now time.Time) error {
	i.mu.RLock()
	var since time.Time
	if i.seeded {
		since = i.syncedAt.Add(-emailIndexOverlap)
	}
	i.mu.RUnlock()

	emails, err := load(ctx, since)
	if err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, email := range emails {
		i.filter.AddString(email)
	}
	if now.After(i.syncedAt) {
		i.syncedAt = now
	}
	i.seeded = true
	return nil
}

func (i *emailIndex) add(email string) {
	i.mu.Lock()
	i.filter.AddString(email)
	i.mu.Unlock()
}

func (i *emailIndex) mayContain(email string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if !i.seeded {
		return true
	}
	return i.filter.TestString(email)
}
