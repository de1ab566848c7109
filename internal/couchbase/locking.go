package couchbase

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

const maintenanceLockKey = "maintenance_lock"

type lockDocument struct {
	Holder    string    `json:"holder"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MaintenanceLock marks the bucket as undergoing a bulk load. The seeder
// holds it while loading; the API reports it through the health endpoint and
// refuses writes from other holders until it clears. It does not serialize
// individual document writes.
type MaintenanceLock struct {
	bucket *gocb.Bucket
	holder string
}

// NewMaintenanceLock creates a lock handle for the given holder name.
func NewMaintenanceLock(bucket *gocb.Bucket, holder string) *MaintenanceLock {
	return &MaintenanceLock{bucket: bucket, holder: holder}
}

// Acquire claims the lock. It fails if another holder already has it.
func (l *MaintenanceLock) Acquire() error {
	doc := lockDocument{
		Holder:    l.holder,
		LockedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(1 * time.Hour), // stale locks expire
	}

	col := l.bucket.DefaultCollection()
	_, err := col.Insert(maintenanceLockKey, doc, &gocb.InsertOptions{})
	if errors.Is(err, gocb.ErrDocumentExists) {
		return fmt.Errorf("maintenance lock is already held")
	}
	if err != nil {
		return fmt.Errorf("failed to create lock document: %w", err)
	}

	log.Info().Str("holder", l.holder).Msg("Maintenance lock acquired")
	return nil
}

// Release removes the lock document.
func (l *MaintenanceLock) Release() error {
	col := l.bucket.DefaultCollection()
	if _, err := col.Remove(maintenanceLockKey, &gocb.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove lock document: %w", err)
	}

	log.Info().Str("holder", l.holder).Msg("Maintenance lock released")
	return nil
}

// Status reports whether the lock is currently held, clearing it when the
// holder let it expire.
func (l *MaintenanceLock) Status() (bool, error) {
	doc, err := l.current()
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// HeldByOther reports whether a different holder currently owns the lock.
// The lock's own holder is free to write while it holds the lock.
func (l *MaintenanceLock) HeldByOther() (bool, error) {
	doc, err := l.current()
	if err != nil {
		return false, err
	}
	return doc != nil && doc.Holder != l.holder, nil
}

// current fetches the live lock document, sweeping an expired one. A nil
// document means the lock is free.
func (l *MaintenanceLock) current() (*lockDocument, error) {
	col := l.bucket.DefaultCollection()

	result, err := col.Get(maintenanceLockKey, &gocb.GetOptions{})
	if errors.Is(err, gocb.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check lock status: %w", err)
	}

	var doc lockDocument
	if err := result.Content(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse lock document: %w", err)
	}

	if time.Now().UTC().After(doc.ExpiresAt) {
		col.Remove(maintenanceLockKey, &gocb.RemoveOptions{})
		return nil, nil
	}
	return &doc, nil
}
