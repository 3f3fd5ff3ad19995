package usecases

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"cccd-api.backend/internal/domain/entities"
	domainerrors "cccd-api.backend/internal/domain/errors"
	"cccd-api.backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("development")
	os.Exit(m.Run())
}

// keyRepoFake is an in-memory ApiKeyRepository with the same scoping
// semantics as the gorm implementation. It records whether each FindByID
// arrived through a lock-marked context.
type keyRepoFake struct {
	mu          sync.Mutex
	nextID      int64
	keys        map[int64]*entities.ApiKey
	createErr   error
	digestErr   error
	lockedReads []bool
}

func newKeyRepoFake() *keyRepoFake {
	return &keyRepoFake{keys: make(map[int64]*entities.ApiKey)}
}

func (f *keyRepoFake) Create(_ context.Context, key *entities.ApiKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.keys {
		if existing.KeyDigest == key.KeyDigest {
			return domainerrors.Conflict("duplicate key digest")
		}
	}
	f.nextID++
	key.ID = f.nextID
	key.CreatedAt = time.Now()
	stored := *key
	f.keys[key.ID] = &stored
	return nil
}

func (f *keyRepoFake) FindByDigest(_ context.Context, digest string) (*entities.ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.digestErr != nil {
		return nil, f.digestErr
	}
	for _, key := range f.keys {
		if key.KeyDigest == digest {
			found := *key
			return &found, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (f *keyRepoFake) FindByID(ctx context.Context, id int64, ownerID *int64) (*entities.ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockedReads = append(f.lockedReads, lockMarked(ctx))
	key, ok := f.keys[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	if ownerID != nil && (key.OwnerUserID == nil || *key.OwnerUserID != *ownerID) {
		return nil, domainerrors.ErrNotFound
	}
	found := *key
	return &found, nil
}

func (f *keyRepoFake) ListByOwner(_ context.Context, ownerID int64) ([]*entities.ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.ApiKey
	for _, key := range f.keys {
		if key.OwnerUserID != nil && *key.OwnerUserID == ownerID {
			found := *key
			out = append(out, &found)
		}
	}
	return out, nil
}

func (f *keyRepoFake) Update(_ context.Context, key *entities.ApiKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key.ID]; !ok {
		return domainerrors.ErrNotFound
	}
	stored := *key
	f.keys[key.ID] = &stored
	return nil
}

func (f *keyRepoFake) Delete(_ context.Context, id int64, ownerID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if ownerID != nil && (key.OwnerUserID == nil || *key.OwnerUserID != *ownerID) {
		return domainerrors.ErrNotFound
	}
	delete(f.keys, id)
	return nil
}

func (f *keyRepoFake) lastReadLocked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lockedReads) == 0 {
		return false
	}
	return f.lockedReads[len(f.lockedReads)-1]
}

func (f *keyRepoFake) get(id int64) *entities.ApiKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[id]
	if !ok {
		return nil
	}
	found := *key
	return &found
}

// historyRepoFake records appended audit entries.
type historyRepoFake struct {
	mu        sync.Mutex
	entries   []*entities.KeyHistoryEntry
	appendErr error
}

func (f *historyRepoFake) Append(_ context.Context, entry *entities.KeyHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	stored := *entry
	f.entries = append(f.entries, &stored)
	return nil
}

func (f *historyRepoFake) ListByKey(_ context.Context, keyID int64) ([]*entities.KeyHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.KeyHistoryEntry
	for _, e := range f.entries {
		if e.KeyID == keyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *historyRepoFake) actions(keyID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		if e.KeyID == keyID {
			out = append(out, e.Action)
		}
	}
	return out
}

// uowFake runs the function without any transaction. WithLock marks the
// context the same way the gorm implementation does, so tests can assert a
// read-modify-write took the row lock.
type uowFake struct{}

type lockMarkKey struct{}

func (uowFake) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (uowFake) WithLock(ctx context.Context) context.Context {
	return context.WithValue(ctx, lockMarkKey{}, true)
}

func lockMarked(ctx context.Context) bool {
	marked, _ := ctx.Value(lockMarkKey{}).(bool)
	return marked
}

// counterStoreStub delegates to a function, for error injection.
type counterStoreStub struct {
	incrFn func(ctx context.Context, identity string, windowStart time.Time, ttl time.Duration) (int64, error)
}

func (s *counterStoreStub) Incr(ctx context.Context, identity string, windowStart time.Time, ttl time.Duration) (int64, error) {
	return s.incrFn(ctx, identity, windowStart, ttl)
}

func newTestKeyUsecase() (*ApiKeyUsecase, *keyRepoFake, *historyRepoFake) {
	keyRepo := newKeyRepoFake()
	historyRepo := &historyRepoFake{}
	limiter := NewRateLimiter(NewMemoryCounterStore())
	uc := NewApiKeyUsecase(keyRepo, historyRepo, uowFake{}, limiter, 0)
	return uc, keyRepo, historyRepo
}
