package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"yearbook_alumni/internal/domain/alumni"
	"yearbook_alumni/internal/domain/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connPool models a database/sql pool with a fixed number of connections
// shared by the store and the directory.
type connPool chan struct{}

func (p connPool) acquire(ctx context.Context) (func(), error) {
	select {
	case p <- struct{}{}:
		return func() { <-p }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pooledStore holds one connection for the whole of a transaction and one
// per read outside it.
type pooledStore struct {
	*memStore
	pool connPool
}

func (s *pooledStore) WithinTx(ctx context.Context, fn func(tx alumni.Repository) error) error {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return s.memStore.WithinTx(ctx, fn)
}

func (s *pooledStore) GetBadgeByID(ctx context.Context, id int64) (*alumni.Badge, error) {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.memStore.GetBadgeByID(ctx, id)
}

func (s *pooledStore) GetRequestByID(ctx context.Context, id int64) (*alumni.Request, error) {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.memStore.GetRequestByID(ctx, id)
}

type pooledDirectory struct {
	*fakeDirectory
	pool connPool
}

func (d *pooledDirectory) GetUser(ctx context.Context, id int64) (*directory.User, error) {
	release, err := d.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return d.fakeDirectory.GetUser(ctx, id)
}

func (d *pooledDirectory) GetSchoolByID(ctx context.Context, id int64) (*directory.School, error) {
	release, err := d.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return d.fakeDirectory.GetSchoolByID(ctx, id)
}

func (d *pooledDirectory) GetSchoolByName(ctx context.Context, name string) (*directory.School, error) {
	release, err := d.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return d.fakeDirectory.GetSchoolByName(ctx, name)
}

func newPooledFixture(t *testing.T, conns int) *engineFixture {
	t.Helper()
	f := newEngineFixture(t)
	pool := make(connPool, conns)
	dir := &pooledDirectory{fakeDirectory: f.dir, pool: pool}
	f.svc = NewAlumniService(&pooledStore{memStore: f.store, pool: pool}, dir, dir, f.sink, quietLogger())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func withDeadline(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEngine_SingleConnectionPoolDoesNotStall(t *testing.T) {
	t.Parallel()
	f := newPooledFixture(t, 1)

	approved, err := f.svc.SubmitRequest(withDeadline(t), submitInput(janeID, schoolAID))
	require.NoError(t, err)
	denied, err := f.svc.SubmitRequest(withDeadline(t), submitInput(janeID, schoolBID))
	require.NoError(t, err)

	_, err = f.svc.ApproveRequest(withDeadline(t), approved.ID, reviewer, "")
	require.NoError(t, err)
	_, err = f.svc.DenyRequest(withDeadline(t), denied.ID, reviewer, "")
	require.NoError(t, err)

	legacy := f.seedBadge(t, alumni.Badge{UserID: johnID, School: "School B"})
	require.NoError(t, f.svc.DeleteBadge(withDeadline(t), legacy, johnID))
	require.Len(t, f.store.blocks, 1)
	assert.Equal(t, schoolBID, f.store.blocks[0].SchoolID)
}

func TestEngine_SingleConnectionPoolKeepsErrorOrder(t *testing.T) {
	t.Parallel()
	f := newPooledFixture(t, 1)

	f.seedBlock(t, janeID, 404, testNow.Add(time.Hour))
	_, err := f.svc.SubmitRequest(withDeadline(t), submitInput(janeID, 404))
	assert.ErrorIs(t, err, alumni.ErrBlocked)

	_, err = f.svc.SubmitRequest(withDeadline(t), submitInput(janeID, 405))
	assert.ErrorIs(t, err, alumni.ErrNotFound)

	_, err = f.svc.SubmitRequest(withDeadline(t), submitInput(77, schoolAID))
	assert.ErrorIs(t, err, alumni.ErrInternalInconsistency)

	_, err = f.svc.ApproveRequest(withDeadline(t), 999, reviewer, "")
	assert.ErrorIs(t, err, alumni.ErrNotFound)
}

func TestEngine_SaturatedPoolCompletesConcurrentSubmissions(t *testing.T) {
	t.Parallel()
	const conns = 4
	f := newPooledFixture(t, conns)

	const users = 3 * conns
	for i := int64(0); i < users; i++ {
		id := 100 + i
		f.dir.users[id] = &directory.User{ID: id, FullName: fmt.Sprintf("User %d", id)}
	}

	ctx := withDeadline(t)
	var wg sync.WaitGroup
	errs := make([]error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitRequest(ctx, submitInput(100+int64(i), schoolAID))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "submission %d", i)
	}
	assert.Len(t, f.store.requests, users)
	for _, b := range f.store.badges {
		assert.Equal(t, sql.NullInt64{Int64: schoolAID, Valid: true}, b.SchoolID)
	}
}
