package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pwm/internal/record"
	"github.com/roach88/pwm/internal/testutil"
)

// newSQLiteManager returns a Ready manager over a fresh SQLite file seeded
// with the given names. Record IDs are rec-0001, rec-0002, ... in creation
// order.
func newSQLiteManager(t *testing.T, names ...string) *Manager {
	t.Helper()
	ctx := context.Background()

	m := New(WithIDGenerator(testutil.NewSequentialIDs("rec")))
	require.NoError(t, m.Bootstrap(ctx, filepath.Join(t.TempDir(), "db.sqlite")))
	t.Cleanup(func() { m.Close() })

	for _, name := range names {
		_, err := m.Create(ctx, name, record.Options{})
		require.NoError(t, err)
	}
	return m
}

func TestNew_Unbootstrapped(t *testing.T) {
	m := New()
	assert.Equal(t, StateUnbootstrapped, m.State())
	assert.Equal(t, "unbootstrapped", m.State().String())
}

func TestOperations_NotReady(t *testing.T) {
	ctx := context.Background()
	m := New()

	_, err := m.Create(ctx, "example.com", record.Options{})
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = m.Get(ctx, "example.com")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = m.Search(ctx, "example")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = m.Modify(ctx, "example.com", ModifyOptions{RegenerateSalt: true})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.True(t, IsNotReady(err))
}

func TestBootstrap_TransitionsToReady(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.sqlite")

	m := New()
	require.NoError(t, m.Bootstrap(ctx, path))
	defer m.Close()

	assert.Equal(t, StateReady, m.State())
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestBootstrap_IdempotentOnExistingStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.sqlite")

	m := New()
	require.NoError(t, m.Bootstrap(ctx, path))
	_, err := m.Create(ctx, "example.com", record.Options{})
	require.NoError(t, err)

	require.NoError(t, m.Bootstrap(ctx, path))
	defer m.Close()

	_, err = m.Get(ctx, "example.com")
	assert.NoError(t, err)
}

func TestOpen_ExistingStoreIsReady(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.sqlite")

	first := New()
	require.NoError(t, first.Bootstrap(ctx, path))
	created, err := first.Create(ctx, "example.com", record.Options{})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	m, err := Open(ctx, path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, StateReady, m.State())
	got, err := m.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, created.Salt, got.Salt)
}

func TestOpen_MissingPathIsUnbootstrapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")

	m, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StateUnbootstrapped, m.State())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Open must not create the file")
}

func TestOpen_GarbageFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	require.NoError(t, os.WriteFile(path, []byte("spam and eggs, this is not a database file at all"), 0600))

	_, err := Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrStorageFailure)
}

func TestCreate_ThenGet(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t)

	created, err := m.Create(ctx, "othersite.com", record.Options{Username: "me"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	key, err := created.DeriveKey("secret")
	require.NoError(t, err)

	fetched, err := m.Get(ctx, "othersite.com")
	require.NoError(t, err)
	assert.Equal(t, *created, *fetched)

	again, err := fetched.DeriveKey("secret")
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestCreate_UsesIDGenerator(t *testing.T) {
	ctx := context.Background()
	m := NewWithBackend(newFakeBackend(), WithIDGenerator(testutil.NewSequentialIDs("id")))

	r, err := m.Create(ctx, "example.com", record.Options{})
	require.NoError(t, err)
	assert.Equal(t, "id-0001", r.ID)
}

func TestCreate_PersistsGeneratedID(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t, "example.com", "facebook.com")

	got, err := m.Get(ctx, "facebook.com")
	require.NoError(t, err)
	assert.Equal(t, "rec-0002", got.ID)

	// A rejected duplicate still draws an ID but stores nothing.
	_, err = m.Create(ctx, "example.com", record.Options{})
	require.ErrorIs(t, err, ErrDuplicateName)

	created, err := m.Create(ctx, "othersite.com", record.Options{})
	require.NoError(t, err)
	assert.Equal(t, "rec-0004", created.ID)
}

func TestCreate_Duplicate(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t, "example.com", "facebook.com")

	_, err := m.Create(ctx, "example.com", record.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.True(t, IsDuplicateName(err))

	results, err := m.Search(ctx, "com")
	require.NoError(t, err)
	assert.Len(t, results, 2, "failed create must not change the record count")
}

func TestCreate_NonUniqueFailureIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.insertErr = errors.New("disk I/O error")
	m := NewWithBackend(backend)

	_, err := m.Create(ctx, "example.com", record.Options{})
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.False(t, IsDuplicateName(err))
}

func TestCreate_ValidationBeforeStorage(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	m := NewWithBackend(backend)

	_, err := m.Create(ctx, "example.com", record.Options{KeyLength: -5})
	assert.ErrorIs(t, err, record.ErrInvalidKeyLength)
	assert.Equal(t, 0, backend.begins)
}

func TestCreate_KeepsNameVerbatim(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t)

	decomposed := "cafe\u0301.com"
	composed := "caf\u00e9.com"

	created, err := m.Create(ctx, decomposed, record.Options{})
	require.NoError(t, err)
	assert.Equal(t, decomposed, created.Name)

	got, err := m.Get(ctx, decomposed)
	require.NoError(t, err)
	assert.Equal(t, decomposed, got.Name)

	typed, err := record.NewTransient(decomposed, created.Salt, record.Options{})
	require.NoError(t, err)
	want, err := typed.DeriveKey("secret")
	require.NoError(t, err)
	key, err := got.DeriveKey("secret")
	require.NoError(t, err)
	assert.Equal(t, want, key, "key must be derived from the name as typed")

	_, err = m.Get(ctx, composed)
	assert.ErrorIs(t, err, ErrNoSuchRecord, "get matches names exactly")

	results, err := m.Search(ctx, "CAF\u00c9")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, decomposed, results[0].Name)
}

func TestCreate_SaltFailureIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	m := NewWithBackend(backend, WithRandom(iotest.ErrReader(errors.New("entropy exhausted"))))

	_, err := m.Create(ctx, "example.com", record.Options{})
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.NotErrorIs(t, err, record.ErrSaltGeneration, "source detail is logged, not returned")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "create", e.Op)
	assert.Equal(t, "example.com", e.Name)
	assert.Equal(t, 0, backend.begins)
}

func TestGet_Missing(t *testing.T) {
	m := newSQLiteManager(t, "example.com")

	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoSuchRecord)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "missing", e.Name)
	assert.Equal(t, "get", e.Op)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t, "example.com", "otherexample.com", "facebook.com")

	results, err := m.Search(ctx, "example")
	require.NoError(t, err)
	require.Len(t, results, 2)
	names := []string{results[0].Name, results[1].Name}
	assert.ElementsMatch(t, []string{"example.com", "otherexample.com"}, names)

	results, err = m.Search(ctx, "EXAMPLE")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = m.Search(ctx, "bank")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestModify_RegenerateSalt(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t, "example.com")

	before, err := m.Get(ctx, "example.com")
	require.NoError(t, err)
	oldKey, err := before.DeriveKey("secret")
	require.NoError(t, err)

	modified, err := m.Modify(ctx, "example.com", ModifyOptions{RegenerateSalt: true})
	require.NoError(t, err)
	assert.NotEqual(t, before.Salt, modified.Salt)

	after, err := m.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, modified.Salt, after.Salt)

	newKey, err := after.DeriveKey("secret")
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, newKey)
}

func TestModify_SaltFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()

	seeded, err := NewWithBackend(backend).Create(ctx, "example.com", record.Options{})
	require.NoError(t, err)

	m := NewWithBackend(backend, WithRandom(iotest.ErrReader(errors.New("entropy exhausted"))))
	_, err = m.Modify(ctx, "example.com", ModifyOptions{RegenerateSalt: true})
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.True(t, IsStorageFailure(err))
	assert.Equal(t, 1, backend.rollbacks)
	assert.Equal(t, 0, backend.open())

	got, err := m.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.Salt, got.Salt)
}

func TestModify_Username(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t, "example.com")

	before, err := m.Get(ctx, "example.com")
	require.NoError(t, err)

	username := "u"
	_, err = m.Modify(ctx, "example.com", ModifyOptions{Username: &username})
	require.NoError(t, err)

	after, err := m.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "u", after.Username)
	assert.Equal(t, before.Salt, after.Salt, "username change must keep the salt")
}

func TestModify_Missing(t *testing.T) {
	m := newSQLiteManager(t)

	_, err := m.Modify(context.Background(), "missing", ModifyOptions{RegenerateSalt: true})
	assert.ErrorIs(t, err, ErrNoSuchRecord)
}

func TestTransient_NeverPersisted(t *testing.T) {
	ctx := context.Background()
	m := newSQLiteManager(t)

	r, err := m.Transient("example.com", "NaCl", record.Options{})
	require.NoError(t, err)
	assert.True(t, r.Transient)

	key, err := r.DeriveKey("secret")
	require.NoError(t, err)
	assert.Equal(t, "Ae[GFb=_(o|5uM*)", key)

	_, err = m.Get(ctx, "example.com")
	assert.ErrorIs(t, err, ErrNoSuchRecord)
}

func TestTransient_WorksUnbootstrapped(t *testing.T) {
	r, err := New().Transient("example.com", "NaCl", record.Options{})
	require.NoError(t, err)
	assert.Equal(t, "NaCl", r.Salt)
}
