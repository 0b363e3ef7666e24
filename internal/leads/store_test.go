package leads

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/schoolbot/core/database"
)

func newTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	cfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	require.NoError(t, coredatabase.RunMigrations(cfg, Migrations, "migrations"))
	db, err := coredatabase.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), db
}

var ignoreCreated = cmpopts.IgnoreFields(Lead{}, "CreatedAt")

func sampleLead(id int64) Lead {
	return Lead{
		TgID: id, Name: "Anna", AgeGroup: "Adult", Level: "B1",
		Goal: "IELTS", Schedule: "Tue 7pm UTC+5", Contact: "no contact",
	}
}

func TestCountEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGetMissingIsNotAnError(t *testing.T) {
	s, _ := newTestStore(t)
	l, ok, err := s.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Lead{}, l)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	in := sampleLead(100)

	require.NoError(t, s.Upsert(ctx, in))
	first, ok, err := s.Get(ctx, in.TgID)
	require.NoError(t, err)
	require.True(t, ok)
	n1, err := s.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, in))
	second, ok, err := s.Get(ctx, in.TgID)
	require.NoError(t, err)
	require.True(t, ok)
	n2, err := s.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, n1)
	assert.Equal(t, n1, n2)
	if diff := cmp.Diff(in, second, ignoreCreated); diff != "" {
		t.Fatalf("stored lead mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, first, second)
}

func TestUpsertReplacesFieldsKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, sampleLead(7)))
	_, err := db.ExecContext(ctx, `UPDATE leads SET created_at = '2020-01-02 03:04:05' WHERE tg_id = 7`)
	require.NoError(t, err)
	before, _, err := s.Get(ctx, 7)
	require.NoError(t, err)

	updated := Lead{TgID: 7, Name: "Anna K", AgeGroup: "Teen", Level: "A2", Goal: "work", Schedule: "Mon", Contact: "@anna"}
	require.NoError(t, s.Upsert(ctx, updated))

	after, ok, err := s.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(updated, after, ignoreCreated); diff != "" {
		t.Fatalf("stored lead mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.Equal(t, 2020, after.CreatedAt.Year())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCountDistinctIdentities(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, id := range []int64{1, 2, 3, 2} {
		require.NoError(t, s.Upsert(ctx, sampleLead(id)))
	}
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStorageErrors(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)

	err := s.Upsert(ctx, Lead{Name: "no id"})
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, ErrMissingID)

	require.NoError(t, db.Close())
	_, err = s.Count(ctx)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "count", se.Op)
	assert.Equal(t, "STORAGE_ERROR", se.Code())

	err = s.Upsert(ctx, sampleLead(1))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "upsert", se.Op)
}
