// ABOUTME: Tests for slot persistence, backup recovery, and error kinds.
// ABOUTME: Covers the load/save guarantees and the recipe lifecycle scenarios.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/cookbook/internal/kv"
	"github.com/harper/cookbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyKV wraps a memory store and fails writes to selected keys.
type flakyKV struct {
	*kv.Memory
	failSet map[string]error
}

func newFlakyKV() *flakyKV {
	return &flakyKV{Memory: kv.NewMemory(), failSet: map[string]error{}}
}

func (f *flakyKV) Set(key string, value []byte) error {
	if err, ok := f.failSet[key]; ok {
		return err
	}
	return f.Memory.Set(key, value)
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func sampleRecipes() []models.Recipe {
	created := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	return []models.Recipe{
		{
			ID: "1", Title: "Soup", Date: "2024-01-02", Rating: 3,
			Instructions: "Boil", Notes: "", Images: []string{},
			Created: created, Modified: created,
		},
		{
			ID: "2", Title: "Pie", Date: "2023-11-30", Rating: 5,
			Instructions: "Bake", Notes: "grandma's", Images: []string{"data:image/jpeg;base64,AAAA"},
			Created: created, Modified: created.Add(time.Hour),
		},
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())

	want := sampleRecipes()
	require.NoError(t, s.Save(ctx, want))

	got := s.Load(ctx)
	assert.Equal(t, want, got)
}

func TestSaveMirrorsBackupAndClearsDraft(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	require.NoError(t, s.SaveDraft(ctx, models.NewDraft("", "t", "", 0, "", "", nil)))
	require.NoError(t, s.Save(ctx, sampleRecipes()))

	primary, err := mem.Get(PrimaryKey)
	require.NoError(t, err)
	backup, err := mem.Get(BackupKey)
	require.NoError(t, err)
	assert.Equal(t, primary, backup)

	_, err = s.LoadDraft(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestLoadEmptyStore(t *testing.T) {
	s := New(kv.NewMemory())
	got := s.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadRestoresDeletedPrimaryFromBackup(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	want := sampleRecipes()
	require.NoError(t, s.Save(ctx, want))
	require.NoError(t, mem.Delete(PrimaryKey))

	assert.Equal(t, want, s.Load(ctx))

	primary, err := mem.Get(PrimaryKey)
	require.NoError(t, err, "primary slot should be repaired")
	backup, _ := mem.Get(BackupKey)
	assert.Equal(t, backup, primary)
}

func TestLoadFallsBackWhenPrimaryCorrupt(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	want := sampleRecipes()
	require.NoError(t, s.Save(ctx, want))
	require.NoError(t, mem.Set(PrimaryKey, []byte("{not json")))

	assert.Equal(t, want, s.Load(ctx))

	primary, _ := mem.Get(PrimaryKey)
	backup, _ := mem.Get(BackupKey)
	assert.Equal(t, backup, primary)
}

func TestLoadRefreshesStaleBackup(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	require.NoError(t, mem.Set(PrimaryKey, []byte(`[{"id":"x","title":"T","date":"2024-01-01","rating":1,"instructions":"i","notes":"","images":[],"created":"2024-01-01T00:00:00.000Z","modified":"2024-01-01T00:00:00.000Z"}]`)))

	got := s.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)

	backup, err := mem.Get(BackupKey)
	require.NoError(t, err)
	primary, _ := mem.Get(PrimaryKey)
	assert.Equal(t, primary, backup)
}

func TestLoadBothCorruptStartsEmpty(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(PrimaryKey, []byte("garbage")))
	require.NoError(t, mem.Set(BackupKey, []byte("more garbage")))

	got := New(mem).Load(context.Background())
	assert.Empty(t, got)
}

func TestLoadAcceptsNullImages(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(PrimaryKey, []byte(`[{"id":"a","title":"T","date":"2024-01-01","rating":0,"instructions":"i","notes":"","images":null,"created":"2024-01-01T00:00:00Z","modified":"2024-01-01T00:00:00Z"}]`)))

	got := New(mem).Load(context.Background())
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Images)
}

func TestSaveReportsStorageFull(t *testing.T) {
	ctx := context.Background()
	q, err := kv.NewQuota(kv.NewMemory(), 64)
	require.NoError(t, err)
	s := New(q)

	err = s.Save(ctx, sampleRecipes())
	require.Error(t, err)
	assert.Equal(t, KindStorageFull, KindOf(err))
	assert.True(t, IsStorageFull(err))
	assert.ErrorIs(t, err, kv.ErrQuotaExceeded)
}

func TestSaveReportsGeneralError(t *testing.T) {
	f := newFlakyKV()
	f.failSet[PrimaryKey] = errors.New("disk on fire")
	s := New(f)

	err := s.Save(context.Background(), sampleRecipes())
	require.Error(t, err)
	assert.Equal(t, KindGeneral, KindOf(err))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "disk on fire", se.Message())
}

func TestSaveRollsBackPrimaryWhenBackupFails(t *testing.T) {
	ctx := context.Background()
	f := newFlakyKV()
	s := New(f)

	original := sampleRecipes()[:1]
	require.NoError(t, s.Save(ctx, original))
	before, _ := f.Get(PrimaryKey)

	f.failSet[BackupKey] = kv.ErrQuotaExceeded
	err := s.Save(ctx, sampleRecipes())
	require.True(t, IsStorageFull(err))

	after, _ := f.Get(PrimaryKey)
	assert.Equal(t, before, after, "primary should be rolled back")
}

func TestSaveRollbackRemovesNewPrimary(t *testing.T) {
	f := newFlakyKV()
	f.failSet[BackupKey] = errors.New("nope")
	s := New(f)

	require.Error(t, s.Save(context.Background(), sampleRecipes()))

	_, err := f.Get(PrimaryKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestUpsertNewRecipe(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())

	r := models.Recipe{Title: "Borš", Date: "2024-05-01", Rating: 4, Instructions: "Keeda...", Notes: "", Images: []string{}}
	saved, err := s.Upsert(ctx, r)
	require.NoError(t, err)

	got := s.Load(ctx)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, saved.ID, got[0].ID)
	assert.Equal(t, "Borš", got[0].Title)
	assert.True(t, got[0].Created.Equal(got[0].Modified), "created should equal modified")
}

func TestUpsertEditKeepsCreated(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), WithClock(stepClock()))

	first, err := s.Upsert(ctx, models.Recipe{ID: "123", Title: "Soup", Date: "2024-01-01", Rating: 3, Instructions: "Boil"})
	require.NoError(t, err)

	edit := first
	edit.Rating = 5
	edit.Created = time.Time{} // the form does not carry created
	_, err = s.Upsert(ctx, edit)
	require.NoError(t, err)

	got, err := s.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
	assert.True(t, got.Created.Equal(first.Created), "created must not change")
	assert.True(t, got.Modified.After(first.Modified), "modified must move forward")
	assert.Len(t, s.Load(ctx), 1)
}

func TestUpsertDoesNotMutateCaller(t *testing.T) {
	s := New(kv.NewMemory())
	r := models.Recipe{Title: "T", Date: "2024-01-01", Instructions: "i", Images: []string{"a"}}

	_, err := s.Upsert(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, r.ID)
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	_, err := s.Upsert(ctx, models.Recipe{ID: "123", Title: "A", Date: "2024-01-01", Instructions: "x"})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, models.Recipe{ID: "456", Title: "B", Date: "2024-01-01", Instructions: "y"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "123"))

	for _, r := range s.Load(ctx) {
		assert.NotEqual(t, "123", r.ID)
	}
	primary, _ := mem.Get(PrimaryKey)
	backup, _ := mem.Get(BackupKey)
	assert.Equal(t, primary, backup)

	assert.ErrorIs(t, s.Delete(ctx, "123"), ErrRecipeNotFound)
}

func TestGetByPrefix(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())
	require.NoError(t, s.Save(ctx, []models.Recipe{
		{ID: "0190aaaa-1111", Title: "A"},
		{ID: "0190aaaa-2222", Title: "B"},
		{ID: "123", Title: "Short"},
	}))

	got, err := s.GetByPrefix(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "Short", got.Title)

	got, err = s.GetByPrefix(ctx, "0190aaaa-1")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)

	_, err = s.GetByPrefix(ctx, "0190aaaa")
	assert.ErrorIs(t, err, ErrAmbiguousPrefix)

	_, err = s.GetByPrefix(ctx, "01")
	assert.ErrorIs(t, err, ErrPrefixTooShort)

	_, err = s.GetByPrefix(ctx, "ffffffff")
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestStoreOnDiskBackends(t *testing.T) {
	for _, backend := range []string{kv.BackendBadger, kv.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			st, err := kv.Open(backend, dir, nil)
			require.NoError(t, err)
			s := New(st)
			want := sampleRecipes()
			require.NoError(t, s.Save(ctx, want))
			require.NoError(t, s.Close())

			st, err = kv.Open(backend, dir, nil)
			require.NoError(t, err)
			s = New(st)
			defer func() { _ = s.Close() }()
			assert.Equal(t, want, s.Load(ctx))
		})
	}
}

func TestUsage(t *testing.T) {
	_, ok := New(kv.NewMemory()).Usage()
	assert.False(t, ok)

	q, err := kv.NewQuota(kv.NewMemory(), 1<<20)
	require.NoError(t, err)
	s := New(q)
	require.NoError(t, s.Save(context.Background(), sampleRecipes()))

	u, ok := s.Usage()
	require.True(t, ok)
	assert.Greater(t, u.Used, int64(0))
}

func TestImportMergesByID(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), WithClock(stepClock()))
	require.NoError(t, s.Save(ctx, sampleRecipes()))

	replacement := sampleRecipes()[1]
	replacement.Title = "Better Pie"
	fresh := models.Recipe{Title: "Bread", Date: "2024-02-02", Instructions: "Knead"}

	n, err := s.Import(ctx, []models.Recipe{replacement, fresh})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recipes := s.Load(ctx)
	require.Len(t, recipes, 3)
	assert.Equal(t, "Better Pie", recipes[1].Title)
	assert.Equal(t, replacement.Modified, recipes[1].Modified, "imported timestamps are kept")
	assert.NotEmpty(t, recipes[2].ID)
	assert.False(t, recipes[2].Created.IsZero())
	assert.Equal(t, recipes[2].Created, recipes[2].Modified)
}

func TestImportRejectsInvalidRecipes(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), WithClock(stepClock()))
	require.NoError(t, s.Save(ctx, sampleRecipes()))

	good := models.Recipe{Title: "Bread", Date: "2024-02-02", Instructions: "Knead"}
	tooMany := models.Recipe{
		ID: "x", Title: "", Date: "2024-02-02", Instructions: "Stir", Rating: 9,
		Images: []string{"a", "b", "c", "d", "e"},
	}

	n, err := s.Import(ctx, []models.Recipe{good, tooMany})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "recipe 2")

	for _, bad := range []models.Recipe{
		{Title: "Rated", Date: "2024-02-02", Instructions: "x", Rating: 9},
		{Title: "Photos", Date: "2024-02-02", Instructions: "x", Images: []string{"a", "b", "c", "d"}},
	} {
		_, err := s.Import(ctx, []models.Recipe{bad})
		assert.ErrorIs(t, err, models.ErrValidation, bad.Title)
	}

	assert.Equal(t, sampleRecipes(), s.Load(ctx), "nothing is written when any recipe is invalid")
}
