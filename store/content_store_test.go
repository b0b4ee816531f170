package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/store/storetest"
)

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T, s store.ContentStore, recs ...models.ContentRecord) {
	t.Helper()
	for i := range recs {
		require.NoError(t, s.Put(context.Background(), &recs[i]))
	}
}

func TestContentStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := store.NewContentStore(storetest.NewDB(t))

	rec := models.ContentRecord{
		ID:          "exercise_1",
		Title:       "Exercise 1",
		ContentType: models.ContentExercise,
		Order:       1,
		Content:     "<h2>Exercise 1</h2>",
	}
	require.NoError(t, s.Put(ctx, &rec))
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.Get(ctx, "exercise_1")
	require.NoError(t, err)
	assert.Equal(t, "Exercise 1", got.Title)
	assert.True(t, got.IsTopLevel())

	_, err = s.Get(ctx, "exercise_404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestContentStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := store.NewContentStore(storetest.NewDB(t))

	seed(t, s, models.ContentRecord{ID: "step_1_1_1", Title: "Step 1", ContentType: models.ContentStep, ParentID: ptr("exercise_1_1"), Order: 1})
	seed(t, s, models.ContentRecord{ID: "step_1_1_1", Title: "Step One", ContentType: models.ContentStep, ParentID: ptr("exercise_1_1"), Order: 1})

	all, err := s.List(ctx, store.ContentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Step One", all[0].Title)
}

func TestContentStoreList(t *testing.T) {
	ctx := context.Background()
	s := store.NewContentStore(storetest.NewDB(t))
	seed(t, s,
		models.ContentRecord{ID: "exercise_2", Title: "Two", ContentType: models.ContentExercise, Order: 2},
		models.ContentRecord{ID: "exercise_1", Title: "One", ContentType: models.ContentExercise, Order: 1},
		models.ContentRecord{ID: "exercise_3", Title: "Three", ContentType: models.ContentExercise, Order: 3, IsHidden: true},
		models.ContentRecord{ID: "exercise_1_1", Title: "One.One", ContentType: models.ContentExercise, ParentID: ptr("exercise_1"), Order: 1},
		models.ContentRecord{ID: "references_1_1", Title: "References", ContentType: models.ContentReference, ParentID: ptr("exercise_1_1"), Order: models.ReferencesOrder},
		models.ContentRecord{ID: "step_1_1_2", Title: "Step 2", ContentType: models.ContentStep, ParentID: ptr("exercise_1_1"), Order: 2},
		models.ContentRecord{ID: "step_1_1_1", Title: "Step 1", ContentType: models.ContentStep, ParentID: ptr("exercise_1_1"), Order: 1},
	)

	ids := func(recs []models.ContentRecord) []string {
		var out []string
		for _, r := range recs {
			out = append(out, r.ID)
		}
		return out
	}

	t.Run("top level exercises", func(t *testing.T) {
		recs, err := s.List(ctx, store.ContentFilter{ContentType: models.ContentExercise, TopLevel: true, SkipHidden: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"exercise_1", "exercise_2"}, ids(recs))
	})
	t.Run("hidden included", func(t *testing.T) {
		recs, err := s.List(ctx, store.ContentFilter{ContentType: models.ContentExercise, TopLevel: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"exercise_1", "exercise_2", "exercise_3"}, ids(recs))
	})
	t.Run("children ordered with references last", func(t *testing.T) {
		recs, err := s.List(ctx, store.ContentFilter{ParentID: "exercise_1_1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"step_1_1_1", "step_1_1_2", "references_1_1"}, ids(recs))
	})
	t.Run("steps only", func(t *testing.T) {
		recs, err := s.List(ctx, store.ContentFilter{ContentType: models.ContentStep, ParentID: "exercise_1_1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"step_1_1_1", "step_1_1_2"}, ids(recs))
	})
}

func TestContentStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := store.NewContentStore(storetest.NewDB(t))
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, s, models.ContentRecord{
		ID: "exercise_1", Title: "Old", Content: "<p>body</p>", ContentType: models.ContentExercise,
		Order: 1, CreatedAt: old, UpdatedAt: old,
	})

	got, err := s.Update(ctx, "exercise_1", models.ContentPatch{Title: ptr("New"), IsHidden: ptr(true), Order: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "<p>body</p>", got.Content, "untouched field must survive")
	assert.True(t, got.IsHidden)
	assert.Equal(t, 0, got.Order)
	assert.True(t, got.UpdatedAt.After(old))
	assert.True(t, got.CreatedAt.Equal(old))

	_, err = s.Update(ctx, "missing", models.ContentPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestContentStoreDeleteDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	s := store.NewContentStore(storetest.NewDB(t))
	seed(t, s,
		models.ContentRecord{ID: "exercise_1_1", Title: "Parent", ContentType: models.ContentExercise, ParentID: ptr("exercise_1"), Order: 1},
		models.ContentRecord{ID: "step_1_1_1", Title: "Step 1", ContentType: models.ContentStep, ParentID: ptr("exercise_1_1"), Order: 1},
	)

	require.NoError(t, s.Delete(ctx, "exercise_1_1"))
	assert.ErrorIs(t, s.Delete(ctx, "exercise_1_1"), store.ErrNotFound)

	orphan, err := s.Get(ctx, "step_1_1_1")
	require.NoError(t, err)
	assert.Equal(t, "exercise_1_1", orphan.Parent())
}
