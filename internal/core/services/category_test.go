package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

func TestCategoryService_SetWeight_CreatesCategory(t *testing.T) {
	store := newMockCategoryStore()
	svc := NewCategoryService(store)

	err := svc.SetWeight(context.Background(), "user-1", "work", 2.5)

	require.NoError(t, err)
	cat, err := store.Get(context.Background(), "user-1", "work")
	require.NoError(t, err)
	assert.Equal(t, 2.5, cat.Weight)
	assert.False(t, cat.UpdatedAt.IsZero())
}

func TestCategoryService_SetWeight_UpdatesExisting(t *testing.T) {
	store := newMockCategoryStore()
	svc := NewCategoryService(store)

	require.NoError(t, svc.SetWeight(context.Background(), "user-1", "work", 1.0))
	require.NoError(t, svc.SetWeight(context.Background(), "user-1", "work", 3.0))

	cat, err := store.Get(context.Background(), "user-1", "work")
	require.NoError(t, err)
	assert.Equal(t, 3.0, cat.Weight)
}

func TestCategoryService_SetWeight_Validation(t *testing.T) {
	svc := NewCategoryService(newMockCategoryStore())

	err := svc.SetWeight(context.Background(), "user-1", "", 1.0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.SetWeight(context.Background(), "user-1", "work", -0.5)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCategoryService_RecordUsage(t *testing.T) {
	store := newMockCategoryStore()
	svc := NewCategoryService(store)

	err := svc.RecordUsage(context.Background(), "user-1", []string{"work", "meetings"})
	require.NoError(t, err)
	err = svc.RecordUsage(context.Background(), "user-1", []string{"work"})
	require.NoError(t, err)

	work, err := store.Get(context.Background(), "user-1", "work")
	require.NoError(t, err)
	assert.Equal(t, 2, work.UsageCount)
	assert.Equal(t, DefaultCategoryWeight, work.Weight)

	meetings, err := store.Get(context.Background(), "user-1", "meetings")
	require.NoError(t, err)
	assert.Equal(t, 1, meetings.UsageCount)
}

func TestCategoryService_RecordUsage_SkipsEmptyNames(t *testing.T) {
	store := newMockCategoryStore()
	svc := NewCategoryService(store)

	err := svc.RecordUsage(context.Background(), "user-1", []string{"", "work", ""})

	require.NoError(t, err)
	cats, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestCategoryService_RecordUsage_PreservesWeight(t *testing.T) {
	store := newMockCategoryStore()
	svc := NewCategoryService(store)

	require.NoError(t, svc.SetWeight(context.Background(), "user-1", "work", 4.0))
	require.NoError(t, svc.RecordUsage(context.Background(), "user-1", []string{"work"}))

	cat, err := store.Get(context.Background(), "user-1", "work")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cat.Weight)
	assert.Equal(t, 1, cat.UsageCount)
}
