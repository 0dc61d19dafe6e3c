package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	apperrors "connect-system/pkg/errors"
)

func newTestStore() StoreInterface {
	return NewStore(repositories.NewMemoryCacheRepository(), zap.NewNop(), time.Hour, time.Hour)
}

func TestStore_ViewRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	view := NewInboxView("inbox", NavClamp, makeOrders(entities.KindTechnician, 1, 2, 3))
	view.Idx = 2
	require.NoError(t, store.SaveView(ctx, 42, view))

	loaded, err := store.LoadView(ctx, 42, "inbox")
	require.NoError(t, err)
	assert.Equal(t, view.Category, loaded.Category)
	assert.Equal(t, view.Policy, loaded.Policy)
	assert.Equal(t, view.Idx, loaded.Idx)
	require.Equal(t, view.Len(), loaded.Len())
	assert.Equal(t, view.Items[2].Ref(), loaded.Items[2].Ref())
}

func TestStore_ViewsAreIsolatedByUserAndCategory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	inbox := NewInboxView("inbox", NavClamp, makeOrders(entities.KindTechnician, 1))
	queue := NewInboxView("queue", NavWrap, makeOrders(entities.KindConnection, 2))
	require.NoError(t, store.SaveView(ctx, 1, inbox))
	require.NoError(t, store.SaveView(ctx, 1, queue))

	// Чужой пользователь состояния не видит.
	_, err := store.LoadView(ctx, 2, "inbox")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	// Две категории одного пользователя живут независимо.
	loaded, err := store.LoadView(ctx, 1, "queue")
	require.NoError(t, err)
	assert.Equal(t, NavWrap, loaded.Policy)
}

func TestStore_DeleteView(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	require.NoError(t, store.SaveView(ctx, 7, NewInboxView("warehouse", NavClamp, nil)))
	require.NoError(t, store.DeleteView(ctx, 7, "warehouse"))

	_, err := store.LoadView(ctx, 7, "warehouse")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestStore_CorruptedViewIsDiscarded(t *testing.T) {
	ctx := context.Background()
	cache := repositories.NewMemoryCacheRepository()
	store := NewStore(cache, zap.NewNop(), time.Hour, time.Hour)

	require.NoError(t, cache.Set(ctx, "inbox:9:inbox", "{не json", time.Hour))

	_, err := store.LoadView(ctx, 9, "inbox")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	// Повреждённая запись должна быть вычищена из кеша.
	_, err = cache.Get(ctx, "inbox:9:inbox")
	assert.ErrorIs(t, err, repositories.ErrCacheMiss)
}

func TestStore_DiagnosticsDraftRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	draft := DiagnosticsDraft{
		OrderRef: entities.OrderRef{Kind: entities.KindTechnician, ID: 11},
		Text:     "Обрыв кабеля на вводе",
	}
	require.NoError(t, store.SaveDraft(ctx, 5, draft))

	loaded, err := store.LoadDraft(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, draft, *loaded)

	require.NoError(t, store.DeleteDraft(ctx, 5))
	_, err = store.LoadDraft(ctx, 5)
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)
}

func TestStore_NoteDraftIndependentFromDiagnostics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	note := NoteDraft{
		OrderRef: entities.OrderRef{Kind: entities.KindStaff, ID: 3},
		Text:     "Клиент просил перезвонить после 18:00",
	}
	require.NoError(t, store.SaveNoteDraft(ctx, 5, note))

	// Черновик заметки не должен быть виден как черновик диагноза.
	_, err := store.LoadDraft(ctx, 5)
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)

	loaded, err := store.LoadNoteDraft(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, note, *loaded)
}
