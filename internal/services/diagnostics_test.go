package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	"connect-system/internal/session"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
)

type diagnosticsFixture struct {
	*routingFixture
	store       session.StoreInterface
	diagnostics DiagnosticsServiceInterface
}

func newDiagnosticsFixture(t *testing.T) *diagnosticsFixture {
	t.Helper()
	f := newRoutingFixture(t)
	store := session.NewStore(repositories.NewMemoryCacheRepository(), zap.NewNop(), time.Hour, time.Hour)
	return &diagnosticsFixture{
		routingFixture: f,
		store:          store,
		diagnostics:    NewDiagnosticsService(f.orders, f.users, store, zap.NewNop()),
	}
}

func TestDiagnosticsService_DraftLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newDiagnosticsFixture(t)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)

	draft, err := f.diagnostics.BeginDraft(ctx, testTechnicianID, ref, "Обрыв кабеля")
	require.NoError(t, err)
	assert.Equal(t, "Обрыв кабеля", draft.Text)

	// Текст правится в сессии, заявка пока не тронута.
	draft, err = f.diagnostics.UpdateDraft(ctx, testTechnicianID, "Обрыв кабеля на вводе, требуется замена")
	require.NoError(t, err)
	assert.Equal(t, "Обрыв кабеля на вводе, требуется замена", draft.Text)

	order, err := f.orders.FindOrder(ctx, ref)
	require.NoError(t, err)
	assert.False(t, order.Diagnostics().Valid)

	// Подтверждение переносит текст в заявку и убирает черновик.
	resp, err := f.diagnostics.ConfirmDraft(ctx, testTechnicianID)
	require.NoError(t, err)
	require.NotNil(t, resp.Diagnostics)
	assert.Equal(t, "Обрыв кабеля на вводе, требуется замена", *resp.Diagnostics)

	_, err = f.diagnostics.GetDraft(ctx, testTechnicianID)
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)
}

func TestDiagnosticsService_BeginDraftGuards(t *testing.T) {
	ctx := context.Background()
	f := newDiagnosticsFixture(t)

	t.Run("подключение диагностики не ведёт", func(t *testing.T) {
		ref := f.seedOrder(entities.KindConnection, constants.StatusInTechnicianWork, testTechnicianID)
		_, err := f.diagnostics.BeginDraft(ctx, testTechnicianID, ref, "текст")
		require.Error(t, err)
		var invalidInput *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalidInput)
	})

	t.Run("работы не начаты", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnician, testTechnicianID)
		_, err := f.diagnostics.BeginDraft(ctx, testTechnicianID, ref, "текст")
		assert.ErrorIs(t, err, apperrors.ErrStatusMismatch)
	})

	t.Run("чужая заявка", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnician2)
		_, err := f.diagnostics.BeginDraft(ctx, testTechnicianID, ref, "текст")
		assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)
	})

	t.Run("не техник", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)
		_, err := f.diagnostics.BeginDraft(ctx, testControllerID, ref, "текст")
		assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)
	})
}

func TestDiagnosticsService_DiscardDraft(t *testing.T) {
	ctx := context.Background()
	f := newDiagnosticsFixture(t)
	ref := f.seedOrder(entities.KindStaff, constants.StatusInTechnicianWork, testTechnicianID)

	_, err := f.diagnostics.BeginDraft(ctx, testTechnicianID, ref, "черновой текст")
	require.NoError(t, err)

	require.NoError(t, f.diagnostics.DiscardDraft(ctx, testTechnicianID))
	_, err = f.diagnostics.GetDraft(ctx, testTechnicianID)
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)

	// Отброшенный черновик в заявку не попал.
	order, err := f.orders.FindOrder(ctx, ref)
	require.NoError(t, err)
	assert.False(t, order.Diagnostics().Valid)
}

func TestDiagnosticsService_UpdateWithoutDraft(t *testing.T) {
	ctx := context.Background()
	f := newDiagnosticsFixture(t)

	_, err := f.diagnostics.UpdateDraft(ctx, testTechnicianID, "текст")
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)
}
