package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	"connect-system/internal/session"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
)

type orderFixture struct {
	*routingFixture
	service OrderServiceInterface
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := newRoutingFixture(t)
	store := session.NewStore(repositories.NewMemoryCacheRepository(), zap.NewNop(), time.Hour, time.Hour)
	return &orderFixture{
		routingFixture: f,
		service:        NewOrderService(f.orders, f.users, store, zap.NewNop()),
	}
}

func TestNewApplicationNumber(t *testing.T) {
	number := newApplicationNumber(entities.KindConnection)
	assert.True(t, strings.HasPrefix(number, "CO-"))
	assert.Len(t, number, 11)

	assert.True(t, strings.HasPrefix(newApplicationNumber(entities.KindTechnician), "TO-"))
	assert.True(t, strings.HasPrefix(newApplicationNumber(entities.KindStaff), "SO-"))

	// Номера не повторяются.
	assert.NotEqual(t, newApplicationNumber(entities.KindConnection), newApplicationNumber(entities.KindConnection))
}

func TestOrderService_CreateConnectionOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	resp, err := f.service.CreateConnectionOrder(ctx, testClientID, dto.CreateConnectionOrderDTO{
		ClientID: testClientID,
		Region:   "Ташкент",
		Address:  "ул. Навои, 15",
		Tariff:   "100 Мбит/с",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInJuniorManager, resp.Status)
	require.NotNil(t, resp.AssigneeRole)
	assert.Equal(t, constants.RoleJuniorManager, *resp.AssigneeRole)
	require.NotNil(t, resp.Tariff)
	assert.Equal(t, "100 Мбит/с", *resp.Tariff)
}

func TestOrderService_CreateStaffOrderResolvesClientByPhone(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	d := dto.CreateStaffOrderDTO{
		Phone:       "+998901234567",
		Region:      "Самарканд",
		Address:     "ул. Регистан, 1",
		Description: "Не работает интернет",
	}

	// Клиента с таким телефоном нет: профиль заводится автоматически.
	resp, err := f.service.CreateStaffOrder(ctx, testJMID, d)
	require.NoError(t, err)

	client, err := f.users.FindUserByPhone(ctx, d.Phone)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleClient, client.Role)
	assert.Equal(t, client.ID, resp.ClientID)

	// Повторная заявка с тем же телефоном привязывается к тому же клиенту.
	resp2, err := f.service.CreateStaffOrder(ctx, testJMID, d)
	require.NoError(t, err)
	assert.Equal(t, client.ID, resp2.ClientID)
}

func TestOrderService_ListMyOrdersSpansAllKinds(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	f.seedOrder(entities.KindConnection, constants.StatusInJuniorManager, 0)
	f.seedOrder(entities.KindTechnician, constants.StatusCompleted, 0)

	orders, err := f.service.ListMyOrders(ctx, testClientID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestOrderService_JMNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInJuniorManager, 0)

	require.NoError(t, f.service.BeginJMNote(ctx, testJMID, ref, "Клиент на связи"))
	require.NoError(t, f.service.UpdateJMNote(ctx, testJMID, "Клиент на связи после 18:00"))

	resp, err := f.service.ConfirmJMNote(ctx, testJMID)
	require.NoError(t, err)
	require.NotNil(t, resp.JMNotes)
	assert.Equal(t, "Клиент на связи после 18:00", *resp.JMNotes)

	// Черновик подтверждён и исчез.
	err = f.service.UpdateJMNote(ctx, testJMID, "ещё текст")
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)
}

func TestOrderService_JMNoteGuards(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	t.Run("не младший менеджер", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInJuniorManager, 0)
		err := f.service.BeginJMNote(ctx, testControllerID, ref, "текст")
		assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)
	})

	t.Run("заявка уже ушла дальше", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInController, 0)
		err := f.service.BeginJMNote(ctx, testJMID, ref, "текст")
		assert.ErrorIs(t, err, apperrors.ErrStatusMismatch)
	})
}

func TestOrderService_SetControllerNotes(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	ref := f.seedOrder(entities.KindConnection, constants.StatusInController, 0)

	resp, err := f.service.SetControllerNotes(ctx, testControllerID, ref, "Подключить до пятницы")
	require.NoError(t, err)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "Подключить до пятницы", *resp.Notes)

	_, err = f.service.SetControllerNotes(ctx, testJMID, ref, "текст")
	assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)
}

func TestOrderService_RateOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	t.Run("оценка завершённой заявки", func(t *testing.T) {
		ref := f.seedOrder(entities.KindConnection, constants.StatusCompleted, 0)
		require.NoError(t, f.service.RateOrder(ctx, testClientID, ref, 5))

		order, err := f.orders.FindOrder(ctx, ref)
		require.NoError(t, err)
		require.True(t, order.Rating.Valid)
		assert.Equal(t, 5, order.Rating.Int)
	})

	t.Run("незавершённую заявку оценить нельзя", func(t *testing.T) {
		ref := f.seedOrder(entities.KindConnection, constants.StatusInTechnicianWork, testTechnicianID)
		err := f.service.RateOrder(ctx, testClientID, ref, 4)
		assert.ErrorIs(t, err, apperrors.ErrOrderNotComplete)
	})

	t.Run("чужую заявку оценить нельзя", func(t *testing.T) {
		ref := f.seedOrder(entities.KindConnection, constants.StatusCompleted, 0)
		err := f.service.RateOrder(ctx, testJMID, ref, 3)
		assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)
	})

	t.Run("оценка вне диапазона", func(t *testing.T) {
		ref := f.seedOrder(entities.KindConnection, constants.StatusCompleted, 0)
		var invalidInput *apperrors.InvalidInputError
		assert.ErrorAs(t, f.service.RateOrder(ctx, testClientID, ref, 0), &invalidInput)
		assert.ErrorAs(t, f.service.RateOrder(ctx, testClientID, ref, 6), &invalidInput)
	})
}
