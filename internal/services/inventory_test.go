package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
	"connect-system/pkg/eventbus"
)

type inventoryFixture struct {
	*routingFixture
	inventory InventoryServiceInterface
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	t.Helper()
	f := newRoutingFixture(t)
	inventory := NewInventoryService(f.materials, f.orders, f.users, f.routing, eventbus.New(zap.NewNop()), zap.NewNop())
	return &inventoryFixture{routingFixture: f, inventory: inventory}
}

func (f *inventoryFixture) seedStock(materialID uint64, stock, allotment int64) {
	f.materials.putMaterial(entities.Material{ID: materialID, Name: "Кабель Drop FTTH", StockQuantity: stock})
	_ = f.materials.SetAllotment(context.Background(), testTechnicianID, materialID, allotment)
}

func TestInventoryService_FirstReserveMovesOrderToWarehouse(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture(t)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)
	f.seedStock(1, 10, 5)

	resp, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Quantity)
	assert.Equal(t, "Кабель Drop FTTH", resp.MaterialName)

	order, err := f.orders.FindOrder(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInWarehouse, order.Status)

	material, err := f.materials.FindMaterial(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), material.StockQuantity)
}

func TestInventoryService_RepeatedReserveAccumulates(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture(t)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)
	f.seedStock(1, 10, 10)

	_, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 2})
	require.NoError(t, err)

	// Заявка уже на складе: статус не трогаем, количество накапливается.
	resp, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Quantity)

	order, err := f.orders.FindOrder(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInWarehouse, order.Status)
}

func TestInventoryService_ReserveGuards(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture(t)
	f.seedStock(1, 5, 3)
	d := dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 1}

	t.Run("не техник", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)
		_, err := f.inventory.RequestFromWarehouse(ctx, ref, testControllerID, d)
		assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)
	})

	t.Run("чужая заявка", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnician2)
		_, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, d)
		assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)
	})

	t.Run("работы ещё не начаты", func(t *testing.T) {
		ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnician, testTechnicianID)
		_, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, d)
		assert.ErrorIs(t, err, apperrors.ErrStatusMismatch)
	})
}

func TestInventoryService_StockAndAllotmentLimits(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture(t)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)
	// Склад 5, лимит техника 3.
	f.seedStock(1, 5, 3)

	_, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 6})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	_, err = f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 4})
	assert.ErrorIs(t, err, apperrors.ErrAllotmentExceeded)

	// Отказ ничего не списывает. Квота 3 всё ещё доступна целиком.
	resp, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Quantity)

	material, err := f.materials.FindMaterial(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), material.StockQuantity)

	// Лимит исчерпан.
	_, err = f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrAllotmentExceeded)
}

func TestInventoryService_UnknownMaterial(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture(t)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)

	_, err := f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 99, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrMaterialNotFound)
}

func TestInventoryService_ConcurrentReserveNeverOverdrawsStock(t *testing.T) {
	// Суммарный спрос превышает остаток: часть резервов должна получить
	// отказ, а склад не имеет права уйти в минус.
	ctx := context.Background()
	f := newInventoryFixture(t)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInWarehouse, testTechnicianID)
	f.seedStock(1, 5, 100)

	const attempts = 4
	const perAttempt = int64(2)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.inventory.RequestFromWarehouse(ctx, ref, testTechnicianID,
				dto.ReserveMaterialDTO{MaterialID: 1, Quantity: perAttempt})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 2, wins, "склада хватает ровно на два резерва по две единицы")

	material, err := f.materials.FindMaterial(ctx, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, material.StockQuantity, int64(0), "остаток не может быть отрицательным")
	assert.Equal(t, 5-perAttempt*int64(wins), material.StockQuantity)

	// Зарезервировано не больше, чем было на складе.
	lines, err := f.materials.ConsumedMaterials(ctx, ref)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.LessOrEqual(t, lines[0].Quantity, int64(5))
	assert.Equal(t, perAttempt*int64(wins), lines[0].Quantity)
}

func TestInventoryService_SetAllotmentRoleGate(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture(t)

	err := f.inventory.SetAllotment(ctx, testTechnicianID, testTechnicianID, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrRoleNotAuthorized)

	require.NoError(t, f.inventory.SetAllotment(ctx, testWarehouseID, testTechnicianID, 1, 10))

	err = f.inventory.SetAllotment(ctx, testWarehouseID, testTechnicianID, 1, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
}

func TestInventoryService_CountRequestsByKind(t *testing.T) {
	ctx := context.Background()
	f := newInventoryFixture(t)
	f.seedStock(1, 100, 100)

	techRef := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)
	connRef := f.seedOrder(entities.KindConnection, constants.StatusInTechnicianWork, testTechnicianID)

	_, err := f.inventory.RequestFromWarehouse(ctx, techRef, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 1})
	require.NoError(t, err)
	_, err = f.inventory.RequestFromWarehouse(ctx, connRef, testTechnicianID, dto.ReserveMaterialDTO{MaterialID: 1, Quantity: 1})
	require.NoError(t, err)

	counts, err := f.inventory.CountRequestsByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), counts[string(entities.KindTechnician)])
	assert.Equal(t, uint64(1), counts[string(entities.KindConnection)])
}
