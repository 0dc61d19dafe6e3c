package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"connect-system/internal/entities"
	"connect-system/pkg/constants"
	"connect-system/pkg/eventbus"
)

// failingDocGenerator всегда отказывает: завершение заявки от этого
// страдать не должно.
type failingDocGenerator struct{}

func (failingDocGenerator) Generate(ctx context.Context, order entities.Order, lines []entities.ConsumedLine) (string, error) {
	return "", errors.New("диск переполнен")
}

type completionFixture struct {
	*routingFixture
	completion CompletionServiceInterface
}

func newCompletionFixture(t *testing.T, docs DocumentGenerator) *completionFixture {
	t.Helper()
	f := newRoutingFixture(t)
	completion := NewCompletionService(f.routing, f.orders, f.materials, docs, eventbus.New(zap.NewNop()), zap.NewNop())
	return &completionFixture{routingFixture: f, completion: completion}
}

func TestCompletionService_FinishWithMaterials(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t, nil)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)

	f.materials.putMaterial(entities.Material{ID: 1, Name: "Коннектор SC/UPC", StockQuantity: 10})
	require.NoError(t, f.materials.SetAllotment(ctx, testTechnicianID, 1, 10))
	_, err := f.materials.Reserve(ctx, ref, testTechnicianID, 1, 4, nil)
	require.NoError(t, err)

	result, err := f.completion.Finish(ctx, ref, testTechnicianID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, result.ToStatus)

	require.NotNil(t, result.Order.ConsumedSummary)
	assert.Contains(t, *result.Order.ConsumedSummary, "Коннектор SC/UPC: 4 шт.")

	// Сводка дошла и до самой заявки.
	order, err := f.orders.FindOrder(ctx, ref)
	require.NoError(t, err)
	require.True(t, order.ConsumedSummary.Valid)
	assert.Contains(t, order.ConsumedSummary.String, "Коннектор SC/UPC")
}

func TestCompletionService_FinishWithoutMaterials(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t, nil)
	ref := f.seedOrder(entities.KindConnection, constants.StatusInTechnicianWork, testTechnicianID)

	result, err := f.completion.Finish(ctx, ref, testTechnicianID)
	require.NoError(t, err)
	require.NotNil(t, result.Order.ConsumedSummary)
	assert.Equal(t, "Материалы не использовались.", *result.Order.ConsumedSummary)
}

func TestCompletionService_FinishRequiresTransition(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t, nil)
	ref := f.seedOrder(entities.KindConnection, constants.StatusInController, 0)

	// Завершить можно только начатые работы.
	_, err := f.completion.Finish(ctx, ref, testTechnicianID)
	require.Error(t, err)

	order, findErr := f.orders.FindOrder(ctx, ref)
	require.NoError(t, findErr)
	assert.Equal(t, constants.StatusInController, order.Status)
}

func TestCompletionService_DocFailureDoesNotRevertFinish(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t, failingDocGenerator{})
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)

	result, err := f.completion.Finish(ctx, ref, testTechnicianID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, result.ToStatus)
}

func TestCompletionService_SummaryFailureDoesNotRevertFinish(t *testing.T) {
	ctx := context.Background()
	f := newCompletionFixture(t, nil)
	ref := f.seedOrder(entities.KindTechnician, constants.StatusInTechnicianWork, testTechnicianID)
	f.orders.summaryErr = errors.New("соединение с БД потеряно")

	result, err := f.completion.Finish(ctx, ref, testTechnicianID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, result.ToStatus)
	assert.Nil(t, result.Order.ConsumedSummary)
}

func TestFileDocumentGenerator_WritesAct(t *testing.T) {
	dir := t.TempDir()
	gen := NewFileDocumentGenerator(dir, zap.NewNop())

	order := entities.Order{OrderCore: entities.OrderCore{
		Kind:              entities.KindTechnician,
		ApplicationNumber: "TO-ABCD1234",
		Status:            constants.StatusCompleted,
	}}
	lines := []entities.ConsumedLine{{MaterialName: "Кабель", Quantity: 7}}

	path, err := gen.Generate(context.Background(), order, lines)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "АКТ ВЫПОЛНЕННЫХ РАБОТ")
	assert.Contains(t, string(content), "TO-ABCD1234")
	assert.Contains(t, string(content), "Кабель: 7 шт.")
}

func TestBuildConsumedSummary(t *testing.T) {
	assert.Equal(t, "Материалы не использовались.", BuildConsumedSummary(nil))

	summary := BuildConsumedSummary([]entities.ConsumedLine{
		{MaterialName: "Кабель", Quantity: 3},
		{MaterialName: "Коннектор", Quantity: 5},
	})
	assert.Contains(t, summary, "Израсходованные материалы:")
	assert.Contains(t, summary, "- Кабель: 3 шт.")
	assert.Contains(t, summary, "- Коннектор: 5 шт.")
}
