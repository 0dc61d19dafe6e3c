package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/events"
	"connect-system/internal/repositories"
	"connect-system/pkg/eventbus"
)

// DocumentGenerator формирует завершающий документ по заявке (акт
// выполненных работ). Сбой генерации не влияет на сам переход.
type DocumentGenerator interface {
	Generate(ctx context.Context, order entities.Order, lines []entities.ConsumedLine) (string, error)
}

// FileDocumentGenerator пишет акт в локальный каталог документов.
type FileDocumentGenerator struct {
	dir    string
	logger *zap.Logger
}

func NewFileDocumentGenerator(dir string, logger *zap.Logger) DocumentGenerator {
	return &FileDocumentGenerator{dir: dir, logger: logger}
}

func (g *FileDocumentGenerator) Generate(ctx context.Context, order entities.Order, lines []entities.ConsumedLine) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("не удалось создать каталог документов: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "АКТ ВЫПОЛНЕННЫХ РАБОТ\n")
	fmt.Fprintf(&b, "Заявка №%s (%s)\n", order.ApplicationNumber, order.Kind)
	fmt.Fprintf(&b, "Статус: %s\n\n", order.Status)
	if len(lines) == 0 {
		b.WriteString("Материалы не использовались.\n")
	} else {
		b.WriteString("Израсходованные материалы:\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "  - %s: %d шт.\n", l.MaterialName, l.Quantity)
		}
	}

	name := fmt.Sprintf("akt_%s_%s.txt", order.ApplicationNumber, uuid.NewString())
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("не удалось записать документ: %w", err)
	}
	return path, nil
}

// BuildConsumedSummary - текстовая сводка расхода материалов для клиента
// и для карточки заявки.
func BuildConsumedSummary(lines []entities.ConsumedLine) string {
	if len(lines) == 0 {
		return "Материалы не использовались."
	}
	var b strings.Builder
	b.WriteString("Израсходованные материалы:")
	for _, l := range lines {
		fmt.Fprintf(&b, "\n- %s: %d шт.", l.MaterialName, l.Quantity)
	}
	return b.String()
}

type CompletionServiceInterface interface {
	// Finish завершает работы: переход в completed, сводка материалов,
	// уведомление клиента с запросом оценки, акт по возможности.
	Finish(ctx context.Context, ref entities.OrderRef, actorID uint64) (*dto.RoutingResultDTO, error)
}

type CompletionService struct {
	routing      RoutingServiceInterface
	orderRepo    repositories.OrderRepositoryInterface
	materialRepo repositories.MaterialRepositoryInterface
	docs         DocumentGenerator
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewCompletionService(
	routing RoutingServiceInterface,
	orderRepo repositories.OrderRepositoryInterface,
	materialRepo repositories.MaterialRepositoryInterface,
	docs DocumentGenerator,
	bus *eventbus.Bus,
	logger *zap.Logger,
) CompletionServiceInterface {
	return &CompletionService{
		routing:      routing,
		orderRepo:    orderRepo,
		materialRepo: materialRepo,
		docs:         docs,
		bus:          bus,
		logger:       logger,
	}
}

func (s *CompletionService) Finish(ctx context.Context, ref entities.OrderRef, actorID uint64) (*dto.RoutingResultDTO, error) {
	result, err := s.routing.Execute(ctx, ref, ActionFinish, actorID, nil)
	if err != nil {
		return nil, err
	}

	// Переход зафиксирован. Всё дальше best-effort: сбои логируются,
	// завершение не откатывается.
	lines, err := s.materialRepo.ConsumedMaterials(ctx, ref)
	if err != nil {
		s.logger.Error("не удалось собрать расход материалов завершённой заявки",
			zap.String("application_number", result.Order.ApplicationNumber), zap.Error(err))
		lines = nil
	}
	summary := BuildConsumedSummary(lines)

	if err := s.orderRepo.SetConsumedSummary(ctx, nil, ref, summary); err != nil {
		s.logger.Error("не удалось сохранить сводку материалов",
			zap.String("application_number", result.Order.ApplicationNumber), zap.Error(err))
	} else {
		result.Order.ConsumedSummary.SetValid(summary)
	}

	s.bus.Publish(ctx, events.OrderCompletedEvent{
		TxID:            uuid.NewString(),
		Order:           result.Order,
		ConsumedSummary: summary,
		ActorID:         actorID,
	})

	if s.docs != nil {
		if path, err := s.docs.Generate(ctx, result.Order, lines); err != nil {
			s.logger.Error("не удалось сформировать акт выполненных работ",
				zap.String("application_number", result.Order.ApplicationNumber), zap.Error(err))
		} else {
			s.logger.Info("акт выполненных работ сформирован",
				zap.String("application_number", result.Order.ApplicationNumber),
				zap.String("path", path))
		}
	}

	resp := toRoutingResultDTO(result)
	return &resp, nil
}
