package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"connect-system/internal/entities"
	apperrors "connect-system/pkg/errors"
)

// StatusTransition - охраняемая смена статуса заявки, выполняемая в той же
// транзакции, что и операция над складом. Откат любой части отменяет всё.
type StatusTransition struct {
	Expected string
	To       string
}

// AllotmentView - остаток лимита техника вместе с названием материала.
type AllotmentView struct {
	MaterialID   uint64
	MaterialName string
	Remaining    int64
}

// RequestView - строка списка резервов для склада.
type RequestView struct {
	Request           entities.MaterialRequest
	MaterialName      string
	TechnicianFIO     string
	ApplicationNumber string
}

type MaterialRepositoryInterface interface {
	GetMaterials(ctx context.Context, limit, offset uint64) ([]entities.Material, uint64, error)
	FindMaterial(ctx context.Context, id uint64) (*entities.Material, error)
	RemainingAllotments(ctx context.Context, technicianID uint64) ([]AllotmentView, error)
	// Reserve атомарно списывает остаток склада и лимит техника и накапливает
	// резерв под заявку. guard, если задан, меняет статус заявки в той же
	// транзакции с проверкой ожидаемого текущего статуса.
	Reserve(ctx context.Context, ref entities.OrderRef, technicianID, materialID uint64, quantity int64, guard *StatusTransition) (*entities.MaterialRequest, error)
	// ReleaseForOrder возвращает все резервы заявки на склад и в лимиты.
	ReleaseForOrder(ctx context.Context, ref entities.OrderRef) error
	ConsumedMaterials(ctx context.Context, ref entities.OrderRef) ([]entities.ConsumedLine, error)
	ListRequests(ctx context.Context, kind entities.OrderKind, limit, offset uint64) ([]RequestView, uint64, error)
	CountRequestsByKind(ctx context.Context) (map[entities.OrderKind]uint64, error)
	SetAllotment(ctx context.Context, technicianID, materialID uint64, quantity int64) error
}

type MaterialRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewMaterialRepository(storage *pgxpool.Pool, logger *zap.Logger) MaterialRepositoryInterface {
	return &MaterialRepository{storage: storage, logger: logger}
}

func (r *MaterialRepository) GetMaterials(ctx context.Context, limit, offset uint64) ([]entities.Material, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM materials`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта материалов: %w", err)
	}

	rows, err := r.storage.Query(ctx, `
		SELECT id, name, price, description, stock_quantity, created_at, updated_at
		FROM materials ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения каталога материалов: %w", err)
	}
	defer rows.Close()

	materials := make([]entities.Material, 0)
	for rows.Next() {
		var m entities.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Description, &m.StockQuantity, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования материала: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, total, rows.Err()
}

func (r *MaterialRepository) FindMaterial(ctx context.Context, id uint64) (*entities.Material, error) {
	var m entities.Material
	err := r.storage.QueryRow(ctx, `
		SELECT id, name, price, description, stock_quantity, created_at, updated_at
		FROM materials WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Price, &m.Description, &m.StockQuantity, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrMaterialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска материала: %w", err)
	}
	return &m, nil
}

func (r *MaterialRepository) RemainingAllotments(ctx context.Context, technicianID uint64) ([]AllotmentView, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT a.material_id, m.name, a.quantity
		FROM material_allotments a
		JOIN materials m ON m.id = a.material_id
		WHERE a.technician_id = $1
		ORDER BY m.name`, technicianID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения лимитов техника: %w", err)
	}
	defer rows.Close()

	views := make([]AllotmentView, 0)
	for rows.Next() {
		var v AllotmentView
		if err := rows.Scan(&v.MaterialID, &v.MaterialName, &v.Remaining); err != nil {
			return nil, fmt.Errorf("ошибка сканирования лимита: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *MaterialRepository) Reserve(ctx context.Context, ref entities.OrderRef, technicianID, materialID uint64, quantity int64, guard *StatusTransition) (*entities.MaterialRequest, error) {
	if quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	var request entities.MaterialRequest
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var stock int64
		err := tx.QueryRow(ctx, `SELECT stock_quantity FROM materials WHERE id = $1 FOR UPDATE`, materialID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrMaterialNotFound
		}
		if err != nil {
			return fmt.Errorf("ошибка блокировки материала: %w", err)
		}
		if stock < quantity {
			return apperrors.ErrInsufficientStock
		}

		var allotment int64
		err = tx.QueryRow(ctx, `
			SELECT quantity FROM material_allotments
			WHERE technician_id = $1 AND material_id = $2 FOR UPDATE`, technicianID, materialID).Scan(&allotment)
		if errors.Is(err, pgx.ErrNoRows) {
			allotment = 0
		} else if err != nil {
			return fmt.Errorf("ошибка блокировки лимита техника: %w", err)
		}
		if allotment < quantity {
			return apperrors.ErrAllotmentExceeded
		}

		if _, err := tx.Exec(ctx, `UPDATE materials SET stock_quantity = stock_quantity - $1, updated_at = NOW() WHERE id = $2`, quantity, materialID); err != nil {
			return fmt.Errorf("ошибка списания остатка склада: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE material_allotments SET quantity = quantity - $1, updated_at = NOW()
			WHERE technician_id = $2 AND material_id = $3`, quantity, technicianID, materialID); err != nil {
			return fmt.Errorf("ошибка списания лимита техника: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO material_requests (order_kind, order_id, material_id, technician_id, quantity)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (order_kind, order_id, material_id, technician_id)
			DO UPDATE SET quantity = material_requests.quantity + EXCLUDED.quantity, updated_at = NOW()
			RETURNING id, order_kind, order_id, material_id, technician_id, quantity, created_at, updated_at`,
			ref.Kind, ref.ID, materialID, technicianID, quantity).
			Scan(&request.ID, &request.OrderKind, &request.OrderID, &request.MaterialID,
				&request.TechnicianID, &request.Quantity, &request.CreatedAt, &request.UpdatedAt)
		if err != nil {
			return fmt.Errorf("ошибка записи резерва: %w", err)
		}

		if guard != nil {
			tag, err := tx.Exec(ctx,
				fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, ref.Kind.Table()),
				guard.To, ref.ID, guard.Expected)
			if err != nil {
				return fmt.Errorf("ошибка смены статуса заявки при резерве: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return apperrors.ErrStatusMismatch
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *MaterialRepository) ReleaseForOrder(ctx context.Context, ref entities.OrderRef) error {
	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT material_id, technician_id, quantity FROM material_requests
			WHERE order_kind = $1 AND order_id = $2 FOR UPDATE`, ref.Kind, ref.ID)
		if err != nil {
			return fmt.Errorf("ошибка чтения резервов заявки: %w", err)
		}

		type line struct {
			materialID   uint64
			technicianID uint64
			quantity     int64
		}
		lines := make([]line, 0)
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.materialID, &l.technicianID, &l.quantity); err != nil {
				rows.Close()
				return fmt.Errorf("ошибка сканирования резерва: %w", err)
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, l := range lines {
			if _, err := tx.Exec(ctx, `UPDATE materials SET stock_quantity = stock_quantity + $1, updated_at = NOW() WHERE id = $2`, l.quantity, l.materialID); err != nil {
				return fmt.Errorf("ошибка возврата остатка на склад: %w", err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO material_allotments (technician_id, material_id, quantity)
				VALUES ($1, $2, $3)
				ON CONFLICT (technician_id, material_id)
				DO UPDATE SET quantity = material_allotments.quantity + EXCLUDED.quantity, updated_at = NOW()`,
				l.technicianID, l.materialID, l.quantity); err != nil {
				return fmt.Errorf("ошибка возврата лимита техника: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM material_requests WHERE order_kind = $1 AND order_id = $2`, ref.Kind, ref.ID); err != nil {
			return fmt.Errorf("ошибка удаления резервов заявки: %w", err)
		}
		return nil
	})
}

func (r *MaterialRepository) ConsumedMaterials(ctx context.Context, ref entities.OrderRef) ([]entities.ConsumedLine, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT m.name, mr.quantity, m.price
		FROM material_requests mr
		JOIN materials m ON m.id = mr.material_id
		WHERE mr.order_kind = $1 AND mr.order_id = $2
		ORDER BY m.name`, ref.Kind, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения израсходованных материалов: %w", err)
	}
	defer rows.Close()

	lines := make([]entities.ConsumedLine, 0)
	for rows.Next() {
		var l entities.ConsumedLine
		if err := rows.Scan(&l.MaterialName, &l.Quantity, &l.Price); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки расхода: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *MaterialRepository) ListRequests(ctx context.Context, kind entities.OrderKind, limit, offset uint64) ([]RequestView, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM material_requests WHERE order_kind = $1`, kind).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта резервов: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT mr.id, mr.order_kind, mr.order_id, mr.material_id, mr.technician_id, mr.quantity,
		       mr.created_at, mr.updated_at, m.name, u.fio, o.application_number
		FROM material_requests mr
		JOIN materials m ON m.id = mr.material_id
		JOIN users u ON u.id = mr.technician_id
		JOIN %s o ON o.id = mr.order_id
		WHERE mr.order_kind = $1
		ORDER BY mr.created_at ASC
		LIMIT $2 OFFSET $3`, kind.Table())

	rows, err := r.storage.Query(ctx, query, kind, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка резервов: %w", err)
	}
	defer rows.Close()

	views := make([]RequestView, 0)
	for rows.Next() {
		var v RequestView
		if err := rows.Scan(
			&v.Request.ID, &v.Request.OrderKind, &v.Request.OrderID, &v.Request.MaterialID,
			&v.Request.TechnicianID, &v.Request.Quantity, &v.Request.CreatedAt, &v.Request.UpdatedAt,
			&v.MaterialName, &v.TechnicianFIO, &v.ApplicationNumber,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования резерва: %w", err)
		}
		views = append(views, v)
	}
	return views, total, rows.Err()
}

func (r *MaterialRepository) CountRequestsByKind(ctx context.Context) (map[entities.OrderKind]uint64, error) {
	rows, err := r.storage.Query(ctx, `SELECT order_kind, COUNT(*) FROM material_requests GROUP BY order_kind`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта резервов по видам: %w", err)
	}
	defer rows.Close()

	counts := make(map[entities.OrderKind]uint64)
	for rows.Next() {
		var kind entities.OrderKind
		var count uint64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счётчика резервов: %w", err)
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

func (r *MaterialRepository) SetAllotment(ctx context.Context, technicianID, materialID uint64, quantity int64) error {
	if quantity < 0 {
		return apperrors.ErrInvalidQuantity
	}
	_, err := r.storage.Exec(ctx, `
		INSERT INTO material_allotments (technician_id, material_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (technician_id, material_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()`,
		technicianID, materialID, quantity)
	if err != nil {
		return fmt.Errorf("ошибка установки лимита техника: %w", err)
	}
	return nil
}
