package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"connect-system/internal/entities"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// orderColumns - колонки выборки по видам. Порядок согласован со scan-функциями.
var orderColumns = map[entities.OrderKind]string{
	entities.KindConnection: `id, application_number, status, client_id, assignee_role, assignee_id,
		region, address, tariff, notes, jm_notes, consumed_summary, rating, created_at, updated_at`,
	entities.KindTechnician: `id, application_number, status, client_id, assignee_role, assignee_id,
		abonent_id, region, address, description, diagnostics, notes, jm_notes, consumed_summary, rating, created_at, updated_at`,
	entities.KindStaff: `id, application_number, status, client_id, assignee_role, assignee_id,
		phone, abonent_id, region, address, description, diagnostics, notes, jm_notes, consumed_summary, rating, created_at, updated_at`,
}

// Assignment - новый исполнитель заявки при переходе. Role без UserID
// означает "в общей очереди роли", оба пустых значения снимают назначение.
type Assignment struct {
	Role   null.String
	UserID null.Uint64
}

type OrderRepositoryInterface interface {
	FindOrder(ctx context.Context, ref entities.OrderRef) (*entities.Order, error)
	CreateOrder(ctx context.Context, order entities.Order) (*entities.Order, error)
	// UpdateStatusGuarded меняет статус только если текущий равен expected.
	// Несовпадение означает, что заявку уже увёл параллельный переход.
	UpdateStatusGuarded(ctx context.Context, q Querier, ref entities.OrderRef, expected, to string, assignee *Assignment) error
	ListOrders(ctx context.Context, kind entities.OrderKind, statuses []string, assigneeID *uint64, limit, offset uint64) ([]entities.Order, uint64, error)
	ListOrdersByClient(ctx context.Context, kind entities.OrderKind, clientID uint64) ([]entities.Order, error)
	CountActiveByAssignee(ctx context.Context, role string, userID uint64) (uint64, error)
	SetDiagnostics(ctx context.Context, ref entities.OrderRef, text string) error
	SetNotes(ctx context.Context, ref entities.OrderRef, text string) error
	SetJMNotes(ctx context.Context, ref entities.OrderRef, text string) error
	SetRating(ctx context.Context, ref entities.OrderRef, rating int) error
	SetConsumedSummary(ctx context.Context, q Querier, ref entities.OrderRef, summary string) error
}

type OrderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{storage: storage, logger: logger}
}

func scanOrder(kind entities.OrderKind, row pgx.Row) (*entities.Order, error) {
	o := entities.Order{OrderCore: entities.OrderCore{Kind: kind}}

	var err error
	switch kind {
	case entities.KindConnection:
		d := entities.ConnectionDetails{}
		err = row.Scan(
			&o.ID, &o.ApplicationNumber, &o.Status, &o.ClientID, &o.AssigneeRole, &o.AssigneeID,
			&d.Region, &d.Address, &d.Tariff,
			&o.Notes, &o.JMNotes, &o.ConsumedSummary, &o.Rating, &o.CreatedAt, &o.UpdatedAt,
		)
		o.Connection = &d
	case entities.KindTechnician:
		d := entities.TechnicianDetails{}
		err = row.Scan(
			&o.ID, &o.ApplicationNumber, &o.Status, &o.ClientID, &o.AssigneeRole, &o.AssigneeID,
			&d.AbonentID, &d.Region, &d.Address, &d.Description, &d.Diagnostics,
			&o.Notes, &o.JMNotes, &o.ConsumedSummary, &o.Rating, &o.CreatedAt, &o.UpdatedAt,
		)
		o.Technician = &d
	case entities.KindStaff:
		d := entities.StaffDetails{}
		err = row.Scan(
			&o.ID, &o.ApplicationNumber, &o.Status, &o.ClientID, &o.AssigneeRole, &o.AssigneeID,
			&d.Phone, &d.AbonentID, &d.Region, &d.Address, &d.Description, &d.Diagnostics,
			&o.Notes, &o.JMNotes, &o.ConsumedSummary, &o.Rating, &o.CreatedAt, &o.UpdatedAt,
		)
		o.Staff = &d
	default:
		return nil, fmt.Errorf("неизвестный вид заявки: %s", kind)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования заявки (%s): %w", kind, err)
	}
	return &o, nil
}

func (r *OrderRepository) FindOrder(ctx context.Context, ref entities.OrderRef) (*entities.Order, error) {
	if !ref.Kind.Valid() {
		return nil, apperrors.ErrOrderNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, orderColumns[ref.Kind], ref.Kind.Table())
	return scanOrder(ref.Kind, r.storage.QueryRow(ctx, query, ref.ID))
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order entities.Order) (*entities.Order, error) {
	switch order.Kind {
	case entities.KindConnection:
		query := fmt.Sprintf(`
			INSERT INTO connection_orders (application_number, status, client_id, assignee_role, region, address, tariff)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING %s`, orderColumns[order.Kind])
		return scanOrder(order.Kind, r.storage.QueryRow(ctx, query,
			order.ApplicationNumber, order.Status, order.ClientID, order.AssigneeRole,
			order.Connection.Region, order.Connection.Address, order.Connection.Tariff,
		))
	case entities.KindTechnician:
		query := fmt.Sprintf(`
			INSERT INTO technician_orders (application_number, status, client_id, assignee_role, abonent_id, region, address, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING %s`, orderColumns[order.Kind])
		return scanOrder(order.Kind, r.storage.QueryRow(ctx, query,
			order.ApplicationNumber, order.Status, order.ClientID, order.AssigneeRole,
			order.Technician.AbonentID, order.Technician.Region, order.Technician.Address, order.Technician.Description,
		))
	case entities.KindStaff:
		query := fmt.Sprintf(`
			INSERT INTO staff_orders (application_number, status, client_id, assignee_role, phone, abonent_id, region, address, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING %s`, orderColumns[order.Kind])
		return scanOrder(order.Kind, r.storage.QueryRow(ctx, query,
			order.ApplicationNumber, order.Status, order.ClientID, order.AssigneeRole,
			order.Staff.Phone, order.Staff.AbonentID, order.Staff.Region, order.Staff.Address, order.Staff.Description,
		))
	}
	return nil, fmt.Errorf("неизвестный вид заявки: %s", order.Kind)
}

func (r *OrderRepository) UpdateStatusGuarded(ctx context.Context, q Querier, ref entities.OrderRef, expected, to string, assignee *Assignment) error {
	if q == nil {
		q = r.storage
	}

	builder := psql.Update(ref.Kind.Table()).
		Set("status", to).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ref.ID, "status": expected})
	if assignee != nil {
		builder = builder.Set("assignee_role", assignee.Role).Set("assignee_id", assignee.UserID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса перехода: %w", err)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка перехода заявки %s/%d: %w", ref.Kind, ref.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Либо заявки нет, либо статус успел измениться. Различаем.
		var current string
		err := q.QueryRow(ctx, fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, ref.Kind.Table()), ref.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("ошибка проверки статуса заявки: %w", err)
		}
		return apperrors.ErrStatusMismatch
	}
	return nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, kind entities.OrderKind, statuses []string, assigneeID *uint64, limit, offset uint64) ([]entities.Order, uint64, error) {
	countBuilder := psql.Select("COUNT(*)").From(kind.Table()).Where(sq.Eq{"status": statuses})
	listBuilder := psql.Select(orderColumns[kind]).From(kind.Table()).Where(sq.Eq{"status": statuses})
	if assigneeID != nil {
		countBuilder = countBuilder.Where(sq.Eq{"assignee_id": *assigneeID})
		listBuilder = listBuilder.Where(sq.Eq{"assignee_id": *assigneeID})
	}
	listBuilder = listBuilder.OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		listBuilder = listBuilder.Limit(limit).Offset(offset)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчёта: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заявок: %w", err)
	}

	query, args, err := listBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(kind, rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

func (r *OrderRepository) ListOrdersByClient(ctx context.Context, kind entities.OrderKind, clientID uint64) ([]entities.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE client_id = $1 ORDER BY created_at DESC`, orderColumns[kind], kind.Table())
	rows, err := r.storage.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок клиента: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(kind, rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// CountActiveByAssignee - текущая нагрузка исполнителя: незавершённые заявки
// всех трёх видов, назначенные на него.
func (r *OrderRepository) CountActiveByAssignee(ctx context.Context, role string, userID uint64) (uint64, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM connection_orders WHERE assignee_role = $1 AND assignee_id = $2 AND status NOT IN ($3, $4)) +
			(SELECT COUNT(*) FROM technician_orders WHERE assignee_role = $1 AND assignee_id = $2 AND status NOT IN ($3, $4)) +
			(SELECT COUNT(*) FROM staff_orders WHERE assignee_role = $1 AND assignee_id = $2 AND status NOT IN ($3, $4))`
	var total uint64
	err := r.storage.QueryRow(ctx, query, role, userID, constants.StatusCompleted, constants.StatusCancelled).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта нагрузки исполнителя: %w", err)
	}
	return total, nil
}

func (r *OrderRepository) setTextField(ctx context.Context, ref entities.OrderRef, column, text string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, updated_at = NOW() WHERE id = $2`, ref.Kind.Table(), column)
	tag, err := r.storage.Exec(ctx, query, text, ref.ID)
	if err != nil {
		return fmt.Errorf("ошибка записи поля %s заявки: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SetDiagnostics(ctx context.Context, ref entities.OrderRef, text string) error {
	if ref.Kind == entities.KindConnection {
		return apperrors.ErrOrderNotFound
	}
	return r.setTextField(ctx, ref, "diagnostics", text)
}

func (r *OrderRepository) SetNotes(ctx context.Context, ref entities.OrderRef, text string) error {
	return r.setTextField(ctx, ref, "notes", text)
}

func (r *OrderRepository) SetJMNotes(ctx context.Context, ref entities.OrderRef, text string) error {
	return r.setTextField(ctx, ref, "jm_notes", text)
}

func (r *OrderRepository) SetRating(ctx context.Context, ref entities.OrderRef, rating int) error {
	query := fmt.Sprintf(`UPDATE %s SET rating = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, ref.Kind.Table())
	tag, err := r.storage.Exec(ctx, query, rating, ref.ID, constants.StatusCompleted)
	if err != nil {
		return fmt.Errorf("ошибка записи оценки заявки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOrderNotComplete
	}
	return nil
}

func (r *OrderRepository) SetConsumedSummary(ctx context.Context, q Querier, ref entities.OrderRef, summary string) error {
	if q == nil {
		q = r.storage
	}
	query := fmt.Sprintf(`UPDATE %s SET consumed_summary = $1, updated_at = NOW() WHERE id = $2`, ref.Kind.Table())
	tag, err := q.Exec(ctx, query, summary, ref.ID)
	if err != nil {
		return fmt.Errorf("ошибка записи сводки материалов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}
