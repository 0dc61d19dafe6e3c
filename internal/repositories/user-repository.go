package repositories

import (
	"context"
	"errors"
	"fmt"

	"connect-system/internal/entities"
	apperrors "connect-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userFields = `id, telegram_id, fio, phone, role, language, password_hash, is_blocked, created_at, updated_at`

type UserRepositoryInterface interface {
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*entities.User, error)
	FindUserByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error)
	GetUsersByRole(ctx context.Context, role string) ([]entities.User, error)
	CreateUser(ctx context.Context, user entities.User) (*entities.User, error)
	UpdateUserLanguage(ctx context.Context, id uint64, language string) error
	SetBlocked(ctx context.Context, id uint64, blocked bool) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.FIO, &u.Phone, &u.Role, &u.Language,
		&u.PasswordHash, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindUserByPhone(ctx context.Context, phone string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE phone = $1`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, phone))
}

func (r *UserRepository) FindUserByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE telegram_id = $1`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, telegramID))
}

func (r *UserRepository) GetUsersByRole(ctx context.Context, role string) ([]entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 AND is_blocked = FALSE ORDER BY fio`, userFields)
	rows, err := r.storage.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователей по роли: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (telegram_id, fio, phone, role, language, password_hash, is_blocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query,
		user.TelegramID, user.FIO, user.Phone, user.Role, user.Language, user.PasswordHash, user.IsBlocked,
	))
}

func (r *UserRepository) UpdateUserLanguage(ctx context.Context, id uint64, language string) error {
	tag, err := r.storage.Exec(ctx, `UPDATE users SET language = $1, updated_at = NOW() WHERE id = $2`, language, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления языка пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetBlocked(ctx context.Context, id uint64, blocked bool) error {
	tag, err := r.storage.Exec(ctx, `UPDATE users SET is_blocked = $1, updated_at = NOW() WHERE id = $2`, blocked, id)
	if err != nil {
		return fmt.Errorf("ошибка блокировки пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
