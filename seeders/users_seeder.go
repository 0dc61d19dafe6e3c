package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"connect-system/pkg/utils"
)

func seedDemoUsers(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'users' (демо-пользователи)...")
	query := `INSERT INTO users (fio, phone, role, password_hash, language)
		VALUES ($1, $2, $3, $4, 'ru')
		ON CONFLICT (phone) DO NOTHING;`
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, u := range demoUsersData {
		hash, err := utils.HashPassword(u.Password)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, u.FIO, u.Phone, u.Role, hash); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
