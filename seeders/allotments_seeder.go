package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// seedAllotments выдает каждому технику стартовый лимит по всем позициям каталога.
// Уже существующие лимиты не перезаписываются.
func seedAllotments(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'material_allotments'...")
	query := `INSERT INTO material_allotments (technician_id, material_id, quantity)
		SELECT u.id, m.id, $1
		FROM users u CROSS JOIN materials m
		WHERE u.role = 'technician'
		ON CONFLICT (technician_id, material_id) DO NOTHING;`
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, query, defaultAllotmentQuantity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
