package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedMaterials(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'materials'...")
	query := `INSERT INTO materials (name, price, description, stock_quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price, description = EXCLUDED.description;`
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, m := range materialsData {
		if _, err := tx.Exec(ctx, query, m.Name, m.Price, m.Description, 100); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
