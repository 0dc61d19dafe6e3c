package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"connect-system/pkg/config"
	"connect-system/pkg/utils"
)

func SeedAdmin(db *pgxpool.Pool, cfg *config.Config) error {
	ctx := context.Background()
	log.Println("  - Запуск сидера Администратора...")

	phone := cfg.Seeder.AdminPhone
	password := cfg.Seeder.AdminPassword

	if phone == "" || password == "" {
		log.Println("    ℹ️  SEED_ADMIN_PHONE или SEED_ADMIN_PASSWORD не заданы. Пропускаем создание.")
		return nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID uint64
	err = tx.QueryRow(ctx, "SELECT id FROM users WHERE phone = $1", phone).Scan(&userID)
	if err == nil {
		log.Println("    ℹ️  Администратор уже существует. Не трогаем.")
		return tx.Commit(ctx)
	}

	log.Println("    - Создаем нового Администратора...")

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (fio, phone, role, password_hash, language)
		VALUES ($1, $2, 'admin', $3, 'ru')
		RETURNING id
	`
	if err := tx.QueryRow(ctx, query, "Администратор системы", phone, hashedPassword).Scan(&userID); err != nil {
		return fmt.Errorf("ошибка SQL при создании Администратора: %w", err)
	}

	log.Printf("    ✅ Администратор %s успешно создан (id=%d)", phone, userID)
	return tx.Commit(ctx)
}
