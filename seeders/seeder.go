package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"connect-system/pkg/config"
)

// SeedCatalog наполняет каталог материалов. Зависимостей не имеет.
func SeedCatalog(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения каталога материалов...")

	if err := seedMaterials(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Материалов (Materials): %v", err)
	}
	log.Println("✅ Наполнение каталога завершено!")
}

// SeedDemo создает по одному демо-пользователю на каждую роль и выдает
// техникам стартовые лимиты расхода. Требует уже наполненного каталога.
func SeedDemo(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения демо-данных...")

	if err := seedDemoUsers(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Пользователей (Users): %v", err)
	}
	if err := seedAllotments(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Лимитов (Allotments): %v", err)
	}
	log.Println("✅ Наполнение демо-данных завершено!")
}

// SeedAdminUser создает администратора из переменных окружения.
func SeedAdminUser(db *pgxpool.Pool, cfg *config.Config) {
	log.Println("▶️  Запуск создания администратора...")

	if err := SeedAdmin(db, cfg); err != nil {
		log.Fatalf("❌ Ошибка создания Администратора: %v", err)
	}
	log.Println("✅ Настройка администратора завершена!")
}
