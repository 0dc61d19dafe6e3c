package main

import (
	"flag"
	"log"

	"connect-system/pkg/config"
	"connect-system/pkg/database/postgresql"
	"connect-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runCatalog := flag.Bool("catalog", false, "Запустить наполнение каталога материалов")
	runDemo := flag.Bool("demo", false, "Запустить создание демо-пользователей и лимитов")
	runAdmin := flag.Bool("admin", false, "Запустить создание администратора (SEED_ADMIN_PHONE / SEED_ADMIN_PASSWORD)")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -catalog -demo -admin)")

	flag.Parse()

	if !*runCatalog && !*runDemo && !*runAdmin && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed/main.go -catalog")
		log.Println("  go run ./seeders/cmd/seed/main.go -catalog -demo")
		log.Println("  go run ./seeders/cmd/seed/main.go -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runCatalog {
		seeders.SeedCatalog(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runDemo {
		// Лимиты зависят от каталога и пользователей
		seeders.SeedDemo(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runAdmin {
		seeders.SeedAdminUser(dbPool, cfg)
		log.Println("======================================================")
	}

	log.Println("🏁 Все выбранные сидеры отработали.")
}
