package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"facilityhub/internal/config"
	"facilityhub/internal/database"
	"facilityhub/internal/domain"
	"facilityhub/internal/modules/catalog"
	"facilityhub/internal/repository"
	"facilityhub/internal/seed"
)

func main() {
	path := flag.String("fixtures", "cmd/seed/fixtures.yaml", "YAML fixtures file")
	flag.Parse()

	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	fixtures, err := seed.LoadFile(*path)
	if err != nil {
		log.Fatal(err)
	}

	svc := catalog.NewService(
		repository.NewResourceRepository(db),
		repository.NewBlackoutRepository(db, cfg.Location),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sum, err := seed.Apply(ctx, svc, domain.Actor{Role: domain.RoleAdmin}, fixtures)
	if err != nil {
		log.Fatal("Seeding failed:", err)
	}
	log.Printf("Seeding complete: resources=%d skipped=%d blackouts=%d", sum.Resources, sum.Skipped, sum.Blackouts)
}
