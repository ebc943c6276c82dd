package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gotier/adapters/postgres"
	"gotier/internal/config"
	"gotier/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	server, err := ui.NewServer(postgres.NewReader(db), cfg.Server.GinMode)
	if err != nil {
		log.Fatalf("Failed to create catalog server: %v", err)
	}

	log.Printf("Starting catalog UI on http://localhost:%s", cfg.Server.Port)
	log.Fatal(server.Start(":" + cfg.Server.Port))
}
