package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gotier/internal/api"
	"gotier/internal/config"
	"gotier/internal/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	defer c.Close()

	if err := c.InitPolicy(); err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := c.InitWithDatabase(db); err != nil {
		log.Fatalf("Failed to initialize database components: %v", err)
	}
	if err := c.InitBuildPipeline(); err != nil {
		log.Fatalf("Failed to initialize build pipeline: %v", err)
	}

	server := api.NewServer(c.BuildService, c.EntryRepo, c.ClassificationRepo, c.Graph, c.RebuildManager, c.Policy.CategoryHashes)

	addr := ":" + cfg.Server.APIPort
	log.Printf("Starting build API on %s (policy fingerprint %s)", addr, c.BuildService.Fingerprint().Compact())
	if err := server.Start(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
