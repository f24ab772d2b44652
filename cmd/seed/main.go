// Command seed populates the database with demo data for local development.
package main

import (
	"flag"
	"log"

	"planhub/internal/config"
	"planhub/internal/database"
	"planhub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of citizen accounts to create")
	numRequests := flag.Int("requests", 40, "Number of document requests to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = seed.Run(db, seed.Options{
		NumUsers:       *numUsers,
		NumRequests:    *numRequests,
		ShouldClean:    *shouldClean,
		StorageRoot:    cfg.StorageRoot,
		DownloadWindow: cfg.DownloadWindow(),
		RequestWindow:  cfg.RequestWindow(),
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("✅ Seeding complete")
}
