// Command main runs the database seeder for TFT Finder.
package main

import (
	"flag"
	"log"

	"github.com/tungtase04539/TFT-Finder/internal/config"
	"github.com/tungtase04539/TFT-Finder/internal/database"
	"github.com/tungtase04539/TFT-Finder/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of profiles to create")
	numRooms := flag.Int("rooms", 10, "Number of rooms to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d profiles, %d rooms, clean=%v\n", *numUsers, *numRooms, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumRooms:    *numRooms,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test profiles have the password: password123")
}
