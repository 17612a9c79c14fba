package main

import (
	"log"
	"os"
	"time"

	"tolio/internal/database"
	"tolio/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "tolio.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (child tables first)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM messages")
	db.Exec("DELETE FROM reviews")
	db.Exec("DELETE FROM material_payments")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM service_bookings")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM services")
	db.Exec("DELETE FROM items")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	users := []domain.User{
		{Email: "alice@tolio.dev", FirstName: "Alice", LastName: "Ramos"},
		{Email: "bruno@tolio.dev", FirstName: "Bruno", LastName: "Costa"},
		{Email: "carla@tolio.dev", FirstName: "Carla", LastName: "Mendes"},
	}
	for i := range users {
		hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		users[i].PasswordHash = string(hash)
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatal("create user failed:", err)
		}
	}

	log.Println("Creating items...")
	items := []domain.Item{
		{OwnerID: users[0].ID, Title: "Cordless drill", Description: "18V with two batteries", PricePerDay: 12.50, Location: "Lisbon", IsAvailable: true},
		{OwnerID: users[0].ID, Title: "Camping tent", Description: "4-person dome tent", PricePerDay: 20, Location: "Lisbon", IsAvailable: true},
		{OwnerID: users[1].ID, Title: "Pressure washer", Description: "2000 PSI electric", PricePerDay: 18, Location: "Porto", IsAvailable: true},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			log.Fatal("create item failed:", err)
		}
	}

	log.Println("Creating services...")
	services := []domain.Service{
		{ProviderID: users[1].ID, Title: "Bike repair", Description: "Tune-ups and part replacements", PricePerHour: 35, PriceType: domain.PriceTypeHour, MayIncludeMaterials: true, Location: "Porto", IsAvailable: true},
		{ProviderID: users[2].ID, Title: "Apartment painting", Description: "Interior walls, flat rate per room", PricePerHour: 120, PriceType: domain.PriceTypeFixed, MayIncludeMaterials: true, Location: "Lisbon", IsAvailable: true},
	}
	for i := range services {
		if err := db.Create(&services[i]).Error; err != nil {
			log.Fatal("create service failed:", err)
		}
	}

	log.Println("Creating a sample booking...")
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	booking := domain.Booking{
		ItemID:     items[0].ID,
		BorrowerID: users[1].ID,
		OwnerID:    users[0].ID,
		StartDate:  start,
		EndDate:    start.Add(72 * time.Hour),
		TotalPrice: 37.50,
		Status:     domain.BookingPending,
	}
	if err := db.Create(&booking).Error; err != nil {
		log.Fatal("create booking failed:", err)
	}

	log.Println("Seed complete.")
	log.Printf("Users: %d, items: %d, services: %d", len(users), len(items), len(services))
}
