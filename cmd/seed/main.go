package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/config"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	email := flag.String("email", "", "Owner email address")
	password := flag.String("password", "", "Owner password")
	name := flag.String("name", "", "Owner full name")
	flag.Parse()

	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	if *email == "" {
		*email = "owner@venue.local"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Venue Owner"
	}

	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Seed in a transaction: the venue and everything that references it, or nothing.
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	venueID, created, err := seedVenue(ctx, tx, q)
	if err != nil {
		log.Fatalf("Failed to seed venue: %v", err)
	}

	ownerID, err := seedOwner(ctx, q, venueID, *email, *password, *name)
	if err != nil {
		log.Fatalf("Failed to seed owner: %v", err)
	}

	if created {
		if err := seedVenueData(ctx, q, venueID); err != nil {
			log.Fatalf("Failed to seed venue data: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Venue ID: %s", venueID)
	log.Printf("Owner ID: %s", ownerID)
}

const venueName = "Kiwari Venue"

// seedVenue creates the venue if it doesn't exist. created reports whether
// the tables, halls and tax setting still need seeding.
func seedVenue(ctx context.Context, tx pgx.Tx, q *database.Queries) (uuid.UUID, bool, error) {
	var existingID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM venues WHERE name = $1 LIMIT 1`, venueName).Scan(&existingID)
	if err == nil {
		log.Printf("Venue '%s' already exists (ID: %s), skipping", venueName, existingID)
		return existingID, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, fmt.Errorf("check venue: %w", err)
	}

	v, err := q.CreateVenue(ctx, venueName)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("insert venue: %w", err)
	}
	log.Printf("Created venue '%s' (ID: %s)", venueName, v.ID)
	return v.ID, true, nil
}

// seedOwner creates the owner account if the email is not taken.
func seedOwner(ctx context.Context, q *database.Queries, venueID uuid.UUID, email, password, fullName string) (uuid.UUID, error) {
	existing, err := q.GetStaffByEmail(ctx, email)
	if err == nil {
		log.Printf("Staff '%s' already exists (ID: %s), skipping", email, existing.ID)
		return existing.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check staff: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	staff, err := q.CreateStaff(ctx, database.CreateStaffParams{
		VenueID:      venueID,
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     fullName,
		Role:         enum.StaffRoleOwner,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert staff: %w", err)
	}
	log.Printf("Created owner '%s' (ID: %s)", email, staff.ID)
	return staff.ID, nil
}

func seedVenueData(ctx context.Context, q *database.Queries, venueID uuid.UUID) error {
	if _, err := q.UpsertTaxSetting(ctx, database.UpsertTaxSettingParams{
		VenueID:        venueID,
		TaxRatePercent: mustNumeric("11"),
	}); err != nil {
		return fmt.Errorf("tax setting: %w", err)
	}

	for i := 1; i <= 10; i++ {
		if _, err := q.CreateRestaurantTable(ctx, database.CreateRestaurantTableParams{
			VenueID:     venueID,
			TableNumber: fmt.Sprintf("T%d", i),
			Seats:       4,
		}); err != nil {
			return fmt.Errorf("table T%d: %w", i, err)
		}
	}

	halls := []database.CreateHallParams{
		{VenueID: venueID, Name: "Grand Hall", Capacity: 200},
		{VenueID: venueID, Name: "Garden Room", Capacity: 60},
	}
	for _, h := range halls {
		hall, err := q.CreateHall(ctx, h)
		if err != nil {
			return fmt.Errorf("hall %s: %w", h.Name, err)
		}
		log.Printf("Created hall '%s' (ID: %s)", hall.Name, hall.ID)
	}

	services := []database.CreateHallServiceParams{
		{VenueID: venueID, Name: "Sound system", Price: mustNumeric("750000")},
		{VenueID: venueID, Name: "Decoration", Price: mustNumeric("1500000")},
		{VenueID: venueID, Name: "Projector", Price: mustNumeric("300000")},
	}
	for _, s := range services {
		if _, err := q.CreateHallService(ctx, s); err != nil {
			return fmt.Errorf("service %s: %w", s.Name, err)
		}
	}
	log.Printf("Seeded tax setting, %d tables, %d halls, %d services", 10, len(halls), len(services))
	return nil
}

func mustNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}
