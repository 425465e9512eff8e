// Command seed loads demo departments, staff, customers, venues and a few
// orders into the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"ms-venue-booking/internal/account"
	accountdb "ms-venue-booking/internal/account/db"
	"ms-venue-booking/internal/catalog"
	catalogdb "ms-venue-booking/internal/catalog/db"
	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/customer"
	customerdb "ms-venue-booking/internal/customer/db"
	"ms-venue-booking/internal/database"
	"ms-venue-booking/internal/database/migrations"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/storage"
	"ms-venue-booking/internal/venue"
	venuedb "ms-venue-booking/internal/venue/db"
)

func main() {
	reset := flag.Bool("reset", false, "roll every migration back before seeding")
	password := flag.String("password", "password123", "password for every seeded user")
	flag.Parse()

	log := logger.NewLogger("venue-seed")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir, log)
	if *reset {
		log.Info("SEED", "Dropping schema...")
		if err := runner.Down(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
	}
	if err := runner.Up(); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	runner.Close()

	if err := seed(ctx, cfg, bunDB, *password, log); err != nil {
		log.Fatal("SEED", err.Error())
	}
	log.Info("SEED", "Done.")
}

func seed(ctx context.Context, cfg *config.Config, bunDB *bun.DB, password string, log *logger.Logger) error {
	cat := catalog.NewService(catalogdb.New(bunDB), log)
	accounts := account.NewService(accountdb.New(bunDB), cfg.Auth, log)
	customers := customer.NewService(customerdb.New(bunDB), log)
	blobs, err := storage.NewLocal(cfg.Storage, log)
	if err != nil {
		return err
	}
	venues := venue.NewService(venuedb.New(bunDB), blobs, cfg.Storage.PhotoMaxWidth, log)

	// Departments and their packages
	deptIDs := map[string]string{}
	packages := map[string][]catalog.PackageInput{
		"Banquet":   {{Name: "Buffet Lunch", Price: decimal.NewFromInt(185000)}, {Name: "Coffee Break", Price: decimal.NewFromInt(65000)}},
		"Decor":     {{Name: "Stage Backdrop", Price: decimal.NewFromInt(4500000)}},
		"Technical": {{Name: "Sound System", Price: decimal.NewFromInt(3000000)}, {Name: "LED Screen", Price: decimal.NewFromInt(7500000)}},
	}
	for _, name := range []string{"Banquet", "Decor", "Technical"} {
		d, err := cat.CreateDepartment(ctx, catalog.DepartmentInput{Name: name})
		if err != nil {
			return fmt.Errorf("department %s: %w", name, err)
		}
		deptIDs[name] = d.ID
		for _, p := range packages[name] {
			p.DepartmentID = d.ID
			if _, err := cat.CreatePackage(ctx, p); err != nil {
				return fmt.Errorf("package %s: %w", p.Name, err)
			}
		}
	}

	// Staff, one per role plus a PIC for each department
	banquet := deptIDs["Banquet"]
	users := []account.CreateUserRequest{
		{Name: "Admin", Email: "admin@venue.local", Roles: []string{"admin"}},
		{Name: "Sales", Email: "sales@venue.local", Roles: []string{"sales"}},
		{Name: "Kanit", Email: "kanit@venue.local", Roles: []string{"kanit"}},
		{Name: "Banquet PIC", Email: "banquet@venue.local", Roles: []string{"pic"}, DepartmentID: &banquet},
	}
	for _, u := range users {
		u.Password = password
		if _, err := accounts.Create(ctx, u); err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
	}

	acme, err := customers.Create(ctx, customer.Input{Organizer: "Acme Events", Email: "events@acme.local", ContactPerson: "Rina", Phone: "0812000111"})
	if err != nil {
		return fmt.Errorf("customer: %w", err)
	}

	var venueIDs []string
	for _, v := range []venue.Input{
		{Name: "Grand Ballroom", ShortCode: "GB", Length: 60, Width: 30, Height: 8, CapacityBanquet: 800, CapacityTheater: 1500},
		{Name: "Ruby Room", ShortCode: "RR", Length: 20, Width: 12, Height: 4, CapacityBanquet: 120, CapacityClassroom: 80},
		{Name: "Sapphire Room", ShortCode: "SR", Length: 20, Width: 12, Height: 4, CapacityBanquet: 120, CapacityClassroom: 80},
	} {
		created, err := venues.Create(ctx, v)
		if err != nil {
			return fmt.Errorf("venue %s: %w", v.Name, err)
		}
		venueIDs = append(venueIDs, created.ID)
	}

	// Two non-overlapping orders this month
	first := time.Now().UTC()
	first = time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	return bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, o := range []struct {
			name     string
			from, to int
			venues   []string
		}{
			{"Tech Expo", 3, 6, venueIDs[:1]},
			{"Wedding Reception", 10, 10, venueIDs[1:]},
		} {
			order := &models.Order{
				ID:         uuid.NewString(),
				CustomerID: acme.ID,
				EventName:  o.name,
				StartDate:  first.AddDate(0, 0, o.from-1),
				EndDate:    first.AddDate(0, 0, o.to-1),
				Status:     models.OrderStatus(i),
			}
			if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
				return fmt.Errorf("order %s: %w", o.name, err)
			}
			for _, vid := range o.venues {
				if _, err := tx.NewInsert().Model(&models.OrderVenue{OrderID: order.ID, VenueID: vid}).Exec(ctx); err != nil {
					return fmt.Errorf("order venue: %w", err)
				}
			}
			log.Info("SEED", fmt.Sprintf("Order %s on %s..%s", o.name, order.StartDate.Format(models.DateLayout), order.EndDate.Format(models.DateLayout)))
		}
		return nil
	})
}
