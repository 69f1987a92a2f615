package main

import (
	"context"
	"fmt"
	"log"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/config"
	"github.com/friendstransport/fleetgo/internal/database"
	"github.com/friendstransport/fleetgo/internal/handlers"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/store/gormstore"
)

var demoWarehouses = []models.Warehouse{
	{WarehouseCode: "HYD-01", Name: "Hyderabad", IsSource: true, DisplayOrder: 1},
	{WarehouseCode: "SEC-01", Name: "Secunderabad", IsSource: true, DisplayOrder: 2},
	{WarehouseCode: "MNC-01", Name: "Mancherial", DisplayOrder: 3},
	{WarehouseCode: "KRM-01", Name: "Karimnagar", DisplayOrder: 4},
}

var demoItemTypes = []string{"Box", "Bag", "Bundle", "Electronics", "Furniture", "Other"}

func main() {
	fmt.Println("🌱 fleetgo Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("🔨 Running database migrations...")
	if err := database.Migrate(db.DB); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	ctx := context.Background()
	st := gormstore.New(db.DB)

	err = st.WithTx(ctx, func(tx store.Tx) error {
		fmt.Println("📍 Creating warehouses...")
		for _, wh := range demoWarehouses {
			if _, err := tx.Warehouses().FindByCode(wh.WarehouseCode); err == nil {
				fmt.Printf("   = %s exists\n", wh.WarehouseCode)
				continue
			} else if !apperr.Is(err, apperr.KindNotFound) {
				return err
			}
			if err := tx.Warehouses().Create(&wh); err != nil {
				return err
			}
			fmt.Printf("   + %s %s\n", wh.WarehouseCode, wh.Name)
		}

		fmt.Println("📦 Creating item types...")
		for _, name := range demoItemTypes {
			if _, err := tx.ItemTypes().FindByNameFold(name); err == nil {
				continue
			} else if !apperr.Is(err, apperr.KindNotFound) {
				return err
			}
			if err := tx.ItemTypes().Create(&models.ItemType{Name: name}); err != nil {
				return err
			}
			fmt.Printf("   + %s\n", name)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	username, password := cfg.AdminUsername, cfg.AdminPassword
	if username == "" {
		username, password = "admin", "admin"
		fmt.Println("⚠️  ADMIN_USERNAME not set, using admin/admin")
	}
	if _, err := handlers.BootstrapAdmin(ctx, st, username, password); err != nil {
		log.Fatalf("❌ Admin bootstrap failed: %v", err)
	}

	fmt.Println("✅ Demo data ready")
}
