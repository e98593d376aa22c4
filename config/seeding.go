package config

import (
	"log"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/towerops/models"
)

// SeedDefaults creates a first company and admin user on an empty
// database, plus the main layout roots every report type needs.
// It is a no-op when data already exists.
func SeedDefaults(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Company{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	company := models.Company{
		ID:    uuid.New(),
		Name:  "Default Company",
		Units: models.UnitsMetric,
	}
	if err := db.Create(&company).Error; err != nil {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("ADMIN_PASSWORD not set, seeding admin with default password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		ID:        uuid.New(),
		CompanyID: company.ID,
		Name:      "Admin",
		Email:     "admin@example.com",
		Password:  string(hash),
		Role:      models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	// One main layout per report type so the layout editor always has a
	// root to hang rows off.
	for _, layoutType := range []int{
		models.LayoutTypeSite, models.LayoutTypeAntenna, models.LayoutTypePort,
		models.LayoutTypeRadio, models.LayoutTypeMicrowave, models.LayoutTypeFWA,
		models.LayoutTypeAppendix, models.LayoutTypeVehicleMaintenance,
		models.LayoutTypePersonalSafety, models.LayoutTypeSiteSafety, models.LayoutTypeTools,
	} {
		layout := models.Layout{
			ID:         uuid.New(),
			CompanyID:  company.ID,
			LayoutType: layoutType,
			Main:       true,
		}
		if err := db.Create(&layout).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded company %s with admin user %s", company.ID, admin.Email)
	return nil
}
