package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Site is a physical location (tower, rooftop, compound) a job is performed
// at. Coordinates feed the situating-map block in printed reports.
type Site struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Reference  string     `gorm:"size:100" json:"reference,omitempty"`
	Address    string     `gorm:"type:text" json:"address,omitempty"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Height     float64    `json:"height,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Site) TableName() string {
	return "sites"
}

// CompanySites lists active sites for one tenant.
func CompanySites(db *gorm.DB, companyID uuid.UUID) ([]Site, error) {
	var sites []Site
	err := db.Where("company_id = ?", companyID).Order("name asc").Find(&sites).Error
	return sites, err
}
