package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant. Every scoped query takes the company id as an
// explicit parameter; there is no ambient tenant state.
type Company struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Units    int       `gorm:"default:1" json:"units"`
	Currency string    `gorm:"size:3;default:'EUR'" json:"currency"`
	LogoID   *uuid.UUID `gorm:"type:uuid" json:"logo_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

// Customer is a client of a company. Its unit preference drives how
// distance fields are formatted in reports for that customer.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Phone     string    `gorm:"size:50" json:"phone,omitempty"`
	Units     int       `gorm:"default:1" json:"units"`
	LogoID    *uuid.UUID `gorm:"type:uuid" json:"logo_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// UnitPreference resolves the units used when rendering for a customer,
// falling back to the owning company and finally to metric.
func UnitPreference(customer *Customer, company *Company) int {
	if customer != nil && customer.Units != 0 {
		return customer.Units
	}
	if company != nil && company.Units != 0 {
		return company.Units
	}
	return UnitsMetric
}
