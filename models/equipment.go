package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Equipment rows are the answer dimensions: the same antenna form is filled
// once per antenna on a site, so answers are keyed by the equipment id they
// were recorded against. A nil id on the key means "not applicable".

// Antenna is one antenna installed on a site.
type Antenna struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SiteID    uuid.UUID `gorm:"type:uuid;not null;index" json:"site_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Model     string    `gorm:"size:255" json:"model,omitempty"`
	Serial    string    `gorm:"size:255" json:"serial,omitempty"`
	Height    float64   `json:"height,omitempty"`
	Azimuth   float64   `json:"azimuth,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Antenna) TableName() string {
	return "antennas"
}

// Port is one port on an antenna.
type Port struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	AntennaID uuid.UUID `gorm:"type:uuid;not null;index" json:"antenna_id"`
	Name      string    `gorm:"size:255" json:"name"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Port) TableName() string {
	return "ports"
}

// Radio is a radio unit connected to an antenna port.
type Radio struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SiteID    uuid.UUID `gorm:"type:uuid;not null;index" json:"site_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Model     string    `gorm:"size:255" json:"model,omitempty"`
	Serial    string    `gorm:"size:255" json:"serial,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Radio) TableName() string {
	return "radios"
}

// Microwave is a microwave dish on a site.
type Microwave struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SiteID    uuid.UUID `gorm:"type:uuid;not null;index" json:"site_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Model     string    `gorm:"size:255" json:"model,omitempty"`
	Serial    string    `gorm:"size:255" json:"serial,omitempty"`
	Azimuth   float64   `json:"azimuth,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Microwave) TableName() string {
	return "microwaves"
}

// FWAntenna is a fixed-wireless-access unit on a site.
type FWAntenna struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SiteID    uuid.UUID `gorm:"type:uuid;not null;index" json:"site_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Model     string    `gorm:"size:255" json:"model,omitempty"`
	Serial    string    `gorm:"size:255" json:"serial,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (FWAntenna) TableName() string {
	return "fw_antennas"
}
