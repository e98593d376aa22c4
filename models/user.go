package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCrew    = "crew"
)

// User is a company employee. Crew members answer fields from the app,
// managers build forms and layouts from the web.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone,omitempty"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:50;not null;default:'crew'" json:"role"`

	// Additional fine-grained permissions beyond the role defaults,
	// e.g. "report:export" or "form:*".
	Permissions pq.StringArray `gorm:"type:text[]" json:"permissions,omitempty"`

	AvatarID *uuid.UUID `gorm:"type:uuid" json:"avatar_id,omitempty"`
	IsActive bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
