package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvoiceStatusDraft = 1
	InvoiceStatusSent  = 2
	InvoiceStatusPaid  = 3
	InvoiceStatusVoid  = 4
)

var invoiceStatusStrings = map[int]string{
	InvoiceStatusDraft: "Draft",
	InvoiceStatusSent:  "Sent",
	InvoiceStatusPaid:  "Paid",
	InvoiceStatusVoid:  "Void",
}

// Invoice bills a customer for a completed job. PaymentURL is minted by
// the external billing API; nil means link generation failed or was never
// attempted.
type Invoice struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	JobID      *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Number     string     `gorm:"size:50;not null" json:"number"`
	Status     int        `gorm:"default:1" json:"status"`
	Currency   string     `gorm:"size:3;default:'EUR'" json:"currency"`
	TaxRate    float64    `json:"tax_rate"`
	PaymentURL *string    `gorm:"size:1000" json:"payment_url,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Label     string    `gorm:"size:500;not null" json:"label"`
	Quantity  float64   `gorm:"default:1" json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

func (i *Invoice) StatusString() string {
	if s, ok := invoiceStatusStrings[i.Status]; ok {
		return s
	}
	return "Unknown"
}

// Subtotal sums the line items before tax.
func (i *Invoice) Subtotal() float64 {
	total := 0.0
	for _, item := range i.Items {
		total += item.Quantity * item.UnitPrice
	}
	return total
}

// Total applies the tax rate.
func (i *Invoice) Total() float64 {
	return i.Subtotal() * (1 + i.TaxRate/100)
}

// Quote is an offered price for a prospective job; accepted quotes become
// invoices.
type Quote struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	JobID      *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Number     string     `gorm:"size:50;not null" json:"number"`
	Accepted   *time.Time `json:"accepted,omitempty"`
	Currency   string     `gorm:"size:3;default:'EUR'" json:"currency"`
	TaxRate    float64    `json:"tax_rate"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Quote) TableName() string {
	return "quotes"
}
