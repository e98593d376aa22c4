// handlers/invoice_handlers.go
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
	"p9e.in/towerops/pkg/paylink"
)

var payments = paylink.NewClient()

func companyInvoice(r *http.Request, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := config.DB.Preload("Items").First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, models.ErrNotFound
	}
	if invoice.CompanyID != middleware.GetCompanyID(r) {
		return nil, models.ErrNotFound
	}
	return &invoice, nil
}

func GetInvoices(w http.ResponseWriter, r *http.Request) {
	var invoices []models.Invoice
	err := config.DB.Preload("Items").
		Where("company_id = ?", middleware.GetCompanyID(r)).
		Order("created_at desc").
		Find(&invoices).Error
	if err != nil {
		http.Error(w, "failed to fetch invoices", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoices)
}

func GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	invoice, err := companyInvoice(r, invoiceID)
	if err != nil {
		http.Error(w, "invoice not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"invoice":  invoice,
		"status":   invoice.StatusString(),
		"subtotal": invoice.Subtotal(),
		"total":    invoice.Total(),
	})
}

type invoiceItemReq struct {
	Label     string  `json:"label"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type createInvoiceReq struct {
	CustomerID uuid.UUID        `json:"customerId"`
	JobID      *uuid.UUID       `json:"jobId"`
	Number     string           `json:"number"`
	Currency   string           `json:"currency"`
	TaxRate    float64          `json:"taxRate"`
	Items      []invoiceItemReq `json:"items"`
}

func CreateInvoice(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req createInvoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	var customer models.Customer
	if err := config.DB.First(&customer, "id = ?", req.CustomerID).Error; err != nil {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}
	if customer.CompanyID != companyID {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	currency := req.Currency
	if currency == "" {
		var company models.Company
		if err := config.DB.First(&company, "id = ?", companyID).Error; err == nil {
			currency = company.Currency
		}
	}

	invoice := models.Invoice{
		CompanyID:  companyID,
		CustomerID: req.CustomerID,
		JobID:      req.JobID,
		Number:     req.Number,
		Status:     models.InvoiceStatusDraft,
		Currency:   currency,
		TaxRate:    req.TaxRate,
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		for _, item := range req.Items {
			line := models.InvoiceItem{
				InvoiceID: invoice.ID,
				Label:     item.Label,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
			if line.Quantity == 0 {
				line.Quantity = 1
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			invoice.Items = append(invoice.Items, line)
		}
		return nil
	})
	if err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invoice)
}

// SendInvoice marks a draft invoice as sent and attaches a hosted payment
// link. Link creation is best-effort; a missing link does not block sending.
func SendInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	invoice, err := companyInvoice(r, invoiceID)
	if err != nil {
		http.Error(w, "invoice not found", http.StatusNotFound)
		return
	}
	if invoice.Status != models.InvoiceStatusDraft {
		http.Error(w, "only draft invoices can be sent", http.StatusConflict)
		return
	}

	url := payments.CreateLink(r.Context(), paylink.LinkRequest{
		InvoiceID: invoice.ID,
		Number:    invoice.Number,
		Amount:    invoice.Total(),
		Currency:  invoice.Currency,
		ItemCount: len(invoice.Items),
	})

	updates := map[string]interface{}{"status": models.InvoiceStatusSent}
	if url != nil {
		updates["payment_url"] = *url
	}
	if err := config.DB.Model(invoice).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"invoice":    invoice,
		"paymentUrl": url, // null when the provider declined
	})
}

// MarkInvoicePaid records payment of a sent invoice.
func MarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	invoice, err := companyInvoice(r, invoiceID)
	if err != nil {
		http.Error(w, "invoice not found", http.StatusNotFound)
		return
	}
	if invoice.Status != models.InvoiceStatusSent {
		http.Error(w, "only sent invoices can be paid", http.StatusConflict)
		return
	}
	if err := config.DB.Model(invoice).Update("status", models.InvoiceStatusPaid).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(invoice)
}

// VoidInvoice cancels an invoice and revokes its payment link.
func VoidInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	invoice, err := companyInvoice(r, invoiceID)
	if err != nil {
		http.Error(w, "invoice not found", http.StatusNotFound)
		return
	}
	if invoice.Status == models.InvoiceStatusPaid {
		http.Error(w, "paid invoices cannot be voided", http.StatusConflict)
		return
	}

	if invoice.PaymentURL != nil {
		if err := payments.VoidLink(r.Context(), invoice.ID); err != nil {
			log.Printf("invoice %s: failed to void payment link: %v", invoice.ID, err)
		}
	}

	updates := map[string]interface{}{
		"status":      models.InvoiceStatusVoid,
		"payment_url": nil,
	}
	if err := config.DB.Model(invoice).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(invoice)
}

// -- quotes ------------------------------------------------------------

type createQuoteReq struct {
	CustomerID uuid.UUID  `json:"customerId"`
	JobID      *uuid.UUID `json:"jobId"`
	Number     string     `json:"number"`
	Currency   string     `json:"currency"`
	TaxRate    float64    `json:"taxRate"`
}

func CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	quote := models.Quote{
		CompanyID:  middleware.GetCompanyID(r),
		CustomerID: req.CustomerID,
		JobID:      req.JobID,
		Number:     req.Number,
		Currency:   req.Currency,
		TaxRate:    req.TaxRate,
	}
	if err := config.DB.Create(&quote).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(quote)
}

// AcceptQuote stamps a quote as accepted by the customer.
func AcceptQuote(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}
	var quote models.Quote
	if err := config.DB.First(&quote, "id = ?", quoteID).Error; err != nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}
	if quote.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}
	if quote.Accepted != nil {
		http.Error(w, "quote already accepted", http.StatusConflict)
		return
	}

	now := time.Now()
	if err := config.DB.Model(&quote).Update("accepted", now).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(quote)
}
