// handlers/site_management.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
	"p9e.in/towerops/utils"
)

// GetAllSites returns all sites for the caller's company
func GetAllSites(w http.ResponseWriter, r *http.Request) {
	sites, err := models.CompanySites(config.DB, middleware.GetCompanyID(r))
	if err != nil {
		http.Error(w, "failed to fetch sites", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sites)
}

type siteReq struct {
	Name       string     `json:"name"`
	Reference  string     `json:"reference"`
	Address    string     `json:"address"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Height     float64    `json:"height"`
	CustomerID *uuid.UUID `json:"customerId"`
	Boundary   string     `json:"boundary"` // optional polygon JSON
}

func CreateSite(w http.ResponseWriter, r *http.Request) {
	var req siteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateBoundary(req.Boundary); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	site := models.Site{
		CompanyID:  middleware.GetCompanyID(r),
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Reference:  req.Reference,
		Address:    req.Address,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Height:     req.Height,
	}
	if err := config.DB.Create(&site).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(site)
}

func UpdateSite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid site id", http.StatusBadRequest)
		return
	}
	var site models.Site
	if err := config.DB.First(&site, "id = ?", siteID).Error; err != nil {
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}
	if site.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}

	var req siteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateBoundary(req.Boundary); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{
		"latitude":  req.Latitude,
		"longitude": req.Longitude,
		"height":    req.Height,
	}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Reference != "" {
		updates["reference"] = req.Reference
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.CustomerID != nil {
		updates["customer_id"] = req.CustomerID
	}
	if err := config.DB.Model(&site).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(site)
}

func DeleteSite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid site id", http.StatusBadRequest)
		return
	}
	var site models.Site
	if err := config.DB.First(&site, "id = ?", siteID).Error; err != nil {
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}
	if site.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}

	var count int64
	config.DB.Model(&models.Job{}).Where("site_id = ?", site.ID).Count(&count)
	if count > 0 {
		http.Error(w, "site has jobs", http.StatusConflict)
		return
	}
	if err := config.DB.Delete(&site).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- customers ---------------------------------------------------------

func GetCustomers(w http.ResponseWriter, r *http.Request) {
	var customers []models.Customer
	err := config.DB.Where("company_id = ?", middleware.GetCompanyID(r)).
		Order("name asc").Find(&customers).Error
	if err != nil {
		http.Error(w, "failed to fetch customers", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(customers)
}

type customerReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Units int    `json:"units"`
}

func CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	customer := models.Customer{
		CompanyID: middleware.GetCompanyID(r),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Units:     req.Units,
	}
	if err := config.DB.Create(&customer).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(customer)
}

func UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}
	var customer models.Customer
	if err := config.DB.First(&customer, "id = ?", customerID).Error; err != nil {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}
	if customer.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	var req customerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Units != 0 {
		updates["units"] = req.Units
	}
	if err := config.DB.Model(&customer).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(customer)
}

// -- company -----------------------------------------------------------

func GetCompany(w http.ResponseWriter, r *http.Request) {
	var company models.Company
	if err := config.DB.First(&company, "id = ?", middleware.GetCompanyID(r)).Error; err != nil {
		http.Error(w, "company not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(company)
}

type companyReq struct {
	Name     string `json:"name"`
	Units    int    `json:"units"`
	Currency string `json:"currency"`
}

func UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var company models.Company
	if err := config.DB.First(&company, "id = ?", middleware.GetCompanyID(r)).Error; err != nil {
		http.Error(w, "company not found", http.StatusNotFound)
		return
	}

	var req companyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Units != 0 {
		updates["units"] = req.Units
	}
	if req.Currency != "" {
		updates["currency"] = req.Currency
	}
	if err := config.DB.Model(&company).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(company)
}
