// handlers/equipment_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

// GetSiteEquipment lists everything installed on one site, grouped by kind.
// The app iterates these when repeating equipment forms.
func GetSiteEquipment(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid site id", http.StatusBadRequest)
		return
	}
	companyID := middleware.GetCompanyID(r)

	var site models.Site
	if err := config.DB.First(&site, "id = ?", siteID).Error; err != nil {
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}
	if site.CompanyID != companyID {
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}

	var antennas []models.Antenna
	var radios []models.Radio
	var microwaves []models.Microwave
	var fwAntennas []models.FWAntenna
	for _, q := range []error{
		config.DB.Where("site_id = ?", site.ID).Order("name asc").Find(&antennas).Error,
		config.DB.Where("site_id = ?", site.ID).Order("name asc").Find(&radios).Error,
		config.DB.Where("site_id = ?", site.ID).Order("name asc").Find(&microwaves).Error,
		config.DB.Where("site_id = ?", site.ID).Order("name asc").Find(&fwAntennas).Error,
	} {
		if q != nil {
			http.Error(w, "failed to fetch equipment", http.StatusInternalServerError)
			return
		}
	}

	// ports hang off antennas, not sites
	ports := map[uuid.UUID][]models.Port{}
	for _, antenna := range antennas {
		var p []models.Port
		if err := config.DB.Where("antenna_id = ?", antenna.ID).Order("name asc").Find(&p).Error; err != nil {
			http.Error(w, "failed to fetch ports", http.StatusInternalServerError)
			return
		}
		ports[antenna.ID] = p
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"antennas":   antennas,
		"ports":      ports,
		"radios":     radios,
		"microwaves": microwaves,
		"fwAntennas": fwAntennas,
	})
}

type antennaReq struct {
	SiteID  uuid.UUID `json:"siteId"`
	Name    string    `json:"name"`
	Model   string    `json:"model"`
	Serial  string    `json:"serial"`
	Height  float64   `json:"height"`
	Azimuth float64   `json:"azimuth"`
}

func CreateAntenna(w http.ResponseWriter, r *http.Request) {
	var req antennaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	antenna := models.Antenna{
		CompanyID: middleware.GetCompanyID(r),
		SiteID:    req.SiteID,
		Name:      req.Name,
		Model:     req.Model,
		Serial:    req.Serial,
		Height:    req.Height,
		Azimuth:   req.Azimuth,
	}
	if err := config.DB.Create(&antenna).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(antenna)
}

type portReq struct {
	AntennaID uuid.UUID `json:"antennaId"`
	Name      string    `json:"name"`
}

func CreatePort(w http.ResponseWriter, r *http.Request) {
	var req portReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	var antenna models.Antenna
	if err := config.DB.First(&antenna, "id = ?", req.AntennaID).Error; err != nil {
		http.Error(w, "antenna not found", http.StatusNotFound)
		return
	}
	if antenna.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "antenna not found", http.StatusNotFound)
		return
	}

	port := models.Port{
		CompanyID: antenna.CompanyID,
		AntennaID: antenna.ID,
		Name:      req.Name,
	}
	if err := config.DB.Create(&port).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(port)
}

type unitReq struct {
	SiteID  uuid.UUID `json:"siteId"`
	Name    string    `json:"name"`
	Model   string    `json:"model"`
	Serial  string    `json:"serial"`
	Azimuth float64   `json:"azimuth"`
}

func CreateRadio(w http.ResponseWriter, r *http.Request) {
	var req unitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	radio := models.Radio{
		CompanyID: middleware.GetCompanyID(r),
		SiteID:    req.SiteID,
		Name:      req.Name,
		Model:     req.Model,
		Serial:    req.Serial,
	}
	if err := config.DB.Create(&radio).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(radio)
}

func CreateMicrowave(w http.ResponseWriter, r *http.Request) {
	var req unitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	microwave := models.Microwave{
		CompanyID: middleware.GetCompanyID(r),
		SiteID:    req.SiteID,
		Name:      req.Name,
		Model:     req.Model,
		Serial:    req.Serial,
		Azimuth:   req.Azimuth,
	}
	if err := config.DB.Create(&microwave).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(microwave)
}

func CreateFWAntenna(w http.ResponseWriter, r *http.Request) {
	var req unitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fwa := models.FWAntenna{
		CompanyID: middleware.GetCompanyID(r),
		SiteID:    req.SiteID,
		Name:      req.Name,
		Model:     req.Model,
		Serial:    req.Serial,
	}
	if err := config.DB.Create(&fwa).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(fwa)
}

// DeleteEquipment removes one equipment row by kind. Answers recorded
// against it survive; they just stop resolving to a live row.
func DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	equipmentID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid equipment id", http.StatusBadRequest)
		return
	}
	companyID := middleware.GetCompanyID(r)

	var res *gorm.DB
	switch kind {
	case "antennas":
		res = config.DB.Where("id = ? AND company_id = ?", equipmentID, companyID).Delete(&models.Antenna{})
	case "ports":
		res = config.DB.Where("id = ? AND company_id = ?", equipmentID, companyID).Delete(&models.Port{})
	case "radios":
		res = config.DB.Where("id = ? AND company_id = ?", equipmentID, companyID).Delete(&models.Radio{})
	case "microwaves":
		res = config.DB.Where("id = ? AND company_id = ?", equipmentID, companyID).Delete(&models.Microwave{})
	case "fw-antennas":
		res = config.DB.Where("id = ? AND company_id = ?", equipmentID, companyID).Delete(&models.FWAntenna{})
	default:
		http.Error(w, "unknown equipment kind", http.StatusBadRequest)
		return
	}
	if res.Error != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "equipment not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
