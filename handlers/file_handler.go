// handlers/file_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

// UploadMediaHandler routes to the appropriate storage backend based on
// environment. Cloud deployments get GCS, development gets local disk.
func UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != "" // Cloud Run indicator

	if useGCS {
		UploadMediaGCS(w, r)
	} else {
		UploadMediaLocal(w, r)
	}
}

// storeMedia records an uploaded file as a media row and queues images
// for rescaling.
func storeMedia(r *http.Request, fileName, storedPath string, size int64) (*models.Media, error) {
	mediaUse := models.MediaUseNone
	if u, err := strconv.Atoi(r.FormValue("use")); err == nil {
		mediaUse = u
	}

	media := &models.Media{
		CompanyID: middleware.GetCompanyID(r),
		UserID:    middleware.GetUserID(r),
		FileName:  fileName,
		Path:      storedPath,
		MediaType: models.MediaTypeForExt(fileName),
		MediaUse:  mediaUse,
		Size:      size,
	}
	if err := config.DB.Create(media).Error; err != nil {
		return nil, err
	}

	// scale variants are produced by an external worker; images queue here
	if media.MediaType == models.MediaTypeImage {
		if err := media.MarkForRescale(config.DB); err != nil {
			return nil, err
		}
	}
	return media, nil
}

// GetMedia returns one media row.
func GetMedia(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid media id", http.StatusBadRequest)
		return
	}
	var media models.Media
	if err := config.DB.First(&media, "id = ?", mediaID).Error; err != nil {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}
	if media.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"media": media,
		"url":   media.URL(),
		"type":  media.TypeString(),
	})
}

type linkMediaReq struct {
	AnswerID uuid.UUID `json:"answerId"`
}

// LinkMediaToAnswer binds an uploaded media to the answer referencing it.
func LinkMediaToAnswer(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid media id", http.StatusBadRequest)
		return
	}
	var media models.Media
	if err := config.DB.First(&media, "id = ?", mediaID).Error; err != nil {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}
	if media.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}

	var req linkMediaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	var answer models.Answer
	if err := config.DB.First(&answer, "id = ?", req.AnswerID).Error; err != nil {
		http.Error(w, "answer not found", http.StatusNotFound)
		return
	}

	if err := media.SetAnswer(config.DB, answer.ID); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(media)
}

type rescaleDoneReq struct {
	OK bool `json:"ok"`
}

// RescaleCallback is called by the rescale worker when a media's scale
// variants are ready (or failed).
func RescaleCallback(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid media id", http.StatusBadRequest)
		return
	}
	var media models.Media
	if err := config.DB.First(&media, "id = ?", mediaID).Error; err != nil {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}

	var req rescaleDoneReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := media.RescaleComplete(config.DB, req.OK); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(media)
}

func DeleteMedia(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid media id", http.StatusBadRequest)
		return
	}
	var media models.Media
	if err := config.DB.First(&media, "id = ?", mediaID).Error; err != nil {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}
	if media.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}

	if err := config.DB.Delete(&media).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
