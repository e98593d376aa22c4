// handlers/layout_handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

func companyLayout(r *http.Request, layoutID uuid.UUID) (*models.Layout, error) {
	var layout models.Layout
	if err := config.DB.First(&layout, "id = ?", layoutID).Error; err != nil {
		return nil, models.ErrNotFound
	}
	if layout.CompanyID != middleware.GetCompanyID(r) {
		return nil, models.ErrNotFound
	}
	return &layout, nil
}

// GetMainLayouts lists the main print layouts for a company, optionally
// filtered by layout type.
func GetMainLayouts(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)
	layoutType := 0
	if t, err := strconv.Atoi(r.URL.Query().Get("type")); err == nil {
		layoutType = t
	}
	layouts, err := models.MainLayouts(config.DB, companyID, layoutType)
	if err != nil {
		http.Error(w, "failed to fetch layouts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(layouts)
}

type layoutChildPayload struct {
	Type   string         `json:"type"`
	Order  int            `json:"order"`
	Widths datatypes.JSON `json:"widths,omitempty"`
	Child  interface{}    `json:"child"`
}

// GetLayout returns one layout node with its ordered children.
func GetLayout(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}

	children, err := layout.Children(config.DB)
	if err != nil {
		http.Error(w, "failed to fetch children", http.StatusInternalServerError)
		return
	}

	out := make([]layoutChildPayload, 0, len(children))
	for _, c := range children {
		p := layoutChildPayload{
			Order:  c.Pivot.SublayoutOrder,
			Widths: c.Pivot.Widths,
		}
		switch {
		case c.Layout != nil:
			p.Type = "layout"
			p.Child = c.Layout
		case c.Field != nil:
			p.Type = "field"
			p.Child = c.Field
		case c.Special != nil:
			p.Type = "special"
			p.Child = c.Special
		}
		out = append(out, p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"layout":   layout,
		"type":     layout.TypeString(),
		"children": out,
	})
}

func sublayoutTypeTag(s string) (int, bool) {
	switch s {
	case "layout":
		return models.SublayoutTypeLayout, true
	case "field":
		return models.SublayoutTypeField, true
	case "special":
		return models.SublayoutTypeSpecial, true
	}
	return 0, false
}

type addLayoutObjectReq struct {
	Type       string    `json:"type"` // layout | field | special
	ChildID    uuid.UUID `json:"childId"`
	BeforeType string    `json:"beforeType"`
	BeforeID   uuid.UUID `json:"beforeId"` // zero = append at end
}

// AddLayoutObject attaches a field or special block to a layout node.
func AddLayoutObject(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}

	var req addLayoutObjectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	tag, ok := sublayoutTypeTag(req.Type)
	if !ok {
		http.Error(w, "unknown child type", http.StatusBadRequest)
		return
	}
	beforeTag := 0
	if req.BeforeID != uuid.Nil {
		if beforeTag, ok = sublayoutTypeTag(req.BeforeType); !ok {
			http.Error(w, "unknown anchor type", http.StatusBadRequest)
			return
		}
	}

	if err := layout.AddObject(config.DB, tag, req.ChildID, beforeTag, req.BeforeID); err != nil {
		http.Error(w, "failed to add object", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"message": "object added"})
}

// AddLayoutRow appends a row (with its mandatory first column) to a layout.
func AddLayoutRow(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}

	row, err := layout.AddRow(config.DB)
	if err != nil {
		http.Error(w, "failed to add row", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(row)
}

// AddLayoutColumn appends a column to a row layout.
func AddLayoutColumn(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}

	col, err := layout.AddColumn(config.DB)
	if err != nil {
		http.Error(w, "failed to add column", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(col)
}

type removeLayoutObjectReq struct {
	Type    string    `json:"type"`
	ChildID uuid.UUID `json:"childId"`
}

// RemoveLayoutObject detaches a child from a layout. Layout children are
// removed recursively and their rows deleted; fields are only unlinked.
func RemoveLayoutObject(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}

	var req removeLayoutObjectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	tag, ok := sublayoutTypeTag(req.Type)
	if !ok {
		http.Error(w, "unknown child type", http.StatusBadRequest)
		return
	}

	if err := layout.RemoveObject(config.DB, tag, req.ChildID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "object not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to remove object", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveLayoutObjectReq struct {
	Type        string    `json:"type"`
	ChildID     uuid.UUID `json:"childId"`
	NewLayoutID uuid.UUID `json:"newLayoutId"` // zero = stay in place
	BeforeType  string    `json:"beforeType"`
	BeforeID    uuid.UUID `json:"beforeId"`
}

// MoveLayoutObject repositions a child, possibly across layout nodes.
func MoveLayoutObject(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}

	var req moveLayoutObjectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	tag, ok := sublayoutTypeTag(req.Type)
	if !ok {
		http.Error(w, "unknown child type", http.StatusBadRequest)
		return
	}
	beforeTag := 0
	if req.BeforeID != uuid.Nil {
		if beforeTag, ok = sublayoutTypeTag(req.BeforeType); !ok {
			http.Error(w, "unknown anchor type", http.StatusBadRequest)
			return
		}
	}
	newLayoutID := req.NewLayoutID
	if newLayoutID == uuid.Nil {
		newLayoutID = layout.ID
	} else if _, err := companyLayout(r, newLayoutID); err != nil {
		http.Error(w, "target layout not found", http.StatusNotFound)
		return
	}

	if err := layout.MoveObject(config.DB, tag, req.ChildID, newLayoutID, beforeTag, req.BeforeID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "object not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to move object", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateWidthsReq struct {
	Type    string         `json:"type"`
	ChildID uuid.UUID      `json:"childId"`
	Widths  datatypes.JSON `json:"widths"`
}

// UpdateLayoutWidths stores per-column width fractions on a pivot.
func UpdateLayoutWidths(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}

	var req updateWidthsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	tag, ok := sublayoutTypeTag(req.Type)
	if !ok {
		http.Error(w, "unknown child type", http.StatusBadRequest)
		return
	}

	pivot, err := models.GetPivot(config.DB, layout.ID, tag, req.ChildID)
	if err != nil {
		http.Error(w, "pivot not found", http.StatusNotFound)
		return
	}
	if err := pivot.UpdateWidths(config.DB, req.Widths); err != nil {
		http.Error(w, "failed to update widths", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(pivot)
}

// GetLayoutUnusedFields lists fields of the matching form type not yet
// placed anywhere under this layout tree.
func GetLayoutUnusedFields(w http.ResponseWriter, r *http.Request) {
	layoutID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid layout id", http.StatusBadRequest)
		return
	}
	layout, err := companyLayout(r, layoutID)
	if err != nil {
		http.Error(w, "layout not found", http.StatusNotFound)
		return
	}
	fields, err := layout.UnusedFields(config.DB, layout.CompanyID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(fields)
}

type specialReq struct {
	SpecialType int            `json:"specialType"`
	Attributes  datatypes.JSON `json:"attributes"`
}

// CreateSpecial makes a special block available for placement in layouts.
func CreateSpecial(w http.ResponseWriter, r *http.Request) {
	var req specialReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.SpecialType < models.SpecialBlankMedia || req.SpecialType > models.SpecialSiteInfo {
		http.Error(w, "unknown special type", http.StatusBadRequest)
		return
	}
	special := models.SpecialLayout{
		CompanyID:   middleware.GetCompanyID(r),
		SpecialType: req.SpecialType,
		Attributes:  req.Attributes,
	}
	if err := config.DB.Create(&special).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(special)
}
