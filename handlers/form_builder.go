// handlers/form_builder.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

// companyForm loads a form and verifies it belongs to the caller's company.
func companyForm(r *http.Request, formID uuid.UUID) (*models.Form, error) {
	var form models.Form
	if err := config.DB.First(&form, "id = ?", formID).Error; err != nil {
		return nil, models.ErrNotFound
	}
	if form.CompanyID != middleware.GetCompanyID(r) {
		return nil, models.ErrNotFound
	}
	return &form, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetForms lists a company's forms, optionally filtered by type.
func GetForms(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	formType := 0
	if t, err := strconv.Atoi(r.URL.Query().Get("type")); err == nil {
		formType = t
	}

	forms, err := models.CompanyForms(config.DB, companyID, formType)
	if err != nil {
		http.Error(w, "failed to fetch forms", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(forms)
}

type formChildPayload struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	FieldOrder int         `json:"fieldOrder"`
	Child      interface{} `json:"child"`
}

// GetForm returns a form with its children in display order.
func GetForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	form, err := companyForm(r, formID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}

	children, err := models.OrderedChildren(config.DB, form.ID)
	if err != nil {
		http.Error(w, "failed to fetch children", http.StatusInternalServerError)
		return
	}

	out := make([]formChildPayload, 0, len(children))
	for _, c := range children {
		p := formChildPayload{
			ID:         c.FormField.ID,
			Type:       c.FormField.TypeString(),
			FieldOrder: c.FormField.FieldOrder,
		}
		switch {
		case c.Form != nil:
			p.Child = c.Form
		case c.Field != nil:
			p.Child = c.Field
		case c.Decision != nil:
			p.Child = c.Decision
		}
		out = append(out, p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"form":     form,
		"type":     form.TypeString(),
		"children": out,
	})
}

type createFormReq struct {
	Name     string `json:"name"`
	FormType int    `json:"formType"`
	Subform  bool   `json:"subform"`
}

func CreateForm(w http.ResponseWriter, r *http.Request) {
	var req createFormReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if models.FormTypeStrings()[req.FormType] == "" {
		http.Error(w, "unknown form type", http.StatusBadRequest)
		return
	}
	form := models.Form{
		CompanyID: middleware.GetCompanyID(r),
		Name:      req.Name,
		FormType:  req.FormType,
		Subform:   req.Subform,
	}
	if err := config.DB.Create(&form).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(form)
}

func UpdateForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	form, err := companyForm(r, formID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}

	var req createFormReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	updates := map[string]interface{}{"subform": req.Subform}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	// form_type is immutable once children exist; compatibility between
	// parent and child types would silently break otherwise
	if req.FormType != 0 && req.FormType != form.FormType {
		count, err := form.ChildrenCount(config.DB)
		if err != nil || count > 0 {
			http.Error(w, "cannot retype a form with children", http.StatusConflict)
			return
		}
		updates["form_type"] = req.FormType
	}
	if err := config.DB.Model(form).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(form)
}

func DeleteForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	form, err := companyForm(r, formID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}

	// a form referenced from other forms must be detached first
	parents, err := form.Parents(config.DB)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if len(parents) > 0 {
		http.Error(w, "form is in use by other forms", http.StatusConflict)
		return
	}
	if err := config.DB.Delete(form).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addChildReq struct {
	Type     string    `json:"type"` // form | field | decision
	ModelID  uuid.UUID `json:"modelId"`
	BeforeID uuid.UUID `json:"beforeId"` // zero = append at end
}

func childTypeTag(s string) (int, bool) {
	switch s {
	case "form":
		return models.FormFieldTypeForm, true
	case "field":
		return models.FormFieldTypeField, true
	case "decision":
		return models.FormFieldTypeDecision, true
	}
	return 0, false
}

// AddFormChild inserts a sub-form, field or decision into a form. The
// remaining children shift down; field_order stays contiguous.
func AddFormChild(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	form, err := companyForm(r, formID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}

	var req addChildReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	tag, ok := childTypeTag(req.Type)
	if !ok {
		http.Error(w, "unknown child type", http.StatusBadRequest)
		return
	}

	if tag == models.FormFieldTypeForm {
		var child models.Form
		if err := config.DB.First(&child, "id = ?", req.ModelID).Error; err != nil {
			http.Error(w, "sub-form not found", http.StatusNotFound)
			return
		}
		compatible := false
		for _, t := range models.CompatibleForms(form.FormType) {
			if child.FormType == t {
				compatible = true
				break
			}
		}
		if !compatible {
			http.Error(w, "incompatible form type", http.StatusConflict)
			return
		}
		if child.ID == form.ID {
			http.Error(w, "a form cannot contain itself", http.StatusConflict)
			return
		}
	}

	ff, err := models.InsertFormField(config.DB, form.ID, tag, req.ModelID, req.BeforeID)
	if err != nil {
		http.Error(w, "failed to add child", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ff)
}

// RemoveFormChild detaches a child from its form and closes the order gap.
// Fields and sub-forms themselves survive; only the link is removed.
func RemoveFormChild(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	if _, err := companyForm(r, formID); err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	childID, ok := pathID(r, "childId")
	if !ok {
		http.Error(w, "invalid child id", http.StatusBadRequest)
		return
	}

	if err := models.RemoveFormField(config.DB, childID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to remove child", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveChildReq struct {
	BeforeID uuid.UUID `json:"beforeId"` // zero = move to end
}

// MoveFormChild repositions a child within its form.
func MoveFormChild(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	if _, err := companyForm(r, formID); err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	childID, ok := pathID(r, "childId")
	if !ok {
		http.Error(w, "invalid child id", http.StatusBadRequest)
		return
	}

	var req moveChildReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := models.MoveFormField(config.DB, childID, req.BeforeID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to move child", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUnusedSubForms lists forms that could still be added to this form.
func GetUnusedSubForms(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	form, err := companyForm(r, formID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	forms, err := models.UnusedSubForms(config.DB, form.CompanyID, form.ID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(forms)
}

func GetUnusedSubFields(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	form, err := companyForm(r, formID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	fields, err := models.UnusedSubFields(config.DB, form.CompanyID, form.ID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(fields)
}

// -- fields ------------------------------------------------------------

func GetFields(w http.ResponseWriter, r *http.Request) {
	fields, err := models.CompanyFields(config.DB, middleware.GetCompanyID(r))
	if err != nil {
		http.Error(w, "failed to fetch fields", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fields)
}

type fieldReq struct {
	Name      string         `json:"name"`
	FieldType int            `json:"fieldType"`
	Options   datatypes.JSON `json:"options"`
	Style     datatypes.JSON `json:"style"`
}

func CreateField(w http.ResponseWriter, r *http.Request) {
	var req fieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	field := models.Field{
		CompanyID: middleware.GetCompanyID(r),
		Name:      req.Name,
		FieldType: req.FieldType,
		Options:   req.Options,
		Style:     req.Style,
	}
	if field.Type() == "Unknown" {
		http.Error(w, "unknown field type", http.StatusBadRequest)
		return
	}
	if err := config.DB.Create(&field).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(field)
}

func UpdateField(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid field id", http.StatusBadRequest)
		return
	}
	var field models.Field
	if err := config.DB.First(&field, "id = ?", fieldID).Error; err != nil {
		http.Error(w, "field not found", http.StatusNotFound)
		return
	}
	if field.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "field not found", http.StatusNotFound)
		return
	}

	var req fieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if len(req.Options) > 0 {
		updates["options"] = req.Options
	}
	if len(req.Style) > 0 {
		updates["style"] = req.Style
	}
	// field_type never changes: existing answers were entered against it
	if err := config.DB.Model(&field).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(field)
}

func DeleteField(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid field id", http.StatusBadRequest)
		return
	}
	var field models.Field
	if err := config.DB.First(&field, "id = ?", fieldID).Error; err != nil {
		http.Error(w, "field not found", http.StatusNotFound)
		return
	}
	if field.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "field not found", http.StatusNotFound)
		return
	}
	count, err := field.FormCount(config.DB)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		http.Error(w, "field is in use by forms", http.StatusConflict)
		return
	}
	if err := config.DB.Delete(&field).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- decisions ---------------------------------------------------------

type decisionReq struct {
	FieldID uuid.UUID      `json:"fieldId"`
	Options datatypes.JSON `json:"options"` // slug -> form id
}

func CreateDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	var field models.Field
	if err := config.DB.First(&field, "id = ?", req.FieldID).Error; err != nil {
		http.Error(w, "governing field not found", http.StatusNotFound)
		return
	}
	if field.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "governing field not found", http.StatusNotFound)
		return
	}

	decision := models.Decision{
		CompanyID: middleware.GetCompanyID(r),
		FieldID:   req.FieldID,
		Options:   req.Options,
	}
	if err := config.DB.Create(&decision).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(decision)
}

func UpdateDecision(w http.ResponseWriter, r *http.Request) {
	decisionID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid decision id", http.StatusBadRequest)
		return
	}
	var decision models.Decision
	if err := config.DB.First(&decision, "id = ?", decisionID).Error; err != nil {
		http.Error(w, "decision not found", http.StatusNotFound)
		return
	}
	if decision.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "decision not found", http.StatusNotFound)
		return
	}

	var req decisionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	updates := map[string]interface{}{}
	if req.FieldID != uuid.Nil {
		updates["field_id"] = req.FieldID
	}
	if len(req.Options) > 0 {
		updates["options"] = req.Options
	}
	if err := config.DB.Model(&decision).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(decision)
}

func DeleteDecision(w http.ResponseWriter, r *http.Request) {
	decisionID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid decision id", http.StatusBadRequest)
		return
	}
	var decision models.Decision
	if err := config.DB.First(&decision, "id = ?", decisionID).Error; err != nil {
		http.Error(w, "decision not found", http.StatusNotFound)
		return
	}
	if decision.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "decision not found", http.StatusNotFound)
		return
	}

	var count int64
	config.DB.Model(&models.FormField{}).
		Where("form_field_type = ? AND model_id = ?", models.FormFieldTypeDecision, decision.ID).
		Count(&count)
	if count > 0 {
		http.Error(w, "decision is in use by forms", http.StatusConflict)
		return
	}
	if err := config.DB.Delete(&decision).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFormFreshness reports when any content reachable from the form last
// changed, recomputing and persisting the stored stamp if stale.
func GetFormFreshness(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}
	form, err := companyForm(r, formID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	latest, err := form.LastUpdated(config.DB, true)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"formId":      form.ID,
		"lastUpdated": latest,
	})
}
