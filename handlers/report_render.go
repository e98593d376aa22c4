// handlers/report_render.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"p9e.in/towerops/config"
	"p9e.in/towerops/models"
	"p9e.in/towerops/utils"
)

// renderNode is one node of the print tree handed to the PDF renderer.
// Exactly one of Children, Field or Special is meaningful per Type.
type renderNode struct {
	Type       string         `json:"type"` // layout | field | special
	LayoutType string         `json:"layoutType,omitempty"`
	Widths     datatypes.JSON `json:"widths,omitempty"`
	Attributes datatypes.JSON `json:"attributes,omitempty"`

	FieldID    uuid.UUID   `json:"fieldId,omitempty"`
	FieldName  string      `json:"fieldName,omitempty"`
	FieldType  string      `json:"fieldType,omitempty"`
	Units      string      `json:"units,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Comment    string      `json:"comment,omitempty"`

	Special     string                 `json:"special,omitempty"`
	SpecialData map[string]interface{} `json:"specialData,omitempty"`

	Children []renderNode `json:"children,omitempty"`
}

// RenderReport resolves a task's main layout into a render tree: every
// field becomes its current answer value, empty rows are suppressed, and
// special blocks are materialized. The external PDF renderer consumes the
// result as-is.
func RenderReport(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	taskID, ok := pathID(r, "taskId")
	if !ok {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}
	job, err := companyJob(r, jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	var task models.Task
	if err := config.DB.First(&task, "id = ?", taskID).Error; err != nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	form, err := task.Form(config.DB)
	if err != nil {
		http.Error(w, "task form not found", http.StatusNotFound)
		return
	}

	// answers are addressed per equipment; the renderer calls once per
	// equipment tuple it iterates
	q := r.URL.Query()
	key := models.AnswerKey{
		JobID:       job.ID,
		TaskID:      task.ID,
		AntennaID:   queryID(q.Get("antennaId")),
		PortID:      queryID(q.Get("portId")),
		RadioID:     queryID(q.Get("radioId")),
		MicrowaveID: queryID(q.Get("microwaveId")),
		FwaID:       queryID(q.Get("fwaId")),
	}

	units := renderUnits(job)

	layout, err := mainLayoutForForm(job.CompanyID, form.FormType)
	if err != nil {
		http.Error(w, "no layout for this form type", http.StatusNotFound)
		return
	}

	tree, err := renderLayout(layout, job, key, units)
	if err != nil {
		http.Error(w, "failed to render layout", http.StatusInternalServerError)
		return
	}

	percent, err := job.PercentComplete(config.DB, task.ID)
	if err != nil {
		http.Error(w, "failed to compute progress", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"job":     job,
		"task":    task,
		"form":    form,
		"units":   models.UnitStr(units),
		"percent": percent,
		"tree":    tree,
	}
	// incomplete jobs print with a draft watermark unless disabled
	if percent < 100 && job.Watermark != models.WatermarkNone {
		resp["watermark"] = "DRAFT"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// renderUnits resolves the unit system for a job's printed output.
func renderUnits(job *models.Job) int {
	var customer *models.Customer
	if job.CustomerID != nil {
		var c models.Customer
		if err := config.DB.First(&c, "id = ?", *job.CustomerID).Error; err == nil {
			customer = &c
		}
	}
	var company models.Company
	if err := config.DB.First(&company, "id = ?", job.CompanyID).Error; err != nil {
		return models.UnitsMetric
	}
	return models.UnitPreference(customer, &company)
}

func mainLayoutForForm(companyID uuid.UUID, formType int) (*models.Layout, error) {
	// layout types mirror form types one-to-one
	layouts, err := models.MainLayouts(config.DB, companyID, formType)
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, models.ErrNotFound
	}
	return &layouts[0], nil
}

// renderLayout walks one layout node. Row children whose fields are all
// empty are dropped from the output.
func renderLayout(layout *models.Layout, job *models.Job, key models.AnswerKey, units int) (*renderNode, error) {
	node := &renderNode{
		Type:       "layout",
		LayoutType: layout.TypeString(),
		Attributes: layout.Attributes,
	}

	children, err := layout.Children(config.DB)
	if err != nil {
		return nil, err
	}

	for _, c := range children {
		switch {
		case c.Layout != nil:
			empty, err := c.Layout.RowEmpty(config.DB, key)
			if err != nil {
				return nil, err
			}
			if empty {
				continue
			}
			child, err := renderLayout(c.Layout, job, key, units)
			if err != nil {
				return nil, err
			}
			child.Widths = c.Pivot.Widths
			node.Children = append(node.Children, *child)

		case c.Field != nil:
			child, err := renderField(c.Field, key, units)
			if err != nil {
				return nil, err
			}
			child.Widths = c.Pivot.Widths
			node.Children = append(node.Children, *child)

		case c.Special != nil:
			child, err := renderSpecial(c.Special, job)
			if err != nil {
				return nil, err
			}
			child.Widths = c.Pivot.Widths
			node.Children = append(node.Children, *child)
		}
	}

	return node, nil
}

func renderField(field *models.Field, key models.AnswerKey, units int) (*renderNode, error) {
	key.FieldID = field.ID
	value, err := field.AnswerValue(config.DB, key, units)
	if err != nil {
		return nil, err
	}

	node := &renderNode{
		Type:       "field",
		FieldID:    field.ID,
		FieldName:  field.Name,
		FieldType:  field.APIType(),
		Value:      value,
		Attributes: field.Style,
	}

	opts := field.DecodeOptions()
	if opts.Units != 0 {
		node.Units = models.UnitStr(units)
	}
	if opts.Comment {
		answer, err := models.FindAnswer(config.DB, key)
		if err != nil {
			return nil, err
		}
		if answer != nil {
			node.Comment = answer.Comment
		}
	}
	return node, nil
}

// renderSpecial materializes a non-data block. The situating map gets the
// site's coordinates and framed bounds; the rest pass their attributes
// through for the renderer.
func renderSpecial(special *models.SpecialLayout, job *models.Job) (*renderNode, error) {
	node := &renderNode{
		Type:       "special",
		Special:    special.Name(),
		Attributes: special.Attributes,
	}

	if special.SpecialType == models.SpecialSituatingMap && job.SiteID != nil {
		var site models.Site
		if err := config.DB.First(&site, "id = ?", *job.SiteID).Error; err == nil {
			center := utils.Coordinate{Lat: site.Latitude, Lng: site.Longitude}
			minLat, minLng, maxLat, maxLng := utils.MapBounds([]utils.Coordinate{center}, 0.01)
			node.SpecialData = map[string]interface{}{
				"site":   site,
				"center": center,
				"bounds": map[string]float64{
					"minLat": minLat, "minLng": minLng,
					"maxLat": maxLat, "maxLng": maxLng,
				},
			}
		}
	}
	if special.SpecialType == models.SpecialSiteInfo && job.SiteID != nil {
		var site models.Site
		if err := config.DB.First(&site, "id = ?", *job.SiteID).Error; err == nil {
			node.SpecialData = map[string]interface{}{"site": site}
		}
	}

	return node, nil
}
