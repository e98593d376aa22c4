// handlers/answer_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

// answerKeyReq is the wire shape of an answer tuple. Omitted equipment
// dimensions decode to uuid.Nil ("not applicable").
type answerKeyReq struct {
	JobID       uuid.UUID `json:"jobId"`
	TaskID      uuid.UUID `json:"taskId"`
	FieldID     uuid.UUID `json:"fieldId"`
	AntennaID   uuid.UUID `json:"antennaId"`
	PortID      uuid.UUID `json:"portId"`
	RadioID     uuid.UUID `json:"radioId"`
	MicrowaveID uuid.UUID `json:"microwaveId"`
	FwaID       uuid.UUID `json:"fwaId"`
}

func (k *answerKeyReq) key() models.AnswerKey {
	return models.AnswerKey{
		JobID:       k.JobID,
		TaskID:      k.TaskID,
		FieldID:     k.FieldID,
		AntennaID:   k.AntennaID,
		PortID:      k.PortID,
		RadioID:     k.RadioID,
		MicrowaveID: k.MicrowaveID,
		FwaID:       k.FwaID,
	}
}

type submitAnswerReq struct {
	answerKeyReq
	Value   string `json:"value"`
	Comment string `json:"comment"`
	Other   string `json:"other"`
	Source  int    `json:"source"`
}

// SubmitAnswer records a value for a field. A crew member's existing row
// for the same tuple is updated in place; rows from other users are left
// alone and recency decides which one reports show.
func SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	companyID := middleware.GetCompanyID(r)

	var req submitAnswerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.JobID == uuid.Nil || req.TaskID == uuid.Nil || req.FieldID == uuid.Nil {
		http.Error(w, "jobId, taskId and fieldId are required", http.StatusBadRequest)
		return
	}

	var job models.Job
	if err := config.DB.First(&job, "id = ?", req.JobID).Error; err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if job.CompanyID != companyID {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	switch job.Status {
	case models.JobStatusCompleted, models.JobStatusCancelled, models.JobStatusClosed:
		http.Error(w, "job no longer accepts answers", http.StatusConflict)
		return
	}

	key := req.key()
	key.UserID = userID
	existing, err := models.FindAnswer(config.DB, key)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if req.Source == models.SourceUnknown {
		req.Source = models.SourceWeb
	}

	var answer *models.Answer
	if existing != nil {
		existing.Value = req.Value
		existing.Comment = req.Comment
		existing.Other = req.Other
		existing.Source = req.Source
		if err := config.DB.Save(existing).Error; err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		answer = existing
	} else {
		answer = &models.Answer{
			CompanyID:   companyID,
			UserID:      userID,
			JobID:       req.JobID,
			TaskID:      req.TaskID,
			FieldID:     req.FieldID,
			AntennaID:   req.AntennaID,
			PortID:      req.PortID,
			RadioID:     req.RadioID,
			MicrowaveID: req.MicrowaveID,
			FwaID:       req.FwaID,
			Value:       req.Value,
			Comment:     req.Comment,
			Other:       req.Other,
			Source:      req.Source,
		}
		if err := config.DB.Create(answer).Error; err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
	}

	// stamp activity; first answer bumps an accepted job to started
	if err := job.FirstLast(config.DB, req.TaskID); err != nil {
		http.Error(w, "failed to stamp job activity", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(answer)
}

// GetAnswer resolves the current answer for a tuple: the most recently
// updated row wins regardless of author. Value is rendered per the field
// type and the caller's unit preference.
func GetAnswer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := models.AnswerKey{
		JobID:       queryID(q.Get("jobId")),
		TaskID:      queryID(q.Get("taskId")),
		FieldID:     queryID(q.Get("fieldId")),
		AntennaID:   queryID(q.Get("antennaId")),
		PortID:      queryID(q.Get("portId")),
		RadioID:     queryID(q.Get("radioId")),
		MicrowaveID: queryID(q.Get("microwaveId")),
		FwaID:       queryID(q.Get("fwaId")),
	}
	if key.FieldID == uuid.Nil {
		http.Error(w, "fieldId is required", http.StatusBadRequest)
		return
	}

	var field models.Field
	if err := config.DB.First(&field, "id = ?", key.FieldID).Error; err != nil {
		http.Error(w, "field not found", http.StatusNotFound)
		return
	}
	if field.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "field not found", http.StatusNotFound)
		return
	}

	units := models.UnitsMetric
	if u, err := strconv.Atoi(q.Get("units")); err == nil && u != 0 {
		units = u
	}

	answer, err := models.FindAnswer(config.DB, key)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"fieldId": field.ID,
		"type":    field.APIType(),
		"value":   field.Value(config.DB, answer, units),
	}
	if answer != nil {
		resp["answer"] = answer
	}
	json.NewEncoder(w).Encode(resp)
}

func queryID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

type resolveDecisionReq struct {
	DecisionID uuid.UUID `json:"decisionId"`
	answerKeyReq
}

// ResolveDecision picks the target sub-form a decision routes to, based on
// the current answer of its governing field. A null form means no branch
// applies yet.
func ResolveDecision(w http.ResponseWriter, r *http.Request) {
	var req resolveDecisionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	var decision models.Decision
	if err := config.DB.First(&decision, "id = ?", req.DecisionID).Error; err != nil {
		http.Error(w, "decision not found", http.StatusNotFound)
		return
	}
	if decision.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "decision not found", http.StatusNotFound)
		return
	}

	form, err := decision.ResolveForm(config.DB, req.key())
	if err != nil {
		http.Error(w, "failed to resolve decision", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"decisionId": decision.ID,
		"form":       form, // null when no option matches
	})
}

// GetTaskProgress reports the completion percentage of one task in a job.
func GetTaskProgress(w http.ResponseWriter, r *http.Request) {
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

	var job models.Job
	if err := config.DB.First(&job, "id = ?", jobID).Error; err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if job.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	percent, err := job.PercentComplete(config.DB, taskID)
	if err != nil {
		http.Error(w, "failed to compute progress", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobId":   job.ID,
		"taskId":  taskID,
		"percent": percent,
	})
}
