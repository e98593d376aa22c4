// handlers/job_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

func companyJob(r *http.Request, jobID uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := config.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return nil, models.ErrNotFound
	}
	if job.CompanyID != middleware.GetCompanyID(r) {
		return nil, models.ErrNotFound
	}
	return &job, nil
}

// GetJobs lists the company's jobs; crew members only see their own.
func GetJobs(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var jobs []models.Job
	var err error
	if middleware.GetRole(r) == models.RoleCrew {
		jobs, err = models.ActiveJobsForUser(config.DB, companyID, middleware.GetUserID(r))
	} else {
		jobs, err = models.CompanyJobs(config.DB, companyID)
	}
	if err != nil {
		http.Error(w, "failed to fetch jobs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

// GetJob returns one job with its tasks, crew and per-task progress.
func GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := companyJob(r, jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	tasks, err := job.Tasks(config.DB)
	if err != nil {
		http.Error(w, "failed to fetch tasks", http.StatusInternalServerError)
		return
	}
	crew, err := job.Crew(config.DB)
	if err != nil {
		http.Error(w, "failed to fetch crew", http.StatusInternalServerError)
		return
	}

	type taskPayload struct {
		models.Task
		Percent int `json:"percent"`
	}
	taskOut := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		percent, err := job.PercentComplete(config.DB, t.ID)
		if err != nil {
			http.Error(w, "failed to compute progress", http.StatusInternalServerError)
			return
		}
		taskOut = append(taskOut, taskPayload{Task: t, Percent: percent})
	}

	crewOut := make([]userPayload, 0, len(crew))
	for _, u := range crew {
		crewOut = append(crewOut, userPayload{
			ID: u.ID, CompanyID: u.CompanyID, Name: u.Name,
			Email: u.Email, Phone: u.Phone, Role: u.Role,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job":    job,
		"status": job.StatusString(),
		"tasks":  taskOut,
		"crew":   crewOut,
	})
}

type createJobReq struct {
	Name       string      `json:"name"`
	JobType    int         `json:"jobType"`
	CustomerID *uuid.UUID  `json:"customerId"`
	SiteID     *uuid.UUID  `json:"siteId"`
	VehicleID  *uuid.UUID  `json:"vehicleId"`
	Watermark  int         `json:"watermark"`
	TaskIDs    []uuid.UUID `json:"taskIds"`
	CrewIDs    []uuid.UUID `json:"crewIds"`
}

func CreateJob(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req createJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.JobType == 0 {
		req.JobType = models.JobTypeSite
	}

	job := models.Job{
		CompanyID:  companyID,
		CustomerID: req.CustomerID,
		SiteID:     req.SiteID,
		VehicleID:  req.VehicleID,
		Name:       req.Name,
		JobType:    req.JobType,
		Status:     models.JobStatusCreated,
		Watermark:  req.Watermark,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		for _, taskID := range req.TaskIDs {
			if err := tx.Create(&models.JobTask{JobID: job.ID, TaskID: taskID}).Error; err != nil {
				return err
			}
		}
		for _, userID := range req.CrewIDs {
			if err := tx.Create(&models.JobUser{JobID: job.ID, UserID: userID}).Error; err != nil {
				return err
			}
		}
		if len(req.CrewIDs) > 0 {
			now := time.Now()
			return tx.Model(&job).Updates(map[string]interface{}{
				"status":   models.JobStatusAssigned,
				"assigned": now,
			}).Error
		}
		return nil
	})
	if err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

type assignCrewReq struct {
	CrewIDs []uuid.UUID `json:"crewIds"`
}

// AssignCrew replaces the crew of a job and marks it assigned.
func AssignCrew(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := companyJob(r, jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	var req assignCrewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.JobUser{}).Error; err != nil {
			return err
		}
		for _, userID := range req.CrewIDs {
			if err := tx.Create(&models.JobUser{JobID: job.ID, UserID: userID}).Error; err != nil {
				return err
			}
		}
		if job.Status == models.JobStatusCreated && len(req.CrewIDs) > 0 {
			now := time.Now()
			return tx.Model(job).Updates(map[string]interface{}{
				"status":   models.JobStatusAssigned,
				"assigned": now,
			}).Error
		}
		return nil
	})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(job)
}

// jobTransitions lists the legal source statuses per requested action.
var jobTransitions = map[string]struct {
	from  []int
	to    int
	event string
}{
	"accept":   {[]int{models.JobStatusAssigned}, models.JobStatusAccepted, ""},
	"start":    {[]int{models.JobStatusAccepted, models.JobStatusSuspended}, models.JobStatusStarted, models.EventJobStarted},
	"suspend":  {[]int{models.JobStatusStarted}, models.JobStatusSuspended, ""},
	"complete": {[]int{models.JobStatusStarted, models.JobStatusSuspended}, models.JobStatusCompleted, models.EventJobCompleted},
	"cancel": {[]int{
		models.JobStatusCreated, models.JobStatusAssigned, models.JobStatusAccepted,
		models.JobStatusStarted, models.JobStatusSuspended,
	}, models.JobStatusCancelled, ""},
	"close": {[]int{models.JobStatusCompleted}, models.JobStatusClosed, ""},
}

// TransitionJob applies a lifecycle action (accept, start, suspend,
// complete, cancel, close) to a job.
func TransitionJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := companyJob(r, jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	action := mux.Vars(r)["action"]
	transition, ok := jobTransitions[action]
	if !ok {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	legal := false
	for _, from := range transition.from {
		if job.Status == from {
			legal = true
			break
		}
	}
	if !legal {
		http.Error(w, "illegal transition from "+job.StatusString(), http.StatusConflict)
		return
	}

	updates := map[string]interface{}{"status": transition.to}
	if transition.to == models.JobStatusCompleted {
		now := time.Now()
		updates["completed"] = now
	}
	if err := config.DB.Model(job).Updates(updates).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if transition.event != "" {
		NotifyJobEvent(config.DB, job, transition.event)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"job":    job,
		"status": job.StatusString(),
	})
}

// -- tasks -------------------------------------------------------------

func GetTasks(w http.ResponseWriter, r *http.Request) {
	var tasks []models.Task
	err := config.DB.Where("company_id = ?", middleware.GetCompanyID(r)).
		Order("name asc").Find(&tasks).Error
	if err != nil {
		http.Error(w, "failed to fetch tasks", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

type taskReq struct {
	Name   string    `json:"name"`
	FormID uuid.UUID `json:"formId"`
}

func CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// a task's form must be a top-level form of the same company
	form, err := companyForm(r, req.FormID)
	if err != nil {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	if form.Subform {
		http.Error(w, "a task needs a top-level form", http.StatusConflict)
		return
	}

	task := models.Task{
		CompanyID: middleware.GetCompanyID(r),
		Name:      req.Name,
		FormID:    req.FormID,
	}
	if err := config.DB.Create(&task).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

func DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}
	var task models.Task
	if err := config.DB.First(&task, "id = ?", taskID).Error; err != nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	if task.CompanyID != middleware.GetCompanyID(r) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	var count int64
	config.DB.Model(&models.JobTask{}).Where("task_id = ?", task.ID).Count(&count)
	if count > 0 {
		http.Error(w, "task is in use by jobs", http.StatusConflict)
		return
	}
	if err := config.DB.Delete(&task).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
