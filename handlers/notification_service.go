// handlers/notification_service.go
package handlers

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"text/template"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/towerops/config"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

// one template pair per event kind
var notificationTemplates = map[string]struct {
	subject string
	body    string
}{
	models.EventJobStarted: {
		"Job started: {{.Job.Name}}",
		"Work on job {{.Job.Name}} started at {{.When.Format \"2006-01-02 15:04\"}}.",
	},
	models.EventJobCompleted: {
		"Job completed: {{.Job.Name}}",
		"Job {{.Job.Name}} was completed at {{.When.Format \"2006-01-02 15:04\"}}.",
	},
	models.EventTaskStarted: {
		"Task started on {{.Job.Name}}",
		"A task on job {{.Job.Name}} received its first answer.",
	},
	models.EventTaskCompleted: {
		"Task completed on {{.Job.Name}}",
		"A task on job {{.Job.Name}} is fully answered.",
	},
	models.EventReportReady: {
		"Report ready: {{.Job.Name}}",
		"The report for job {{.Job.Name}} is ready for review.",
	},
}

type notificationContext struct {
	Job  *models.Job
	When time.Time
}

// NotifyJobEvent fans an event out to every subscriber of the job. Failures
// are logged, never surfaced: notifications must not fail the triggering
// request.
func NotifyJobEvent(db *gorm.DB, job *models.Job, event string) {
	tmpl, ok := notificationTemplates[event]
	if !ok {
		log.Printf("notify: no template for event %q", event)
		return
	}

	subs, err := models.Subscribers(db, job.CompanyID, job.ID, event)
	if err != nil {
		log.Printf("notify: failed to load subscribers for %s: %v", event, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	ctx := notificationContext{Job: job, When: time.Now()}
	subject, err := renderTemplate(tmpl.subject, ctx)
	if err != nil {
		log.Printf("notify: subject template for %s: %v", event, err)
		return
	}
	body, err := renderTemplate(tmpl.body, ctx)
	if err != nil {
		log.Printf("notify: body template for %s: %v", event, err)
		return
	}

	for _, sub := range subs {
		n := models.Notification{
			CompanyID: job.CompanyID,
			UserID:    sub.UserID,
			JobID:     &job.ID,
			Event:     event,
			Subject:   subject,
			Body:      body,
		}
		if err := db.Create(&n).Error; err != nil {
			log.Printf("notify: failed to store notification for user %s: %v", sub.UserID, err)
		}
	}
}

func renderTemplate(text string, ctx notificationContext) (string, error) {
	t, err := template.New("notification").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GetNotifications lists the caller's notifications, newest first.
func GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var notifications []models.Notification
	err := config.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		http.Error(w, "failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	unread, err := models.UnreadCount(config.DB, userID)
	if err != nil {
		http.Error(w, "failed to count unread", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkNotificationRead stamps one notification as read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	var n models.Notification
	if err := config.DB.First(&n, "id = ?", notificationID).Error; err != nil {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	if n.UserID != middleware.GetUserID(r) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}

	now := time.Now()
	if err := config.DB.Model(&n).Update("read_at", now).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(n)
}

type subscribeReq struct {
	Event string     `json:"event"`
	JobID *uuid.UUID `json:"jobId"` // null = all jobs
}

// Subscribe registers the caller for an event kind.
func Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if _, ok := notificationTemplates[req.Event]; !ok {
		http.Error(w, "unknown event", http.StatusBadRequest)
		return
	}

	sub := models.Subscription{
		CompanyID: middleware.GetCompanyID(r),
		UserID:    middleware.GetUserID(r),
		JobID:     req.JobID,
		Event:     req.Event,
	}
	if err := config.DB.Create(&sub).Error; err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sub)
}

// Unsubscribe removes one subscription of the caller.
func Unsubscribe(w http.ResponseWriter, r *http.Request) {
	subID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid subscription id", http.StatusBadRequest)
		return
	}

	res := config.DB.Where("id = ? AND user_id = ?", subID, middleware.GetUserID(r)).
		Delete(&models.Subscription{})
	if res.Error != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "subscription not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
