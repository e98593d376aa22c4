package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventJobStarted    = "job.started"
	EventJobCompleted  = "job.completed"
	EventTaskStarted   = "task.started"
	EventTaskCompleted = "task.completed"
	EventReportReady   = "report.ready"
)

// Notification is one delivered (or pending) message about a job event.
// Delivery itself is an external collaborator; rows record the fan-out.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	JobID     *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Event     string     `gorm:"size:100;not null" json:"event"`
	Subject   string     `gorm:"size:500" json:"subject"`
	Body      string     `gorm:"type:text" json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Subscription marks a user as subscribed to one event kind for a job's
// customer scope. Empty JobID means all jobs.
type Subscription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	JobID     *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Event     string     `gorm:"size:100;not null" json:"event"`

	CreatedAt time.Time `json:"created_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Subscribers lists the users to notify for an event on a job.
func Subscribers(db *gorm.DB, companyID uuid.UUID, jobID uuid.UUID, event string) ([]Subscription, error) {
	var subs []Subscription
	err := db.Where("company_id = ? AND event = ?", companyID, event).
		Where("job_id IS NULL OR job_id = ?", jobID).
		Find(&subs).Error
	return subs, err
}

// UnreadCount counts a user's unread notifications.
func UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}
