package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobStatusCreated   = 1
	JobStatusAssigned  = 2
	JobStatusAccepted  = 3
	JobStatusStarted   = 4
	JobStatusSuspended = 5
	JobStatusCompleted = 6
	JobStatusCancelled = 7
	JobStatusClosed    = 8
)

var jobStatusStrings = map[int]string{
	JobStatusCreated:   "Created",
	JobStatusAssigned:  "Assigned",
	JobStatusAccepted:  "Accepted",
	JobStatusStarted:   "Started",
	JobStatusSuspended: "Suspended",
	JobStatusCompleted: "Completed",
	JobStatusCancelled: "Cancelled",
	JobStatusClosed:    "Closed",
}

const (
	JobTypeSite     = 1
	JobTypeVehicle  = 2
	JobTypePersonal = 3
)

var jobTypeStrings = map[int]string{
	JobTypeSite:     "Site",
	JobTypeVehicle:  "Vehicle",
	JobTypePersonal: "Personal",
}

// Draft report watermarking modes.
const (
	WatermarkNone     = 0
	WatermarkPartial  = 1
	WatermarkComments = 2
)

// Task is a unit of work within jobs: it names the root form the crew
// fills in. Tasks are reusable across jobs.
type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	FormID    uuid.UUID `gorm:"type:uuid;not null;index" json:"form_id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

// Form loads the task's root form.
func (t *Task) Form(db *gorm.DB) (*Form, error) {
	var form Form
	if err := db.First(&form, "id = ?", t.FormID).Error; err != nil {
		return nil, notFound(err)
	}
	return &form, nil
}

// Job is one visit of a crew to a site (or vehicle/personal check).
type Job struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	SiteID     *uuid.UUID `gorm:"type:uuid;index" json:"site_id,omitempty"`
	VehicleID  *uuid.UUID `gorm:"type:uuid" json:"vehicle_id,omitempty"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	JobType    int        `gorm:"default:1" json:"job_type"`
	Status     int        `gorm:"default:1" json:"status"`
	Watermark  int        `gorm:"default:0" json:"watermark"`

	Assigned    *time.Time `json:"assigned,omitempty"`
	Completed   *time.Time `json:"completed,omitempty"`
	FirstAnswer *time.Time `json:"first_answer,omitempty"`
	LastAnswer  *time.Time `json:"last_answer,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobTask binds a task into a job and tracks when the crew first and last
// answered anything on it.
type JobTask struct {
	JobID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"job_id"`
	TaskID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	FirstAnswer *time.Time `json:"first_answer,omitempty"`
	LastAnswer  *time.Time `json:"last_answer,omitempty"`
}

func (JobTask) TableName() string {
	return "job_tasks"
}

// JobUser assigns a crew member to a job.
type JobUser struct {
	JobID  uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
}

func (JobUser) TableName() string {
	return "job_users"
}

func JobStatusString(status int) string {
	if s, ok := jobStatusStrings[status]; ok {
		return s
	}
	return "Unknown"
}

func (j *Job) StatusString() string {
	return JobStatusString(j.Status)
}

func (j *Job) TypeString() string {
	if s, ok := jobTypeStrings[j.JobType]; ok {
		return s
	}
	return "Unknown"
}

// Tasks lists the tasks bound to this job.
func (j *Job) Tasks(db *gorm.DB) ([]Task, error) {
	var tasks []Task
	err := db.Joins("JOIN job_tasks ON job_tasks.task_id = tasks.id").
		Where("job_tasks.job_id = ?", j.ID).Find(&tasks).Error
	return tasks, err
}

// Crew lists the users assigned to this job.
func (j *Job) Crew(db *gorm.DB) ([]User, error) {
	var users []User
	err := db.Joins("JOIN job_users ON job_users.user_id = users.id").
		Where("job_users.job_id = ?", j.ID).Find(&users).Error
	return users, err
}

// PercentComplete walks the task's form tree and reports the share of
// reachable fields that have at least one answer for this job.
func (j *Job) PercentComplete(db *gorm.DB, taskID uuid.UUID) (int, error) {
	var task Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return 0, notFound(err)
	}
	form, err := task.Form(db)
	if err != nil {
		if err == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	fieldIDs, err := form.AllSubFieldIDs(db)
	if err != nil {
		return 0, err
	}
	if len(fieldIDs) == 0 {
		return 0, nil
	}

	// A field may carry answers from several users; it counts once.
	answered := 0
	for _, fieldID := range fieldIDs {
		var count int64
		if err := db.Model(&Answer{}).
			Where("job_id = ? AND task_id = ? AND field_id = ?", j.ID, taskID, fieldID).
			Count(&count).Error; err != nil {
			return 0, err
		}
		if count > 0 {
			answered++
		}
	}
	return int(math.Floor(float64(answered) / float64(len(fieldIDs)) * 100)), nil
}

// FirstLast records answer activity: stamps the job's first/last answer
// times, bumps an accepted job to started and updates the task binding.
func (j *Job) FirstLast(db *gorm.DB, taskID uuid.UUID) error {
	now := time.Now()
	if j.FirstAnswer == nil {
		j.FirstAnswer = &now
	}
	j.LastAnswer = &now
	if j.Status == JobStatusAccepted {
		j.Status = JobStatusStarted
	}
	if err := db.Save(j).Error; err != nil {
		return err
	}

	if taskID == uuid.Nil {
		return nil
	}
	var jt JobTask
	err := db.Where("job_id = ? AND task_id = ?", j.ID, taskID).First(&jt).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil
		}
		return err
	}
	updates := map[string]interface{}{"last_answer": now}
	if jt.FirstAnswer == nil {
		updates["first_answer"] = now
	}
	return db.Model(&JobTask{}).
		Where("job_id = ? AND task_id = ?", j.ID, taskID).
		Updates(updates).Error
}

// Finish marks the job completed. Notification fan-out is the caller's
// concern; delivery lives outside this package.
func (j *Job) Finish(db *gorm.DB) error {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Completed = &now
	return db.Save(j).Error
}

// CompanyJobs lists a tenant's jobs, newest first.
func CompanyJobs(db *gorm.DB, companyID uuid.UUID) ([]Job, error) {
	var jobs []Job
	err := db.Where("company_id = ?", companyID).Order("created_at desc").Find(&jobs).Error
	return jobs, err
}

// ActiveJobsForUser lists a crew member's jobs that are still in play.
func ActiveJobsForUser(db *gorm.DB, companyID, userID uuid.UUID) ([]Job, error) {
	var jobs []Job
	err := db.Joins("JOIN job_users ON job_users.job_id = jobs.id").
		Where("jobs.company_id = ? AND job_users.user_id = ?", companyID, userID).
		Where("jobs.status IN ?", []int{JobStatusAssigned, JobStatusAccepted, JobStatusStarted, JobStatusSuspended}).
		Find(&jobs).Error
	return jobs, err
}
