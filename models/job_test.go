package models

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func createJob(t *testing.T, db *gorm.DB, companyID uuid.UUID, status int) *Job {
	t.Helper()
	j := Job{ID: uuid.New(), CompanyID: companyID, Name: "Site Visit", JobType: JobTypeSite, Status: status}
	if err := db.Create(&j).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return &j
}

func bindTask(t *testing.T, db *gorm.DB, job *Job, companyID uuid.UUID, formID uuid.UUID) *Task {
	t.Helper()
	task := Task{ID: uuid.New(), CompanyID: companyID, Name: "Inspection", FormID: formID}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := db.Create(&JobTask{JobID: job.ID, TaskID: task.ID}).Error; err != nil {
		t.Fatalf("bind task: %v", err)
	}
	return &task
}

func TestPercentComplete(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	form := createForm(t, db, companyID, "Survey", FormTypeSite, false)
	sub := createForm(t, db, companyID, "Appendix", FormTypeAppendix, true)
	embedForm(t, db, form, sub)
	f1 := attachField(t, db, form, companyID, "Height")
	f2 := attachField(t, db, form, companyID, "Azimuth")
	f3 := attachField(t, db, sub, companyID, "Notes")
	_ = f3

	job := createJob(t, db, companyID, JobStatusStarted)
	task := bindTask(t, db, job, companyID, form.ID)

	percent, err := job.PercentComplete(db, task.ID)
	if err != nil {
		t.Fatalf("PercentComplete: %v", err)
	}
	if percent != 0 {
		t.Errorf("unanswered task = %d%%, want 0", percent)
	}

	// Two of three reachable fields answered, rounded down.
	for _, fieldID := range []uuid.UUID{f1.ID, f2.ID} {
		recordAnswer(t, db, AnswerKey{JobID: job.ID, TaskID: task.ID, FieldID: fieldID}, "42")
	}
	percent, err = job.PercentComplete(db, task.ID)
	if err != nil {
		t.Fatalf("PercentComplete: %v", err)
	}
	if percent != 66 {
		t.Errorf("2/3 answered = %d%%, want 66", percent)
	}

	// A second user answering the same field must not double count.
	recordAnswer(t, db, AnswerKey{JobID: job.ID, TaskID: task.ID, FieldID: f1.ID}, "43")
	percent, err = job.PercentComplete(db, task.ID)
	if err != nil {
		t.Fatalf("PercentComplete: %v", err)
	}
	if percent != 66 {
		t.Errorf("duplicate answers counted, got %d%%, want 66", percent)
	}
}

func TestPercentCompleteEmptyForm(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	form := createForm(t, db, companyID, "Blank", FormTypeSite, false)
	job := createJob(t, db, companyID, JobStatusStarted)
	task := bindTask(t, db, job, companyID, form.ID)

	percent, err := job.PercentComplete(db, task.ID)
	if err != nil {
		t.Fatalf("PercentComplete: %v", err)
	}
	if percent != 0 {
		t.Errorf("form without fields = %d%%, want 0", percent)
	}
}

func TestFirstLastStampsAndStarts(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	form := createForm(t, db, companyID, "Survey", FormTypeSite, false)
	job := createJob(t, db, companyID, JobStatusAccepted)
	task := bindTask(t, db, job, companyID, form.ID)

	if err := job.FirstLast(db, task.ID); err != nil {
		t.Fatalf("FirstLast: %v", err)
	}
	var reloaded Job
	if err := db.First(&reloaded, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.FirstAnswer == nil || reloaded.LastAnswer == nil {
		t.Errorf("answer timestamps not stamped: %+v", reloaded)
	}
	if reloaded.Status != JobStatusStarted {
		t.Errorf("accepted job answering kept status %d, want started", reloaded.Status)
	}

	var jt JobTask
	if err := db.Where("job_id = ? AND task_id = ?", job.ID, task.ID).First(&jt).Error; err != nil {
		t.Fatalf("reload binding: %v", err)
	}
	if jt.FirstAnswer == nil || jt.LastAnswer == nil {
		t.Errorf("task binding timestamps not stamped: %+v", jt)
	}
	first := *jt.FirstAnswer

	// A later answer moves only last_answer.
	if err := job.FirstLast(db, task.ID); err != nil {
		t.Fatalf("second FirstLast: %v", err)
	}
	if err := db.Where("job_id = ? AND task_id = ?", job.ID, task.ID).First(&jt).Error; err != nil {
		t.Fatalf("reload binding: %v", err)
	}
	if !jt.FirstAnswer.Equal(first) {
		t.Errorf("first_answer moved from %v to %v", first, jt.FirstAnswer)
	}
}

func TestActiveJobsForUser(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	userID := uuid.New()

	active := createJob(t, db, companyID, JobStatusStarted)
	done := createJob(t, db, companyID, JobStatusCompleted)
	unassigned := createJob(t, db, companyID, JobStatusStarted)
	_ = unassigned
	for _, job := range []*Job{active, done} {
		if err := db.Create(&JobUser{JobID: job.ID, UserID: userID}).Error; err != nil {
			t.Fatalf("assign crew: %v", err)
		}
	}

	jobs, err := ActiveJobsForUser(db, companyID, userID)
	if err != nil {
		t.Fatalf("ActiveJobsForUser: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != active.ID {
		t.Errorf("ActiveJobsForUser = %v, want only the started job", jobs)
	}
}

func TestJobStatusString(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{JobStatusCreated, "Created"},
		{JobStatusSuspended, "Suspended"},
		{42, "Unknown"},
	}
	for _, tt := range tests {
		if got := JobStatusString(tt.status); got != tt.want {
			t.Errorf("JobStatusString(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
