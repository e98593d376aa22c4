package models

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func createDecision(t *testing.T, db *gorm.DB, companyID, fieldID uuid.UUID, options string) *Decision {
	t.Helper()
	d := Decision{
		ID:        uuid.New(),
		CompanyID: companyID,
		FieldID:   fieldID,
		Options:   []byte(options),
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("create decision: %v", err)
	}
	return &d
}

func recordAnswer(t *testing.T, db *gorm.DB, key AnswerKey, value string) *Answer {
	t.Helper()
	a := Answer{
		ID:          uuid.New(),
		CompanyID:   uuid.New(),
		UserID:      uuid.New(),
		JobID:       key.JobID,
		TaskID:      key.TaskID,
		FieldID:     key.FieldID,
		AntennaID:   key.AntennaID,
		PortID:      key.PortID,
		RadioID:     key.RadioID,
		MicrowaveID: key.MicrowaveID,
		FwaID:       key.FwaID,
		Value:       value,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("record answer: %v", err)
	}
	return &a
}

func TestDecisionDecodeOptions(t *testing.T) {
	target := uuid.New()
	tests := []struct {
		name    string
		options string
		want    int
	}{
		{"valid", fmt.Sprintf(`{"yes":"%s"}`, target), 1},
		{"empty", `{}`, 0},
		{"malformed", `garbage`, 0},
		{"bad uuid skipped", fmt.Sprintf(`{"yes":"%s","no":"nope"}`, target), 1},
		{"nil uuid skipped", `{"yes":"00000000-0000-0000-0000-000000000000"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decision{Options: []byte(tt.options)}
			got := d.DecodeOptions()
			if len(got) != tt.want {
				t.Errorf("DecodeOptions(%s) = %v, want %d entries", tt.options, got, tt.want)
			}
		})
	}
}

func TestResolveFormScalar(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	yesForm := createForm(t, db, companyID, "Damage Report", FormTypeAppendix, true)
	fieldID := uuid.New()
	d := createDecision(t, db, companyID, fieldID,
		fmt.Sprintf(`{"yes":"%s"}`, yesForm.ID))

	key := AnswerKey{JobID: uuid.New(), TaskID: uuid.New()}
	// App versions differ: some store the slug raw, some JSON-encoded.
	recordAnswer(t, db, AnswerKey{JobID: key.JobID, TaskID: key.TaskID, FieldID: fieldID}, `"yes"`)

	form, err := d.ResolveForm(db, key)
	if err != nil {
		t.Fatalf("ResolveForm: %v", err)
	}
	if form == nil || form.ID != yesForm.ID {
		t.Errorf("ResolveForm = %v, want %s", form, yesForm.ID)
	}
}

func TestResolveFormArrayMembership(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	target := createForm(t, db, companyID, "Rust Checklist", FormTypeAppendix, true)
	fieldID := uuid.New()
	d := createDecision(t, db, companyID, fieldID,
		fmt.Sprintf(`{"rust":"%s"}`, target.ID))

	key := AnswerKey{JobID: uuid.New(), TaskID: uuid.New()}
	recordAnswer(t, db, AnswerKey{JobID: key.JobID, TaskID: key.TaskID, FieldID: fieldID},
		`["loose-bolts","rust"]`)

	form, err := d.ResolveForm(db, key)
	if err != nil {
		t.Fatalf("ResolveForm: %v", err)
	}
	if form == nil || form.ID != target.ID {
		t.Errorf("ResolveForm on multi-select = %v, want %s", form, target.ID)
	}
}

func TestResolveFormNoAnswer(t *testing.T) {
	db := testDB(t)
	d := createDecision(t, db, uuid.New(), uuid.New(),
		fmt.Sprintf(`{"yes":"%s"}`, uuid.New()))

	form, err := d.ResolveForm(db, AnswerKey{JobID: uuid.New(), TaskID: uuid.New()})
	if err != nil {
		t.Fatalf("ResolveForm: %v", err)
	}
	if form != nil {
		t.Errorf("ResolveForm without answer = %v, want nil", form)
	}
}

func TestResolveFormNoMatchingOption(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	fieldID := uuid.New()
	d := createDecision(t, db, companyID, fieldID,
		fmt.Sprintf(`{"yes":"%s"}`, uuid.New()))

	key := AnswerKey{JobID: uuid.New(), TaskID: uuid.New()}
	recordAnswer(t, db, AnswerKey{JobID: key.JobID, TaskID: key.TaskID, FieldID: fieldID}, "no")

	form, err := d.ResolveForm(db, key)
	if err != nil {
		t.Fatalf("ResolveForm: %v", err)
	}
	if form != nil {
		t.Errorf("ResolveForm with unmatched slug = %v, want nil", form)
	}
}

func TestResolveFormMissingTarget(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	fieldID := uuid.New()

	// Configured target was never created.
	d := createDecision(t, db, companyID, fieldID,
		fmt.Sprintf(`{"yes":"%s"}`, uuid.New()))

	key := AnswerKey{JobID: uuid.New(), TaskID: uuid.New()}
	recordAnswer(t, db, AnswerKey{JobID: key.JobID, TaskID: key.TaskID, FieldID: fieldID}, "yes")

	form, err := d.ResolveForm(db, key)
	if err != nil {
		t.Fatalf("ResolveForm: %v", err)
	}
	if form != nil {
		t.Errorf("ResolveForm with missing target = %v, want nil", form)
	}
}
