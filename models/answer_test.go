package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setUpdated(t *testing.T, db *gorm.DB, answerID uuid.UUID, when time.Time) {
	t.Helper()
	if err := db.Model(&Answer{}).Where("id = ?", answerID).
		UpdateColumn("updated_at", when).Error; err != nil {
		t.Fatalf("set updated_at: %v", err)
	}
}

func TestFindAnswerExactTuple(t *testing.T) {
	db := testDB(t)
	key := AnswerKey{
		JobID:     uuid.New(),
		TaskID:    uuid.New(),
		FieldID:   uuid.New(),
		AntennaID: uuid.New(),
	}
	want := recordAnswer(t, db, key, "on antenna")

	// Same field without the antenna dimension is a different tuple.
	bare := key
	bare.AntennaID = uuid.Nil
	recordAnswer(t, db, bare, "site level")

	got, err := FindAnswer(db, key)
	if err != nil {
		t.Fatalf("FindAnswer: %v", err)
	}
	if got == nil || got.ID != want.ID {
		t.Fatalf("FindAnswer = %v, want the antenna answer", got)
	}
	if got.Value != "on antenna" {
		t.Errorf("value = %q, want %q", got.Value, "on antenna")
	}

	got, err = FindAnswer(db, bare)
	if err != nil {
		t.Fatalf("FindAnswer bare: %v", err)
	}
	if got == nil || got.Value != "site level" {
		t.Errorf("nil dimension must match exactly, got %v", got)
	}
}

func TestFindAnswerRecencyWins(t *testing.T) {
	db := testDB(t)
	key := AnswerKey{JobID: uuid.New(), TaskID: uuid.New(), FieldID: uuid.New()}

	older := recordAnswer(t, db, key, "first reading")
	newer := recordAnswer(t, db, key, "corrected reading")
	setUpdated(t, db, older.ID, time.Now().Add(-2*time.Hour).UTC())
	setUpdated(t, db, newer.ID, time.Now().Add(-time.Hour).UTC())

	got, err := FindAnswer(db, key)
	if err != nil {
		t.Fatalf("FindAnswer: %v", err)
	}
	if got == nil || got.ID != newer.ID {
		t.Errorf("FindAnswer = %v, want the most recently updated row", got)
	}
}

func TestFindAnswerUserFilter(t *testing.T) {
	db := testDB(t)
	key := AnswerKey{JobID: uuid.New(), TaskID: uuid.New(), FieldID: uuid.New()}

	mine := recordAnswer(t, db, key, "mine")
	theirs := recordAnswer(t, db, key, "theirs")
	setUpdated(t, db, mine.ID, time.Now().Add(-2*time.Hour).UTC())
	setUpdated(t, db, theirs.ID, time.Now().Add(-time.Hour).UTC())

	filtered := key
	filtered.UserID = mine.UserID
	got, err := FindAnswer(db, filtered)
	if err != nil {
		t.Fatalf("FindAnswer: %v", err)
	}
	if got == nil || got.ID != mine.ID {
		t.Errorf("user-filtered FindAnswer = %v, want my older answer", got)
	}
}

func TestFindAnswerNone(t *testing.T) {
	db := testDB(t)
	got, err := FindAnswer(db, AnswerKey{
		JobID:   uuid.New(),
		TaskID:  uuid.New(),
		FieldID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("FindAnswer: %v", err)
	}
	if got != nil {
		t.Errorf("FindAnswer on empty table = %v, want nil, nil", got)
	}
}

func TestFindAnyAnswerAcrossJobs(t *testing.T) {
	db := testDB(t)
	fieldID := uuid.New()
	antennaID := uuid.New()

	first := recordAnswer(t, db, AnswerKey{
		JobID: uuid.New(), TaskID: uuid.New(), FieldID: fieldID, AntennaID: antennaID,
	}, "last year")
	second := recordAnswer(t, db, AnswerKey{
		JobID: uuid.New(), TaskID: uuid.New(), FieldID: fieldID, AntennaID: antennaID,
	}, "this visit")
	setUpdated(t, db, first.ID, time.Now().Add(-24*time.Hour).UTC())
	setUpdated(t, db, second.ID, time.Now().Add(-time.Hour).UTC())

	got, err := FindAnyAnswer(db, fieldID, antennaID, uuid.Nil, uuid.Nil, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("FindAnyAnswer: %v", err)
	}
	if got == nil || got.ID != second.ID {
		t.Errorf("FindAnyAnswer = %v, want the newest reading across jobs", got)
	}
}

func TestSelectValueLenient(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  interface{}
	}{
		{"json string", `"pass"`, "pass"},
		{"raw string", "pass", "pass"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Answer{Value: tt.value}
			if got := a.SelectValue(); got != tt.want {
				t.Errorf("SelectValue(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	a := Answer{Value: `["a","b"]`}
	list, ok := a.SelectValue().([]interface{})
	if !ok || len(list) != 2 {
		t.Errorf("SelectValue array = %v, want two elements", a.SelectValue())
	}
}

func TestSourceStr(t *testing.T) {
	tests := []struct {
		source int
		want   string
	}{
		{SourceWeb, "Web"},
		{SourceAppV2, "App V2"},
		{42, "Unknown"},
	}
	for _, tt := range tests {
		a := Answer{Source: tt.source}
		if got := a.SourceStr(); got != tt.want {
			t.Errorf("SourceStr(%d) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
