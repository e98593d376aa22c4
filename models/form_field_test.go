package models

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// seedSlots appends n field slots to a form and returns them in order.
func seedSlots(t *testing.T, db *gorm.DB, formID uuid.UUID, n int) []FormField {
	t.Helper()
	slots := make([]FormField, 0, n)
	for i := 0; i < n; i++ {
		ff, err := InsertFormField(db, formID, FormFieldTypeField, uuid.New(), uuid.Nil)
		if err != nil {
			t.Fatalf("seed slot %d: %v", i, err)
		}
		slots = append(slots, *ff)
	}
	return slots
}

func orderOf(t *testing.T, db *gorm.DB, formFieldID uuid.UUID) int {
	t.Helper()
	var ff FormField
	if err := db.First(&ff, "id = ?", formFieldID).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	return ff.FieldOrder
}

func assertOrder(t *testing.T, db *gorm.DB, formID uuid.UUID, want []uuid.UUID) {
	t.Helper()
	if err := CheckFieldOrder(db, formID); err != nil {
		t.Fatalf("order invariant broken: %v", err)
	}
	fields, err := FormFields(db, formID)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(fields) != len(want) {
		t.Fatalf("got %d slots, want %d", len(fields), len(want))
	}
	for i, ff := range fields {
		if ff.ID != want[i] {
			t.Errorf("position %d: got slot %s, want %s", i+1, ff.ID, want[i])
		}
	}
}

func TestInsertFormFieldAppends(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()

	slots := seedSlots(t, db, formID, 3)
	for i, ff := range slots {
		if ff.FieldOrder != i+1 {
			t.Errorf("slot %d appended at order %d, want %d", i, ff.FieldOrder, i+1)
		}
	}
	assertOrder(t, db, formID, []uuid.UUID{slots[0].ID, slots[1].ID, slots[2].ID})
}

func TestInsertFormFieldBefore(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()
	slots := seedSlots(t, db, formID, 3)

	inserted, err := InsertFormField(db, formID, FormFieldTypeField, uuid.New(), slots[1].ID)
	if err != nil {
		t.Fatalf("insert before: %v", err)
	}
	if inserted.FieldOrder != 2 {
		t.Errorf("inserted at order %d, want 2", inserted.FieldOrder)
	}
	assertOrder(t, db, formID, []uuid.UUID{slots[0].ID, inserted.ID, slots[1].ID, slots[2].ID})
}

func TestInsertFormFieldBeforeMissing(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()
	seedSlots(t, db, formID, 2)

	_, err := InsertFormField(db, formID, FormFieldTypeField, uuid.New(), uuid.New())
	if err != ErrNotFound {
		t.Errorf("insert before unknown sibling: err = %v, want ErrNotFound", err)
	}
	if err := CheckFieldOrder(db, formID); err != nil {
		t.Errorf("failed insert must not disturb order: %v", err)
	}
}

func TestRemoveFormFieldClosesGap(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()
	slots := seedSlots(t, db, formID, 4)

	if err := RemoveFormField(db, slots[1].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	assertOrder(t, db, formID, []uuid.UUID{slots[0].ID, slots[2].ID, slots[3].ID})

	if err := RemoveFormField(db, slots[1].ID); err != ErrNotFound {
		t.Errorf("double remove: err = %v, want ErrNotFound", err)
	}
}

func TestMoveFormFieldUp(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()
	slots := seedSlots(t, db, formID, 4)

	// Move the last slot in front of the first.
	if err := MoveFormField(db, slots[3].ID, slots[0].ID); err != nil {
		t.Fatalf("move up: %v", err)
	}
	assertOrder(t, db, formID, []uuid.UUID{slots[3].ID, slots[0].ID, slots[1].ID, slots[2].ID})
}

func TestMoveFormFieldDownBeforeAnchor(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()
	slots := seedSlots(t, db, formID, 4)

	// Move the first slot to just before the last: it must land in
	// position 3, not take the anchor's place.
	if err := MoveFormField(db, slots[0].ID, slots[3].ID); err != nil {
		t.Fatalf("move down: %v", err)
	}
	assertOrder(t, db, formID, []uuid.UUID{slots[1].ID, slots[2].ID, slots[0].ID, slots[3].ID})
}

func TestMoveFormFieldToEnd(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()
	slots := seedSlots(t, db, formID, 3)

	if err := MoveFormField(db, slots[0].ID, uuid.Nil); err != nil {
		t.Fatalf("move to end: %v", err)
	}
	assertOrder(t, db, formID, []uuid.UUID{slots[1].ID, slots[2].ID, slots[0].ID})
	if got := orderOf(t, db, slots[0].ID); got != 3 {
		t.Errorf("moved slot at order %d, want 3", got)
	}
}

func TestMoveFormFieldNoop(t *testing.T) {
	db := testDB(t)
	formID := uuid.New()
	slots := seedSlots(t, db, formID, 3)

	// Moving a slot in front of itself changes nothing.
	if err := MoveFormField(db, slots[1].ID, slots[1].ID); err != nil {
		t.Fatalf("noop move: %v", err)
	}
	assertOrder(t, db, formID, []uuid.UUID{slots[0].ID, slots[1].ID, slots[2].ID})
}

func TestMoveFormFieldIsolatedPerForm(t *testing.T) {
	db := testDB(t)
	formA := uuid.New()
	formB := uuid.New()
	slotsA := seedSlots(t, db, formA, 2)
	slotsB := seedSlots(t, db, formB, 2)

	if err := MoveFormField(db, slotsA[0].ID, uuid.Nil); err != nil {
		t.Fatalf("move: %v", err)
	}
	assertOrder(t, db, formB, []uuid.UUID{slotsB[0].ID, slotsB[1].ID})
}
