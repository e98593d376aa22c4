package models

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func createLayout(t *testing.T, db *gorm.DB, companyID uuid.UUID, layoutType int, main bool) *Layout {
	t.Helper()
	l := Layout{ID: uuid.New(), CompanyID: companyID, LayoutType: layoutType, Main: main}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("create layout: %v", err)
	}
	return &l
}

func createSpecial(t *testing.T, db *gorm.DB, companyID uuid.UUID, specialType int) *SpecialLayout {
	t.Helper()
	s := SpecialLayout{ID: uuid.New(), CompanyID: companyID, SpecialType: specialType}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create special: %v", err)
	}
	return &s
}

func pivotCount(t *testing.T, db *gorm.DB, layoutID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&SublayoutPivot{}).Where("layout_id = ?", layoutID).Count(&count).Error; err != nil {
		t.Fatalf("count pivots: %v", err)
	}
	return count
}

func TestAddObjectAppendsAndInserts(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	root := createLayout(t, db, companyID, LayoutTypeSite, true)

	first := uuid.New()
	second := uuid.New()
	if err := root.AddObject(db, SublayoutTypeField, first, 0, uuid.Nil); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := root.AddObject(db, SublayoutTypeField, second, 0, uuid.Nil); err != nil {
		t.Fatalf("append second: %v", err)
	}

	// Insert a special in front of the second field.
	special := createSpecial(t, db, companyID, SpecialVerticalSpace)
	if err := root.AddObject(db, SublayoutTypeSpecial, special.ID, SublayoutTypeField, second); err != nil {
		t.Fatalf("insert before: %v", err)
	}

	if err := CheckSublayoutOrder(db, root.ID); err != nil {
		t.Fatalf("order invariant broken: %v", err)
	}
	pivots, err := root.Pivots(db)
	if err != nil {
		t.Fatalf("pivots: %v", err)
	}
	if len(pivots) != 3 {
		t.Fatalf("got %d pivots, want 3", len(pivots))
	}
	if pivots[0].SublayoutID != first || pivots[1].SublayoutID != special.ID || pivots[2].SublayoutID != second {
		t.Errorf("order = [%s %s %s], want [first special second]",
			pivots[0].SublayoutID, pivots[1].SublayoutID, pivots[2].SublayoutID)
	}
}

func TestAddRowCreatesFirstColumn(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	root := createLayout(t, db, companyID, LayoutTypeSite, true)

	row, err := root.AddRow(db)
	if err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	if row.CompanyID != companyID || row.LayoutType != LayoutTypeSite {
		t.Errorf("row inherits company and type, got %+v", row)
	}

	children, err := root.Children(db)
	if err != nil {
		t.Fatalf("root children: %v", err)
	}
	if len(children) != 1 || children[0].Layout == nil || children[0].Layout.ID != row.ID {
		t.Fatalf("root children = %v, want the new row", children)
	}

	cols, err := row.Children(db)
	if err != nil {
		t.Fatalf("row children: %v", err)
	}
	if len(cols) != 1 || cols[0].Layout == nil {
		t.Errorf("a new row must start with one column, got %v", cols)
	}
}

func TestRemoveObjectRecursive(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	root := createLayout(t, db, companyID, LayoutTypeSite, true)

	row, err := root.AddRow(db)
	if err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	cols, err := row.Children(db)
	if err != nil || len(cols) != 1 {
		t.Fatalf("row children: %v", err)
	}
	column := cols[0].Layout

	field := Field{ID: uuid.New(), CompanyID: companyID, Name: "Azimuth", FieldType: FieldTypeNumber}
	if err := db.Create(&field).Error; err != nil {
		t.Fatalf("create field: %v", err)
	}
	if err := column.AddObject(db, SublayoutTypeField, field.ID, 0, uuid.Nil); err != nil {
		t.Fatalf("place field: %v", err)
	}
	special := createSpecial(t, db, companyID, SpecialBlankMedia)
	if err := column.AddObject(db, SublayoutTypeSpecial, special.ID, 0, uuid.Nil); err != nil {
		t.Fatalf("place special: %v", err)
	}

	if err := root.RemoveObject(db, SublayoutTypeLayout, row.ID); err != nil {
		t.Fatalf("RemoveObject: %v", err)
	}

	// The row, its column and their pivots are gone.
	for _, id := range []uuid.UUID{row.ID, column.ID} {
		var count int64
		if err := db.Model(&Layout{}).Where("id = ?", id).Count(&count).Error; err != nil {
			t.Fatalf("count layouts: %v", err)
		}
		if count != 0 {
			t.Errorf("layout %s survived recursive removal", id)
		}
		if n := pivotCount(t, db, id); n != 0 {
			t.Errorf("layout %s still has %d pivots", id, n)
		}
	}
	if n := pivotCount(t, db, root.ID); n != 0 {
		t.Errorf("root still has %d pivots", n)
	}

	// The special block is deleted, the shared field survives.
	var count int64
	if err := db.Model(&SpecialLayout{}).Where("id = ?", special.ID).Count(&count).Error; err != nil {
		t.Fatalf("count specials: %v", err)
	}
	if count != 0 {
		t.Errorf("special block survived removal")
	}
	if err := db.Model(&Field{}).Where("id = ?", field.ID).Count(&count).Error; err != nil {
		t.Fatalf("count fields: %v", err)
	}
	if count != 1 {
		t.Errorf("shared field was deleted with the layout")
	}
}

func TestRemoveObjectClosesGap(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	root := createLayout(t, db, companyID, LayoutTypeSite, true)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if err := root.AddObject(db, SublayoutTypeField, id, 0, uuid.Nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := root.RemoveObject(db, SublayoutTypeField, ids[0]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := CheckSublayoutOrder(db, root.ID); err != nil {
		t.Errorf("order invariant broken after removal: %v", err)
	}
}

func TestMoveObjectWithinLayout(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	root := createLayout(t, db, companyID, LayoutTypeSite, true)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{a, b, c} {
		if err := root.AddObject(db, SublayoutTypeField, id, 0, uuid.Nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Move the first field in front of the last.
	if err := root.MoveObject(db, SublayoutTypeField, a, root.ID, SublayoutTypeField, c); err != nil {
		t.Fatalf("MoveObject: %v", err)
	}
	if err := CheckSublayoutOrder(db, root.ID); err != nil {
		t.Fatalf("order invariant broken: %v", err)
	}
	pivots, err := root.Pivots(db)
	if err != nil {
		t.Fatalf("pivots: %v", err)
	}
	want := []uuid.UUID{b, a, c}
	for i, pivot := range pivots {
		if pivot.SublayoutID != want[i] {
			t.Errorf("position %d = %s, want %s", i+1, pivot.SublayoutID, want[i])
		}
	}
}

func TestMoveObjectAcrossLayouts(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	source := createLayout(t, db, companyID, LayoutTypeSite, false)
	target := createLayout(t, db, companyID, LayoutTypeSite, false)

	moved := uuid.New()
	stays := uuid.New()
	existing := uuid.New()
	for _, id := range []uuid.UUID{moved, stays} {
		if err := source.AddObject(db, SublayoutTypeField, id, 0, uuid.Nil); err != nil {
			t.Fatalf("seed source: %v", err)
		}
	}
	if err := target.AddObject(db, SublayoutTypeField, existing, 0, uuid.Nil); err != nil {
		t.Fatalf("seed target: %v", err)
	}

	if err := source.MoveObject(db, SublayoutTypeField, moved, target.ID, SublayoutTypeField, existing); err != nil {
		t.Fatalf("MoveObject: %v", err)
	}
	for _, layoutID := range []uuid.UUID{source.ID, target.ID} {
		if err := CheckSublayoutOrder(db, layoutID); err != nil {
			t.Errorf("order invariant broken: %v", err)
		}
	}
	if n := pivotCount(t, db, source.ID); n != 1 {
		t.Errorf("source has %d pivots, want 1", n)
	}

	pivots, err := target.Pivots(db)
	if err != nil {
		t.Fatalf("target pivots: %v", err)
	}
	if len(pivots) != 2 || pivots[0].SublayoutID != moved || pivots[1].SublayoutID != existing {
		t.Errorf("target order wrong after cross-layout move: %v", pivots)
	}
}

func TestLayoutFormType(t *testing.T) {
	l := Layout{LayoutType: LayoutTypeAntenna}
	got, err := l.FormType()
	if err != nil || got != FormTypeAntenna {
		t.Errorf("FormType() = %d, %v, want %d", got, err, FormTypeAntenna)
	}
	l.LayoutType = 99
	if _, err := l.FormType(); err == nil {
		t.Errorf("FormType() on unmapped type should fail")
	}
}

func TestUnusedFields(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	root := createLayout(t, db, companyID, LayoutTypeSite, true)

	placed := Field{ID: uuid.New(), CompanyID: companyID, Name: "Placed", FieldType: FieldTypeText}
	spare := Field{ID: uuid.New(), CompanyID: companyID, Name: "Spare", FieldType: FieldTypeText}
	for _, f := range []*Field{&placed, &spare} {
		if err := db.Create(f).Error; err != nil {
			t.Fatalf("create field: %v", err)
		}
	}

	row, err := root.AddRow(db)
	if err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	cols, err := row.Children(db)
	if err != nil || len(cols) != 1 {
		t.Fatalf("row children: %v", err)
	}
	if err := cols[0].Layout.AddObject(db, SublayoutTypeField, placed.ID, 0, uuid.Nil); err != nil {
		t.Fatalf("place field: %v", err)
	}

	// Placement deep in the tree still counts as used.
	fields, err := root.UnusedFields(db, companyID)
	if err != nil {
		t.Fatalf("UnusedFields: %v", err)
	}
	if len(fields) != 1 || fields[0].ID != spare.ID {
		t.Errorf("UnusedFields = %v, want only the spare field", fields)
	}
}

func TestRowEmpty(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()
	root := createLayout(t, db, companyID, LayoutTypeSite, true)

	row, err := root.AddRow(db)
	if err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	cols, err := row.Children(db)
	if err != nil || len(cols) != 1 {
		t.Fatalf("row children: %v", err)
	}
	field := Field{ID: uuid.New(), CompanyID: companyID, Name: "Notes", FieldType: FieldTypeText}
	if err := db.Create(&field).Error; err != nil {
		t.Fatalf("create field: %v", err)
	}
	if err := cols[0].Layout.AddObject(db, SublayoutTypeField, field.ID, 0, uuid.Nil); err != nil {
		t.Fatalf("place field: %v", err)
	}

	key := AnswerKey{JobID: uuid.New(), TaskID: uuid.New()}
	empty, err := row.RowEmpty(db, key)
	if err != nil {
		t.Fatalf("RowEmpty: %v", err)
	}
	if !empty {
		t.Errorf("unanswered row reported non-empty")
	}

	answerKey := key
	answerKey.FieldID = field.ID
	recordAnswer(t, db, answerKey, "tower inspected")
	empty, err = row.RowEmpty(db, key)
	if err != nil {
		t.Fatalf("RowEmpty after answer: %v", err)
	}
	if empty {
		t.Errorf("answered row reported empty")
	}
}

func TestSpecialString(t *testing.T) {
	if got := SpecialString(SpecialSituatingMap); got != "Situating Map" {
		t.Errorf("SpecialString = %q", got)
	}
	if got := SpecialString(42); got != "?? (42)" {
		t.Errorf("SpecialString fallback = %q", got)
	}
}
