package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func createForm(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string, formType int, subform bool) *Form {
	t.Helper()
	form := Form{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      name,
		FormType:  formType,
		Subform:   subform,
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("create form %s: %v", name, err)
	}
	return &form
}

func embedForm(t *testing.T, db *gorm.DB, parent, child *Form) {
	t.Helper()
	if _, err := InsertFormField(db, parent.ID, FormFieldTypeForm, child.ID, uuid.Nil); err != nil {
		t.Fatalf("embed %s under %s: %v", child.Name, parent.Name, err)
	}
}

func attachField(t *testing.T, db *gorm.DB, form *Form, companyID uuid.UUID, name string) *Field {
	t.Helper()
	field := Field{ID: uuid.New(), CompanyID: companyID, Name: name, FieldType: FieldTypeText}
	if err := db.Create(&field).Error; err != nil {
		t.Fatalf("create field %s: %v", name, err)
	}
	if _, err := InsertFormField(db, form.ID, FormFieldTypeField, field.ID, uuid.Nil); err != nil {
		t.Fatalf("attach field %s: %v", name, err)
	}
	return &field
}

func TestCompatibleForms(t *testing.T) {
	tests := []struct {
		formType int
		want     []int
	}{
		{FormTypeSite, []int{FormTypeSite, FormTypeAppendix}},
		{FormTypeAppendix, []int{FormTypeAppendix, FormTypeSite}},
		{FormTypeAntenna, []int{FormTypeAntenna}},
		{99, []int{}},
	}
	for _, tt := range tests {
		got := CompatibleForms(tt.formType)
		if len(got) != len(tt.want) {
			t.Errorf("CompatibleForms(%d) = %v, want %v", tt.formType, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("CompatibleForms(%d) = %v, want %v", tt.formType, got, tt.want)
				break
			}
		}
	}
}

func TestSubFormIDsCompatibility(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	site := createForm(t, db, companyID, "Site Survey", FormTypeSite, false)
	appendix := createForm(t, db, companyID, "Appendix A", FormTypeAppendix, true)
	antenna := createForm(t, db, companyID, "Antenna Check", FormTypeAntenna, true)
	embedForm(t, db, site, appendix)
	embedForm(t, db, site, antenna) // incompatible under a site form

	ids, err := SubFormIDs(db, site.ID, site.FormType)
	if err != nil {
		t.Fatalf("SubFormIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != appendix.ID {
		t.Errorf("SubFormIDs = %v, want only the appendix", ids)
	}
}

func TestSubFormIDsSkipsDeleted(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	site := createForm(t, db, companyID, "Site Survey", FormTypeSite, false)
	appendix := createForm(t, db, companyID, "Appendix A", FormTypeAppendix, true)
	embedForm(t, db, site, appendix)

	if err := db.Delete(appendix).Error; err != nil {
		t.Fatalf("delete appendix: %v", err)
	}
	ids, err := SubFormIDs(db, site.ID, site.FormType)
	if err != nil {
		t.Fatalf("SubFormIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("SubFormIDs after delete = %v, want none", ids)
	}
}

func TestAllSubFormIDsFlattens(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	root := createForm(t, db, companyID, "Root", FormTypeSite, false)
	levelOne := createForm(t, db, companyID, "Level One", FormTypeAppendix, true)
	levelTwo := createForm(t, db, companyID, "Level Two", FormTypeSite, true)
	embedForm(t, db, root, levelOne)
	embedForm(t, db, levelOne, levelTwo)

	ids, err := root.AllSubFormIDs(db)
	if err != nil {
		t.Fatalf("AllSubFormIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != levelOne.ID || ids[1] != levelTwo.ID {
		t.Errorf("AllSubFormIDs = %v, want depth-first [%s %s]", ids, levelOne.ID, levelTwo.ID)
	}
}

func TestAllSubFormIDsTerminatesOnCycle(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	a := createForm(t, db, companyID, "A", FormTypeSite, false)
	b := createForm(t, db, companyID, "B", FormTypeAppendix, true)
	embedForm(t, db, a, b)
	embedForm(t, db, b, a) // cycle

	ids, err := a.AllSubFormIDs(db)
	if err != nil {
		t.Fatalf("AllSubFormIDs with cycle: %v", err)
	}
	if len(ids) != 1 || ids[0] != b.ID {
		t.Errorf("AllSubFormIDs with cycle = %v, want [%s]", ids, b.ID)
	}
}

func TestAllSubFieldIDs(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	root := createForm(t, db, companyID, "Root", FormTypeSite, false)
	sub := createForm(t, db, companyID, "Sub", FormTypeAppendix, true)
	embedForm(t, db, root, sub)
	f1 := attachField(t, db, root, companyID, "Tower Height")
	f2 := attachField(t, db, sub, companyID, "Ground Resistance")

	ids, err := root.AllSubFieldIDs(db)
	if err != nil {
		t.Fatalf("AllSubFieldIDs: %v", err)
	}
	got := map[uuid.UUID]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if len(ids) != 2 || !got[f1.ID] || !got[f2.ID] {
		t.Errorf("AllSubFieldIDs = %v, want both fields", ids)
	}
}

func TestUnusedSubForms(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	root := createForm(t, db, companyID, "Root", FormTypeAntenna, false)
	used := createForm(t, db, companyID, "Used", FormTypeAntenna, true)
	spare := createForm(t, db, companyID, "Spare", FormTypeAntenna, true)
	otherCompany := createForm(t, db, uuid.New(), "Foreign", FormTypeAntenna, true)
	_ = otherCompany
	embedForm(t, db, root, used)

	forms, err := UnusedSubForms(db, companyID, root.ID)
	if err != nil {
		t.Fatalf("UnusedSubForms: %v", err)
	}
	if len(forms) != 1 || forms[0].ID != spare.ID {
		t.Errorf("UnusedSubForms = %d forms, want only %q", len(forms), spare.Name)
	}
}

func TestLastUpdatedAdvancesFromField(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	root := createForm(t, db, companyID, "Root", FormTypeSite, false)
	field := attachField(t, db, root, companyID, "Tower Height")

	// Backdate the form and slot, then touch the field.
	old := time.Now().Add(-48 * time.Hour).UTC()
	future := time.Now().Add(time.Hour).UTC()
	if err := db.Model(&Form{}).Where("id = ?", root.ID).
		UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("backdate form: %v", err)
	}
	if err := db.Model(&FormField{}).Where("form_id = ?", root.ID).
		UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("backdate slot: %v", err)
	}
	if err := db.Model(&Field{}).Where("id = ?", field.ID).
		UpdateColumn("updated_at", future).Error; err != nil {
		t.Fatalf("touch field: %v", err)
	}

	var reloaded Form
	if err := db.First(&reloaded, "id = ?", root.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	latest, err := reloaded.LastUpdated(db, true)
	if err != nil {
		t.Fatalf("LastUpdated: %v", err)
	}
	if !latest.After(old) {
		t.Errorf("LastUpdated = %v, did not pick up field edit at %v", latest, future)
	}

	// The recompute persists on top-level forms.
	var persisted Form
	if err := db.First(&persisted, "id = ?", root.ID).Error; err != nil {
		t.Fatalf("reload persisted: %v", err)
	}
	if !persisted.UpdatedAt.After(old) {
		t.Errorf("persisted updated_at = %v, want advanced past %v", persisted.UpdatedAt, old)
	}
}

func TestLastUpdatedNotPersistedForSubform(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	sub := createForm(t, db, companyID, "Sub", FormTypeAppendix, true)
	field := attachField(t, db, sub, companyID, "Notes")

	old := time.Now().Add(-48 * time.Hour).UTC()
	future := time.Now().Add(time.Hour).UTC()
	for _, update := range []struct {
		model interface{}
		id    interface{}
		col   string
		when  time.Time
	}{
		{&Form{}, sub.ID, "id", old},
		{&FormField{}, sub.ID, "form_id", old},
		{&Field{}, field.ID, "id", future},
	} {
		if err := db.Model(update.model).Where(update.col+" = ?", update.id).
			UpdateColumn("updated_at", update.when).Error; err != nil {
			t.Fatalf("set timestamp: %v", err)
		}
	}

	var reloaded Form
	if err := db.First(&reloaded, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	latest, err := reloaded.LastUpdated(db, true)
	if err != nil {
		t.Fatalf("LastUpdated: %v", err)
	}
	if !latest.After(old) {
		t.Errorf("LastUpdated = %v, want the field edit", latest)
	}

	var persisted Form
	if err := db.First(&persisted, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("reload persisted: %v", err)
	}
	if persisted.UpdatedAt.After(old.Add(time.Minute)) {
		t.Errorf("sub-form updated_at persisted to %v, want untouched %v", persisted.UpdatedAt, old)
	}
}

func TestLastUpdatedWithoutCheck(t *testing.T) {
	db := testDB(t)
	form := Form{UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	latest, err := form.LastUpdated(db, false)
	if err != nil {
		t.Fatalf("LastUpdated: %v", err)
	}
	if !latest.Equal(form.UpdatedAt) {
		t.Errorf("LastUpdated(check=false) = %v, want cached %v", latest, form.UpdatedAt)
	}
}

func TestTopForm(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	root := createForm(t, db, companyID, "Root", FormTypeSite, false)
	sub := createForm(t, db, companyID, "Sub", FormTypeAppendix, true)
	leaf := createForm(t, db, companyID, "Leaf", FormTypeSite, true)
	embedForm(t, db, root, sub)
	embedForm(t, db, sub, leaf)

	top, err := leaf.TopForm(db)
	if err != nil {
		t.Fatalf("TopForm: %v", err)
	}
	if top.ID != root.ID {
		t.Errorf("TopForm = %s, want root %s", top.ID, root.ID)
	}
}

func TestCompanyFormsFilters(t *testing.T) {
	db := testDB(t)
	companyID := uuid.New()

	createForm(t, db, companyID, "Site Survey", FormTypeSite, false)
	createForm(t, db, companyID, "Antenna Check", FormTypeAntenna, false)
	createForm(t, db, companyID, "Hidden Sub", FormTypeSite, true)
	createForm(t, db, uuid.New(), "Foreign", FormTypeSite, false)

	forms, err := CompanyForms(db, companyID, 0)
	if err != nil {
		t.Fatalf("CompanyForms: %v", err)
	}
	if len(forms) != 2 {
		t.Errorf("CompanyForms = %d forms, want 2 top-level", len(forms))
	}

	forms, err = CompanyForms(db, companyID, FormTypeSite)
	if err != nil {
		t.Fatalf("CompanyForms typed: %v", err)
	}
	if len(forms) != 1 || forms[0].Name != "Site Survey" {
		t.Errorf("CompanyForms(site) = %v, want the survey", forms)
	}
}
