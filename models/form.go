package models

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FormTypeSite               = 1
	FormTypeAntenna            = 2
	FormTypeCrew               = 3
	FormTypeCerts              = 4
	FormTypePort               = 5
	FormTypeRadio              = 6
	FormTypeAppendix           = 7
	FormTypeMicrowave          = 8
	FormTypeVehicleMaintenance = 9
	FormTypePersonalSafety     = 10
	FormTypeSiteSafety         = 11
	FormTypeTools              = 12
	FormTypeFWA                = 13
)

var formTypeStrings = map[int]string{
	FormTypeSite:               "Site",
	FormTypeAntenna:            "Antenna",
	FormTypePort:               "Port",
	FormTypeRadio:              "Radio",
	FormTypeMicrowave:          "Microwave",
	FormTypeAppendix:           "Appendix",
	FormTypeCrew:               "Crew",
	FormTypeCerts:              "Certifications",
	FormTypeVehicleMaintenance: "Vehicle Maintenance",
	FormTypePersonalSafety:     "Personal Safety Equipment Check",
	FormTypeSiteSafety:         "Site Safety Check",
	FormTypeTools:              "Tools",
	FormTypeFWA:                "Fixed Wireless Access",
}

// compatibleTypes is the static matrix of which form types may be embedded
// under which. Enforcement is advisory: the editor filters candidate lists
// with it, the database does not.
var compatibleTypes = map[int][]int{
	FormTypeSite:               {FormTypeSite, FormTypeAppendix},
	FormTypeAntenna:            {FormTypeAntenna},
	FormTypeCrew:               {FormTypeCrew},
	FormTypeCerts:              {FormTypeCerts},
	FormTypePort:               {FormTypePort},
	FormTypeRadio:              {FormTypeRadio},
	FormTypeAppendix:           {FormTypeAppendix, FormTypeSite},
	FormTypeMicrowave:          {FormTypeMicrowave},
	FormTypeVehicleMaintenance: {FormTypeVehicleMaintenance},
	FormTypePersonalSafety:     {FormTypePersonalSafety},
	FormTypeSiteSafety:         {FormTypeSiteSafety},
	FormTypeTools:              {FormTypeTools},
	FormTypeFWA:                {FormTypeFWA},
}

// Form is a reusable template of ordered fields, nested sub-forms and
// decisions. Top-level forms (subform=false) are selectable for a task;
// sub-forms only live embedded in others.
type Form struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	FormType  int       `gorm:"not null" json:"form_type"`
	Subform   bool      `gorm:"default:false" json:"subform"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Form) TableName() string {
	return "forms"
}

func (f *Form) TypeString() string {
	if s, ok := formTypeStrings[f.FormType]; ok {
		return s
	}
	return "Unknown"
}

// FormTypeStrings exposes the selectable form types for the editor.
func FormTypeStrings() map[int]string {
	return formTypeStrings
}

// CompatibleForms returns the form types that may legally be embedded under
// a parent of the given type.
func CompatibleForms(formType int) []int {
	if types, ok := compatibleTypes[formType]; ok {
		return types
	}
	return []int{}
}

// SubFormIDs lists the directly embedded sub-forms of a form whose type is
// compatible with the parent type.
func SubFormIDs(db *gorm.DB, formID uuid.UUID, formType int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Table("form_fields").
		Joins("JOIN forms ON forms.id = form_fields.model_id").
		Where("form_fields.form_id = ?", formID).
		Where("form_fields.form_field_type = ?", FormFieldTypeForm).
		Where("forms.form_type IN ?", CompatibleForms(formType)).
		Where("forms.deleted_at IS NULL").
		Order("form_fields.field_order asc").
		Pluck("forms.id", &ids).Error
	return ids, err
}

// AllSubFormIDs flattens the nested-form tree depth first. A form embedded
// twice (directly or through a cycle) is reported once and not descended
// into again, so cyclic embeddings terminate.
func (f *Form) AllSubFormIDs(db *gorm.DB) ([]uuid.UUID, error) {
	visited := map[uuid.UUID]bool{f.ID: true}
	return f.allSubFormIDs(db, visited)
}

func (f *Form) allSubFormIDs(db *gorm.DB, visited map[uuid.UUID]bool) ([]uuid.UUID, error) {
	var result []uuid.UUID
	subIDs, err := SubFormIDs(db, f.ID, f.FormType)
	if err != nil {
		return nil, err
	}
	for _, subID := range subIDs {
		if visited[subID] {
			continue
		}
		visited[subID] = true
		result = append(result, subID)

		var sub Form
		if err := db.First(&sub, "id = ?", subID).Error; err != nil {
			return nil, notFound(err)
		}
		nested, err := sub.allSubFormIDs(db, visited)
		if err != nil {
			return nil, err
		}
		result = append(result, nested...)
	}
	return result, nil
}

// AllSubForms resolves the flattened sub-form tree to rows.
func (f *Form) AllSubForms(db *gorm.DB) ([]Form, error) {
	ids, err := f.AllSubFormIDs(db)
	if err != nil {
		return nil, err
	}
	forms := make([]Form, 0, len(ids))
	for _, id := range ids {
		var form Form
		if err := db.First(&form, "id = ?", id).Error; err != nil {
			return nil, notFound(err)
		}
		forms = append(forms, form)
	}
	return forms, nil
}

// AllSubFieldIDs collects every field id reachable from this form,
// including fields of nested sub-forms.
func (f *Form) AllSubFieldIDs(db *gorm.DB) ([]uuid.UUID, error) {
	formIDs, err := f.AllSubFormIDs(db)
	if err != nil {
		return nil, err
	}
	formIDs = append(formIDs, f.ID)

	var ids []uuid.UUID
	err = db.Model(&FormField{}).
		Where("form_field_type = ? AND form_id IN ?", FormFieldTypeField, formIDs).
		Pluck("model_id", &ids).Error
	return ids, err
}

// AllSubFields resolves the reachable fields, optionally filtered by type.
func (f *Form) AllSubFields(db *gorm.DB, fieldType int) ([]Field, error) {
	ids, err := f.AllSubFieldIDs(db)
	if err != nil {
		return nil, err
	}
	query := db.Where("id IN ?", ids)
	if fieldType != 0 {
		query = query.Where("field_type = ?", fieldType)
	}
	var fields []Field
	err = query.Find(&fields).Error
	return fields, err
}

// UnusedSubForms lists same-type forms of the company not yet embedded
// anywhere under this form, the candidates for "add sub-form".
func UnusedSubForms(db *gorm.DB, companyID, formID uuid.UUID) ([]Form, error) {
	var form Form
	if err := db.First(&form, "id = ?", formID).Error; err != nil {
		return nil, notFound(err)
	}
	used, err := form.AllSubFormIDs(db)
	if err != nil {
		return nil, err
	}
	used = append(used, formID)

	var forms []Form
	err = db.Where("company_id = ? AND form_type = ?", companyID, form.FormType).
		Where("id NOT IN ?", used).Find(&forms).Error
	return forms, err
}

// UnusedSubFields lists the company's fields not yet used under this form.
func UnusedSubFields(db *gorm.DB, companyID, formID uuid.UUID) ([]Field, error) {
	var form Form
	if err := db.First(&form, "id = ?", formID).Error; err != nil {
		return nil, notFound(err)
	}
	used, err := form.AllSubFieldIDs(db)
	if err != nil {
		return nil, err
	}

	query := db.Where("company_id = ?", companyID)
	if len(used) > 0 {
		query = query.Where("id NOT IN ?", used)
	}
	var fields []Field
	err = query.Find(&fields).Error
	return fields, err
}

// ChildrenCount counts the direct children of a form.
func (f *Form) ChildrenCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&FormField{}).Where("form_id = ?", f.ID).Count(&count).Error
	return count, err
}

// Parents returns every form embedding this one.
func (f *Form) Parents(db *gorm.DB) ([]Form, error) {
	var fields []FormField
	err := db.Where("form_field_type = ? AND model_id = ?", FormFieldTypeForm, f.ID).Find(&fields).Error
	if err != nil {
		return nil, err
	}
	forms := make([]Form, 0, len(fields))
	for _, ff := range fields {
		var form Form
		if err := db.First(&form, "id = ?", ff.FormID).Error; err != nil {
			return nil, notFound(err)
		}
		forms = append(forms, form)
	}
	return forms, nil
}

// Parent returns the first embedding form, or nil for a root.
func (f *Form) Parent(db *gorm.DB) (*Form, error) {
	var ff FormField
	err := db.Where("form_field_type = ? AND model_id = ?", FormFieldTypeForm, f.ID).First(&ff).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var form Form
	if err := db.First(&form, "id = ?", ff.FormID).Error; err != nil {
		return nil, notFound(err)
	}
	return &form, nil
}

// TopForm climbs the nesting chain to the top-level form.
func (f *Form) TopForm(db *gorm.DB) (*Form, error) {
	current := f
	seen := map[uuid.UUID]bool{}
	for current.Subform && !seen[current.ID] {
		seen[current.ID] = true
		parent, err := current.Parent(db)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		current = parent
	}
	return current, nil
}

// LastUpdated recomputes the most recent change anywhere in the form tree:
// the form itself, its slots, fields, sub-forms and decision target forms.
// The result is persisted on the form row only for top-level forms, and
// only when it moved forward. This is a lazy cache recompute; callers must
// invoke it with check=true after edits deeper in the tree.
func (f *Form) LastUpdated(db *gorm.DB, check bool) (time.Time, error) {
	if !check {
		return f.UpdatedAt, nil
	}
	visited := map[uuid.UUID]bool{f.ID: true}
	latest, err := f.lastUpdated(db, time.Time{}, visited)
	if err != nil {
		return time.Time{}, err
	}
	if latest.After(f.UpdatedAt) && !f.Subform {
		log.Printf("form %s: advancing updated_at to %s", f.ID, latest)
		f.UpdatedAt = latest
		if err := db.Model(&Form{}).Where("id = ?", f.ID).
			UpdateColumn("updated_at", latest).Error; err != nil {
			return time.Time{}, err
		}
	}
	return latest, nil
}

func (f *Form) lastUpdated(db *gorm.DB, latest time.Time, visited map[uuid.UUID]bool) (time.Time, error) {
	if f.UpdatedAt.After(latest) {
		latest = f.UpdatedAt
	}

	fields, err := FormFields(db, f.ID)
	if err != nil {
		return latest, err
	}
	for _, ff := range fields {
		if ff.UpdatedAt.After(latest) {
			latest = ff.UpdatedAt
		}
		switch ff.FormFieldType {
		case FormFieldTypeForm:
			latest, err = descendLastUpdated(db, ff.ModelID, latest, visited)
			if err != nil {
				return latest, err
			}
		case FormFieldTypeField:
			var field Field
			if err := db.First(&field, "id = ?", ff.ModelID).Error; err != nil {
				if notFound(err) == ErrNotFound {
					continue
				}
				return latest, err
			}
			if field.UpdatedAt.After(latest) {
				latest = field.UpdatedAt
			}
		case FormFieldTypeDecision:
			var decision Decision
			if err := db.First(&decision, "id = ?", ff.ModelID).Error; err != nil {
				if notFound(err) == ErrNotFound {
					continue
				}
				return latest, err
			}
			for _, targetID := range decision.TargetFormIDs() {
				latest, err = descendLastUpdated(db, targetID, latest, visited)
				if err != nil {
					return latest, err
				}
			}
		default:
			log.Printf("form %s: unknown form_field_type %d on slot %s", f.ID, ff.FormFieldType, ff.ID)
		}
	}
	return latest, nil
}

func descendLastUpdated(db *gorm.DB, formID uuid.UUID, latest time.Time, visited map[uuid.UUID]bool) (time.Time, error) {
	if visited[formID] {
		return latest, nil
	}
	visited[formID] = true
	var sub Form
	if err := db.First(&sub, "id = ?", formID).Error; err != nil {
		if notFound(err) == ErrNotFound {
			return latest, nil
		}
		return latest, err
	}
	return sub.lastUpdated(db, latest, visited)
}

// CompanyForms lists a tenant's top-level forms, optionally by type.
func CompanyForms(db *gorm.DB, companyID uuid.UUID, formType int) ([]Form, error) {
	query := db.Where("company_id = ? AND subform = ?", companyID, false)
	if formType != 0 {
		query = query.Where("form_type = ?", formType)
	}
	var forms []Form
	err := query.Order("name asc").Find(&forms).Error
	return forms, err
}
