package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Child variants of a form. The pairing of a type tag with a model id is
// the closed set below; resolution is an explicit lookup per variant.
const (
	FormFieldTypeForm     = 1
	FormFieldTypeField    = 2
	FormFieldTypeDecision = 3
)

var formFieldTypeStrings = map[int]string{
	FormFieldTypeForm:     "form",
	FormFieldTypeField:    "field",
	FormFieldTypeDecision: "decision",
}

// FormField binds one child (sub-form, field or decision) into a parent
// form at an explicit position. FieldOrder values under one form are a
// contiguous 1..n sequence; every insert, move and remove keeps them so.
type FormField struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FormID        uuid.UUID `gorm:"type:uuid;not null;index" json:"form_id"`
	FormFieldType int       `gorm:"not null" json:"form_field_type"`
	ModelID       uuid.UUID `gorm:"type:uuid;not null;index" json:"model_id"`
	FieldOrder    int       `gorm:"not null" json:"field_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FormField) TableName() string {
	return "form_fields"
}

func (ff *FormField) TypeString() string {
	if s, ok := formFieldTypeStrings[ff.FormFieldType]; ok {
		return s
	}
	return "Unknown"
}

// FormChild is the resolved child of a FormField; exactly one member is set.
type FormChild struct {
	FormField FormField
	Form      *Form
	Field     *Field
	Decision  *Decision
}

// FormFields returns the children of a form in display order.
func FormFields(db *gorm.DB, formID uuid.UUID) ([]FormField, error) {
	var fields []FormField
	err := db.Where("form_id = ?", formID).Order("field_order asc").Find(&fields).Error
	return fields, err
}

// ResolveChild loads the concrete row a FormField points at.
func (ff *FormField) ResolveChild(db *gorm.DB) (*FormChild, error) {
	child := &FormChild{FormField: *ff}
	switch ff.FormFieldType {
	case FormFieldTypeForm:
		var form Form
		if err := db.First(&form, "id = ?", ff.ModelID).Error; err != nil {
			return nil, notFound(err)
		}
		child.Form = &form
	case FormFieldTypeField:
		var field Field
		if err := db.First(&field, "id = ?", ff.ModelID).Error; err != nil {
			return nil, notFound(err)
		}
		child.Field = &field
	case FormFieldTypeDecision:
		var decision Decision
		if err := db.First(&decision, "id = ?", ff.ModelID).Error; err != nil {
			return nil, notFound(err)
		}
		child.Decision = &decision
	default:
		return nil, fmt.Errorf("form field %s: unknown form_field_type %d", ff.ID, ff.FormFieldType)
	}
	return child, nil
}

// OrderedChildren resolves all children of a form in display order.
// Children whose target row has been deleted are skipped.
func OrderedChildren(db *gorm.DB, formID uuid.UUID) ([]FormChild, error) {
	fields, err := FormFields(db, formID)
	if err != nil {
		return nil, err
	}
	children := make([]FormChild, 0, len(fields))
	for i := range fields {
		child, err := fields[i].ResolveChild(db)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		children = append(children, *child)
	}
	return children, nil
}

// FormFieldFromRelation finds the slot binding a specific child to a form.
func FormFieldFromRelation(db *gorm.DB, formID uuid.UUID, fieldType int, modelID uuid.UUID) (*FormField, error) {
	var ff FormField
	err := db.Where("form_id = ? AND form_field_type = ? AND model_id = ?", formID, fieldType, modelID).
		First(&ff).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &ff, nil
}

// LastFieldOrder returns the highest order in use under a form, 0 if empty.
func LastFieldOrder(db *gorm.DB, formID uuid.UUID) (int, error) {
	var last FormField
	err := db.Where("form_id = ?", formID).Order("field_order desc").First(&last).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return last.FieldOrder, nil
}

// InsertFormField adds a child to a form. With beforeID set, the new slot
// takes that sibling's position and everything from there on shifts up by
// one; otherwise it appends. The shift and the insert are one transaction
// so a failure can never tear the order sequence.
func InsertFormField(db *gorm.DB, formID uuid.UUID, fieldType int, modelID uuid.UUID, beforeID uuid.UUID) (*FormField, error) {
	var inserted *FormField
	err := db.Transaction(func(tx *gorm.DB) error {
		order, err := insertPosition(tx, formID, beforeID)
		if err != nil {
			return err
		}
		if err := tx.Model(&FormField{}).
			Where("form_id = ? AND field_order >= ?", formID, order).
			UpdateColumn("field_order", gorm.Expr("field_order + 1")).Error; err != nil {
			return err
		}
		ff := FormField{
			ID:            uuid.New(),
			FormID:        formID,
			FormFieldType: fieldType,
			ModelID:       modelID,
			FieldOrder:    order,
		}
		if err := tx.Create(&ff).Error; err != nil {
			return err
		}
		inserted = &ff
		return nil
	})
	return inserted, err
}

func insertPosition(tx *gorm.DB, formID, beforeID uuid.UUID) (int, error) {
	if beforeID == uuid.Nil {
		last, err := LastFieldOrder(tx, formID)
		if err != nil {
			return 0, err
		}
		return last + 1, nil
	}
	var before FormField
	if err := tx.First(&before, "id = ? AND form_id = ?", beforeID, formID).Error; err != nil {
		return 0, notFound(err)
	}
	return before.FieldOrder, nil
}

// RemoveFormField unlinks a slot and closes the gap it leaves. The child
// itself (field, form, decision) is never deleted here; fields and forms
// are shared and reusable.
func RemoveFormField(db *gorm.DB, formFieldID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var ff FormField
		if err := tx.First(&ff, "id = ?", formFieldID).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&ff).Error; err != nil {
			return err
		}
		return tx.Model(&FormField{}).
			Where("form_id = ? AND field_order > ?", ff.FormID, ff.FieldOrder).
			UpdateColumn("field_order", gorm.Expr("field_order - 1")).Error
	})
}

// MoveFormField repositions a slot in front of a sibling, or to the end
// when beforeID is nil. Single transaction, same contiguity guarantee.
func MoveFormField(db *gorm.DB, formFieldID uuid.UUID, beforeID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var ff FormField
		if err := tx.First(&ff, "id = ?", formFieldID).Error; err != nil {
			return notFound(err)
		}

		target, err := insertPosition(tx, ff.FormID, beforeID)
		if err != nil {
			return err
		}
		if target == ff.FieldOrder {
			return nil
		}

		if target > ff.FieldOrder {
			// Moving down: the slot vacates its position, so the
			// destination shifts back by one and everything between
			// slides up.
			target--
			if err := tx.Model(&FormField{}).
				Where("form_id = ? AND field_order > ? AND field_order <= ?", ff.FormID, ff.FieldOrder, target).
				UpdateColumn("field_order", gorm.Expr("field_order - 1")).Error; err != nil {
				return err
			}
		} else {
			// Moving up: everything between slides down.
			if err := tx.Model(&FormField{}).
				Where("form_id = ? AND field_order >= ? AND field_order < ?", ff.FormID, target, ff.FieldOrder).
				UpdateColumn("field_order", gorm.Expr("field_order + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&FormField{}).Where("id = ?", ff.ID).
			UpdateColumn("field_order", target).Error
	})
}

// CheckFieldOrder validates the contiguity invariant for one form: orders
// must be exactly 1..n. Used by tests and debug endpoints.
func CheckFieldOrder(db *gorm.DB, formID uuid.UUID) error {
	fields, err := FormFields(db, formID)
	if err != nil {
		return err
	}
	for i, ff := range fields {
		if ff.FieldOrder != i+1 {
			return fmt.Errorf("form %s: field_order %d at position %d (want %d)", formID, ff.FieldOrder, i, i+1)
		}
	}
	return nil
}

// FormFieldIDs lists the field ids directly attached to a form, in order.
func FormFieldIDs(db *gorm.DB, formID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&FormField{}).
		Where("form_id = ? AND form_field_type = ?", formID, FormFieldTypeField).
		Order("field_order asc").Pluck("model_id", &ids).Error
	return ids, err
}

// FormSubFormIDs lists the sub-form ids directly attached to a form, in order.
func FormSubFormIDs(db *gorm.DB, formID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&FormField{}).
		Where("form_id = ? AND form_field_type = ?", formID, FormFieldTypeForm).
		Order("field_order asc").Pluck("model_id", &ids).Error
	return ids, err
}
