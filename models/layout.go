package models

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Layout types parallel the form types; the print tree is independent of
// the form tree but renders the same fields.
const (
	LayoutTypeHeader             = 1
	LayoutTypeFooter             = 2
	LayoutTypeSite               = 3
	LayoutTypeAntenna            = 4
	LayoutTypeFront              = 5
	LayoutTypePort               = 6
	LayoutTypeRadio              = 7
	LayoutTypeAppendix           = 8
	LayoutTypeVehicleMaintenance = 9
	LayoutTypePersonalSafety     = 10
	LayoutTypeSiteSafety         = 11
	LayoutTypeTools              = 12
	LayoutTypeMicrowave          = 13
	LayoutTypeFWA                = 14
)

var layoutTypeStrings = map[int]string{
	LayoutTypeSite:               "Layout Site",
	LayoutTypeAntenna:            "Layout Antenna",
	LayoutTypePort:               "Layout Port",
	LayoutTypeRadio:              "Layout Radio",
	LayoutTypeAppendix:           "Layout Appendix",
	LayoutTypeVehicleMaintenance: "Layout Vehicle Maintenance",
	LayoutTypePersonalSafety:     "Layout Personal Safety",
	LayoutTypeSiteSafety:         "Layout Site Safety",
	LayoutTypeTools:              "Layout Tools",
	LayoutTypeMicrowave:          "Layout Microwave",
	LayoutTypeFWA:                "Layout FWA",
}

var layoutToFormType = map[int]int{
	LayoutTypeSite:               FormTypeSite,
	LayoutTypeAntenna:            FormTypeAntenna,
	LayoutTypePort:               FormTypePort,
	LayoutTypeRadio:              FormTypeRadio,
	LayoutTypeAppendix:           FormTypeAppendix,
	LayoutTypeVehicleMaintenance: FormTypeVehicleMaintenance,
	LayoutTypePersonalSafety:     FormTypePersonalSafety,
	LayoutTypeSiteSafety:         FormTypeSiteSafety,
	LayoutTypeTools:              FormTypeTools,
	LayoutTypeMicrowave:          FormTypeMicrowave,
	LayoutTypeFWA:                FormTypeFWA,
}

// Child variants of a layout, the closed set behind the pivot's type tag.
const (
	SublayoutTypeLayout  = 1
	SublayoutTypeField   = 2
	SublayoutTypeSpecial = 3
)

const (
	SpecialBlankMedia         = 1
	SpecialSituatingMap       = 2
	SpecialObstructionDiagram = 3
	SpecialFWAConfiguration   = 4
	SpecialFWADiagram         = 5
	SpecialVerticalSpace      = 6
	SpecialEmptyField         = 7
	SpecialTableHeader        = 8
	SpecialSiteInfo           = 9
)

var specialStrings = map[int]string{
	SpecialBlankMedia:         "Blank Media",
	SpecialSituatingMap:       "Situating Map",
	SpecialObstructionDiagram: "Obstruction Diagram",
	SpecialFWAConfiguration:   "FWA Configuration",
	SpecialFWADiagram:         "FWA Diagram",
	SpecialVerticalSpace:      "Vertical Space",
	SpecialEmptyField:         "Empty Field",
	SpecialTableHeader:        "Table Header",
	SpecialSiteInfo:           "Site Info",
}

// Layout is a node of the print tree: the main layout of a type contains
// rows, rows contain columns, columns contain fields, specials or further
// rows. Layouts carry no timestamps; they only matter at render time.
type Layout struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	LayoutType int            `gorm:"not null" json:"layout_type"`
	Main       bool           `gorm:"default:false" json:"main"`
	Toc        bool           `gorm:"default:false" json:"toc"`
	Attributes datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"attributes,omitempty"`
}

func (Layout) TableName() string {
	return "layouts"
}

// SublayoutPivot is the ordered polymorphic edge from a layout to one of
// its children. sublayout_order is contiguous ascending per layout across
// all child types; widths carries per-column width fractions.
type SublayoutPivot struct {
	LayoutID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"layout_id"`
	SublayoutType  int            `gorm:"not null" json:"sublayout_type"`
	SublayoutID    uuid.UUID      `gorm:"type:uuid;not null" json:"sublayout_id"`
	SublayoutOrder int            `gorm:"not null" json:"sublayout_order"`
	Widths         datatypes.JSON `gorm:"type:jsonb" json:"widths,omitempty"`
}

func (SublayoutPivot) TableName() string {
	return "sublayouts"
}

// SpecialLayout is a non-data placeholder block (blank media, situating
// map, vertical space, ...) usable as a layout child.
type SpecialLayout struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	SpecialType int            `gorm:"not null" json:"special_type"`
	Attributes  datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"attributes,omitempty"`
}

func (SpecialLayout) TableName() string {
	return "special_layouts"
}

func SpecialString(specialType int) string {
	if s, ok := specialStrings[specialType]; ok {
		return s
	}
	return fmt.Sprintf("?? (%d)", specialType)
}

func (s *SpecialLayout) Name() string {
	return SpecialString(s.SpecialType)
}

func (l *Layout) TypeString() string {
	if s, ok := layoutTypeStrings[l.LayoutType]; ok {
		return s
	}
	return "Unknown"
}

// FormType maps the layout type onto the matching form type.
func (l *Layout) FormType() (int, error) {
	if t, ok := layoutToFormType[l.LayoutType]; ok {
		return t, nil
	}
	log.Printf("layout %s: cannot map layout_type %d to a form type", l.ID, l.LayoutType)
	return 0, fmt.Errorf("layout %s: unmapped layout_type %d", l.ID, l.LayoutType)
}

// LayoutChild is a resolved pivot; exactly one member is set.
type LayoutChild struct {
	Pivot   SublayoutPivot
	Layout  *Layout
	Field   *Field
	Special *SpecialLayout
}

// Pivots returns the child edges of a layout in display order.
func (l *Layout) Pivots(db *gorm.DB) ([]SublayoutPivot, error) {
	var pivots []SublayoutPivot
	err := db.Where("layout_id = ?", l.ID).Order("sublayout_order asc").Find(&pivots).Error
	return pivots, err
}

// Children resolves the child edges to rows. Edges whose target is gone
// are skipped.
func (l *Layout) Children(db *gorm.DB) ([]LayoutChild, error) {
	pivots, err := l.Pivots(db)
	if err != nil {
		return nil, err
	}
	children := make([]LayoutChild, 0, len(pivots))
	for _, pivot := range pivots {
		child := LayoutChild{Pivot: pivot}
		switch pivot.SublayoutType {
		case SublayoutTypeLayout:
			var layout Layout
			if err := db.First(&layout, "id = ?", pivot.SublayoutID).Error; err != nil {
				if notFound(err) == ErrNotFound {
					continue
				}
				return nil, err
			}
			child.Layout = &layout
		case SublayoutTypeField:
			var field Field
			if err := db.First(&field, "id = ?", pivot.SublayoutID).Error; err != nil {
				if notFound(err) == ErrNotFound {
					continue
				}
				return nil, err
			}
			child.Field = &field
		case SublayoutTypeSpecial:
			var special SpecialLayout
			if err := db.First(&special, "id = ?", pivot.SublayoutID).Error; err != nil {
				if notFound(err) == ErrNotFound {
					continue
				}
				return nil, err
			}
			child.Special = &special
		default:
			return nil, fmt.Errorf("layout %s: unknown sublayout_type %d", l.ID, pivot.SublayoutType)
		}
		children = append(children, child)
	}
	return children, nil
}

// LastOrder returns the highest order in use under this layout, 0 if empty.
func (l *Layout) LastOrder(db *gorm.DB) (int, error) {
	var pivot SublayoutPivot
	err := db.Where("layout_id = ?", l.ID).Order("sublayout_order desc").First(&pivot).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return pivot.SublayoutOrder, nil
}

// FindOrder returns the position of an existing child, or end-of-list when
// no anchor is given.
func (l *Layout) FindOrder(db *gorm.DB, childType int, childID uuid.UUID) (int, error) {
	if childID == uuid.Nil {
		last, err := l.LastOrder(db)
		if err != nil {
			return 0, err
		}
		return last + 1, nil
	}
	var pivot SublayoutPivot
	err := db.Where("layout_id = ? AND sublayout_type = ? AND sublayout_id = ?", l.ID, childType, childID).
		First(&pivot).Error
	if err != nil {
		return 0, notFound(err)
	}
	return pivot.SublayoutOrder, nil
}

// AddObject links a child into this layout before the given anchor (end of
// list when the anchor id is nil). The sibling shift and the insert run in
// one transaction.
func (l *Layout) AddObject(db *gorm.DB, childType int, childID uuid.UUID, beforeType int, beforeID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return l.addObject(tx, childType, childID, beforeType, beforeID)
	})
}

func (l *Layout) addObject(tx *gorm.DB, childType int, childID uuid.UUID, beforeType int, beforeID uuid.UUID) error {
	order, err := l.FindOrder(tx, beforeType, beforeID)
	if err != nil {
		return err
	}
	if err := tx.Model(&SublayoutPivot{}).
		Where("layout_id = ? AND sublayout_order >= ?", l.ID, order).
		UpdateColumn("sublayout_order", gorm.Expr("sublayout_order + 1")).Error; err != nil {
		return err
	}
	return tx.Create(&SublayoutPivot{
		LayoutID:       l.ID,
		SublayoutType:  childType,
		SublayoutID:    childID,
		SublayoutOrder: order,
	}).Error
}

// AddRow appends a new row to this layout. Rows always start with one
// column: only columns may hold fields.
func (l *Layout) AddRow(db *gorm.DB) (*Layout, error) {
	var row *Layout
	err := db.Transaction(func(tx *gorm.DB) error {
		row = &Layout{
			ID:         uuid.New(),
			CompanyID:  l.CompanyID,
			LayoutType: l.LayoutType,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if err := l.addObject(tx, SublayoutTypeLayout, row.ID, 0, uuid.Nil); err != nil {
			return err
		}

		column := &Layout{
			ID:         uuid.New(),
			CompanyID:  l.CompanyID,
			LayoutType: l.LayoutType,
		}
		if err := tx.Create(column).Error; err != nil {
			return err
		}
		return row.addObject(tx, SublayoutTypeLayout, column.ID, 0, uuid.Nil)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// AddColumn appends a new column to this row.
func (l *Layout) AddColumn(db *gorm.DB) (*Layout, error) {
	var column *Layout
	err := db.Transaction(func(tx *gorm.DB) error {
		column = &Layout{
			ID:         uuid.New(),
			CompanyID:  l.CompanyID,
			LayoutType: l.LayoutType,
		}
		if err := tx.Create(column).Error; err != nil {
			return err
		}
		return l.addObject(tx, SublayoutTypeLayout, column.ID, 0, uuid.Nil)
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

// RemoveObject unlinks a child and closes the order gap. Layout children
// are removed recursively along with their own children and then deleted;
// special blocks are deleted; fields are only unlinked, they are shared.
// The whole removal is one transaction.
func (l *Layout) RemoveObject(db *gorm.DB, childType int, childID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return l.removeObject(tx, childType, childID)
	})
}

func (l *Layout) removeObject(tx *gorm.DB, childType int, childID uuid.UUID) error {
	order, err := l.FindOrder(tx, childType, childID)
	if err != nil {
		return err
	}

	if err := tx.Where("layout_id = ? AND sublayout_type = ? AND sublayout_id = ?", l.ID, childType, childID).
		Delete(&SublayoutPivot{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&SublayoutPivot{}).
		Where("layout_id = ? AND sublayout_order > ?", l.ID, order).
		UpdateColumn("sublayout_order", gorm.Expr("sublayout_order - 1")).Error; err != nil {
		return err
	}

	switch childType {
	case SublayoutTypeLayout:
		var child Layout
		if err := tx.First(&child, "id = ?", childID).Error; err != nil {
			return notFound(err)
		}
		var grandchildren []SublayoutPivot
		if err := tx.Where("layout_id = ?", childID).Find(&grandchildren).Error; err != nil {
			return err
		}
		for _, pivot := range grandchildren {
			if err := child.removeObject(tx, pivot.SublayoutType, pivot.SublayoutID); err != nil {
				return err
			}
		}
		return tx.Delete(&Layout{}, "id = ?", childID).Error
	case SublayoutTypeSpecial:
		return tx.Delete(&SpecialLayout{}, "id = ?", childID).Error
	}
	return nil
}

// MoveObject relocates a child in front of an anchor inside another layout
// (or this one). Both order shifts and the pivot update are a single
// transaction, so a failure can not leave the two layouts half renumbered.
func (l *Layout) MoveObject(db *gorm.DB, childType int, childID uuid.UUID, newLayoutID uuid.UUID, beforeType int, beforeID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		order, err := l.FindOrder(tx, childType, childID)
		if err != nil {
			return err
		}
		if err := tx.Model(&SublayoutPivot{}).
			Where("layout_id = ? AND sublayout_order > ?", l.ID, order).
			UpdateColumn("sublayout_order", gorm.Expr("sublayout_order - 1")).Error; err != nil {
			return err
		}

		var target Layout
		if err := tx.First(&target, "id = ?", newLayoutID).Error; err != nil {
			return notFound(err)
		}
		newOrder, err := target.FindOrder(tx, beforeType, beforeID)
		if err != nil {
			return err
		}
		if err := tx.Model(&SublayoutPivot{}).
			Where("layout_id = ? AND sublayout_order >= ?", newLayoutID, newOrder).
			UpdateColumn("sublayout_order", gorm.Expr("sublayout_order + 1")).Error; err != nil {
			return err
		}

		return tx.Model(&SublayoutPivot{}).
			Where("layout_id = ? AND sublayout_type = ? AND sublayout_id = ?", l.ID, childType, childID).
			Updates(map[string]interface{}{
				"layout_id":       newLayoutID,
				"sublayout_order": newOrder,
			}).Error
	})
}

// UpdateWidths stores the per-column width fractions on one pivot edge.
func (p *SublayoutPivot) UpdateWidths(db *gorm.DB, widths datatypes.JSON) error {
	return db.Model(&SublayoutPivot{}).
		Where("layout_id = ? AND sublayout_type = ? AND sublayout_id = ?", p.LayoutID, p.SublayoutType, p.SublayoutID).
		UpdateColumn("widths", widths).Error
}

// GetPivot finds one child edge by its composite key.
func GetPivot(db *gorm.DB, layoutID uuid.UUID, childType int, childID uuid.UUID) (*SublayoutPivot, error) {
	var pivot SublayoutPivot
	err := db.Where("layout_id = ? AND sublayout_type = ? AND sublayout_id = ?", layoutID, childType, childID).
		First(&pivot).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pivot, nil
}

// CheckSublayoutOrder validates the contiguity invariant for one layout.
func CheckSublayoutOrder(db *gorm.DB, layoutID uuid.UUID) error {
	var pivots []SublayoutPivot
	if err := db.Where("layout_id = ?", layoutID).Order("sublayout_order asc").Find(&pivots).Error; err != nil {
		return err
	}
	for i, pivot := range pivots {
		if pivot.SublayoutOrder != i+1 {
			return fmt.Errorf("layout %s: sublayout_order %d at position %d (want %d)", layoutID, pivot.SublayoutOrder, i, i+1)
		}
	}
	return nil
}

// RowEmpty reports whether every column of this row is empty under the
// given answer key, so blank rows can be suppressed in the PDF.
func (l *Layout) RowEmpty(db *gorm.DB, key AnswerKey) (bool, error) {
	children, err := l.Children(db)
	if err != nil {
		return false, err
	}
	for _, child := range children {
		if child.Layout == nil {
			continue
		}
		empty, err := child.Layout.ColEmpty(db, key)
		if err != nil {
			return false, err
		}
		if !empty {
			return false, nil
		}
	}
	return true, nil
}

// ColEmpty recurses into nested rows and resolves field emptiness.
func (l *Layout) ColEmpty(db *gorm.DB, key AnswerKey) (bool, error) {
	children, err := l.Children(db)
	if err != nil {
		return false, err
	}
	for _, child := range children {
		switch {
		case child.Layout != nil:
			empty, err := child.Layout.RowEmpty(db, key)
			if err != nil {
				return false, err
			}
			if !empty {
				return false, nil
			}
		case child.Field != nil:
			empty, err := child.Field.IsEmpty(db, key)
			if err != nil {
				return false, err
			}
			if !empty {
				return false, nil
			}
		}
	}
	return true, nil
}

// UsedFieldList collects every field id placed anywhere under this layout.
func (l *Layout) UsedFieldList(db *gorm.DB) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&SublayoutPivot{}).
		Where("layout_id = ? AND sublayout_type = ?", l.ID, SublayoutTypeField).
		Pluck("sublayout_id", &ids).Error
	if err != nil {
		return nil, err
	}

	children, err := l.Children(db)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.Layout == nil {
			continue
		}
		nested, err := child.Layout.UsedFieldList(db)
		if err != nil {
			return nil, err
		}
		ids = append(ids, nested...)
	}
	return ids, nil
}

// UnusedFields lists the company's fields compatible with this layout's
// form type and not yet placed anywhere under it.
func (l *Layout) UnusedFields(db *gorm.DB, companyID uuid.UUID) ([]Field, error) {
	used, err := l.UsedFieldList(db)
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

// MainLayouts lists a tenant's root layouts, optionally by type.
func MainLayouts(db *gorm.DB, companyID uuid.UUID, layoutType int) ([]Layout, error) {
	query := db.Where("company_id = ? AND main = ?", companyID, true)
	if layoutType != 0 {
		query = query.Where("layout_type = ?", layoutType)
	}
	var layouts []Layout
	err := query.Find(&layouts).Error
	return layouts, err
}

// BodyLayouts lists the root layouts that make up a report body.
func BodyLayouts(db *gorm.DB, companyID uuid.UUID) ([]Layout, error) {
	var layouts []Layout
	err := db.Where("company_id = ? AND main = ?", companyID, true).
		Where("layout_type IN ?", []int{
			LayoutTypeSite, LayoutTypeVehicleMaintenance, LayoutTypePersonalSafety,
			LayoutTypeSiteSafety, LayoutTypeTools,
		}).Find(&layouts).Error
	return layouts, err
}
