package models

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Unit systems and distance units. Distances are always stored in
// millimeters; conversion happens on the way in and out.
const (
	UnitsMetric = 1
	UnitsSAE    = 2

	UnitsShort = 1 // mm / in
	UnitsLong  = 2 // meter / foot

	UnitFormatNormal  = 0
	UnitFormatShort   = 1
	UnitFormatCompact = 2
)

var unitStrings = map[int]string{
	UnitsMetric: "Metric",
	UnitsSAE:    "SAE",
}

const (
	FieldTypeBool            = 1
	FieldTypeNumber          = 2
	FieldTypeSelect          = 3
	FieldTypeText            = 4
	FieldTypeLongText        = 5
	FieldTypeDate            = 6
	FieldTypeTime            = 7
	FieldTypeDateTime        = 8
	FieldTypeTel             = 9
	FieldTypeEmail           = 10
	FieldTypeRange           = 11
	FieldTypeMedia           = 12
	FieldTypeIssueList       = 13
	FieldTypeGroundingLayout = 14
	FieldTypeElectricalPlan  = 15
	FieldTypeDistance        = 16
	FieldTypePipe            = 17
	FieldTypeDeloadList      = 18
	FieldTypeBatteryTest     = 19
	FieldTypeOhms            = 20
	FieldTypeBillOfMaterial  = 21
	FieldTypeEmptyField      = 22
)

var fieldTypeStrings = map[int]string{
	FieldTypeBool:            "Bool / Checkbox",
	FieldTypeNumber:          "Number",
	FieldTypeSelect:          "Select / Multi-Select / Radio",
	FieldTypeText:            "Short Text",
	FieldTypeLongText:        "Long Text",
	FieldTypeDate:            "Date",
	FieldTypeTime:            "Time",
	FieldTypeDateTime:        "Date Time",
	FieldTypeTel:             "Telephone",
	FieldTypeEmail:           "E-Mail",
	FieldTypeRange:           "Range",
	FieldTypeMedia:           "File / Photo",
	FieldTypeIssueList:       "Issue List",
	FieldTypeGroundingLayout: "Grounding Layout",
	FieldTypeElectricalPlan:  "Electrical Plan",
	FieldTypeDistance:        "Distance / Length",
	FieldTypePipe:            "Pipe",
	FieldTypeDeloadList:      "Equipment Deload Table",
	FieldTypeBatteryTest:     "Battery Test",
	FieldTypeOhms:            "Ohms",
	FieldTypeBillOfMaterial:  "Bill of Material",
}

var fieldTypeAPIStrings = map[int]string{
	FieldTypeBool:            "checkbox",
	FieldTypeNumber:          "number",
	FieldTypeSelect:          "select",
	FieldTypeText:            "short-text",
	FieldTypeLongText:        "long-text",
	FieldTypeDate:            "date",
	FieldTypeTime:            "time",
	FieldTypeDateTime:        "date-time",
	FieldTypeTel:             "phone",
	FieldTypeEmail:           "email",
	FieldTypeRange:           "range",
	FieldTypeMedia:           "media",
	FieldTypeIssueList:       "issues",
	FieldTypeGroundingLayout: "grounding",
	FieldTypeElectricalPlan:  "electrical",
	FieldTypeDistance:        "distance",
	FieldTypePipe:            "pipe",
	FieldTypeDeloadList:      "deload",
	FieldTypeBatteryTest:     "battery",
	FieldTypeOhms:            "ohms",
	FieldTypeBillOfMaterial:  "bom",
}

var SeverityStrings = map[string]string{
	"H": "High",
	"M": "Medium",
	"L": "Low",
}

var BomCategories = map[string]string{
	"main":          "Main",
	"support-tower": "Support (Tower Steel)",
	"support-cable": "Support (Cable Fixing)",
	"power":         "Power",
	"grounding":     "Grounding",
	"acc":           "Accessories",
}

// SelectOption is one configured choice of a select field. An "other"
// option makes the answer's free-text value the displayed value.
type SelectOption struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Other bool   `json:"other"`
}

// FieldOptions is the schema-dependent configuration stored on a field.
type FieldOptions struct {
	Style    string         `json:"style,omitempty"`
	Multiple bool           `json:"multiple,omitempty"`
	Comment  bool           `json:"comment,omitempty"`
	Units    int            `json:"units,omitempty"`
	Select   []SelectOption `json:"select,omitempty"`
	Lower    float64        `json:"lower,omitempty"`
	Upper    float64        `json:"upper,omitempty"`
}

// Field is one inspection question. The field type is effectively immutable
// once answers exist; the form editor refuses to change it.
type Field struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	FieldType int            `gorm:"not null" json:"field_type"`
	Options   datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"options,omitempty"`
	Style     datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"style,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Field) TableName() string {
	return "fields"
}

func (f *Field) Type() string {
	if s, ok := fieldTypeStrings[f.FieldType]; ok {
		return s
	}
	return "Unknown"
}

func (f *Field) APIType() string {
	if s, ok := fieldTypeAPIStrings[f.FieldType]; ok {
		return s
	}
	return "Unknown"
}

// DecodeOptions parses the options jsonb. Malformed options behave like an
// unconfigured field.
func (f *Field) DecodeOptions() FieldOptions {
	var opts FieldOptions
	if len(f.Options) == 0 {
		return opts
	}
	if err := json.Unmarshal(f.Options, &opts); err != nil {
		return FieldOptions{}
	}
	return opts
}

func UnitStr(units int) string {
	if s, ok := unitStrings[units]; ok {
		return s
	}
	return "Unknown"
}

// FormatUnits returns the unit label for a short/long distance field in the
// given unit system.
func FormatUnits(shortLong, unitFormat, units int) string {
	if shortLong == UnitsLong {
		if units == UnitsMetric {
			if unitFormat != UnitFormatNormal {
				return "m"
			}
			return "Meters"
		}
		if unitFormat != UnitFormatNormal {
			return "ft"
		}
		return "Feet"
	}
	if units == UnitsMetric {
		if unitFormat != UnitFormatNormal {
			return "mm"
		}
		return "MilliMeters"
	}
	if unitFormat != UnitFormatNormal {
		return "in"
	}
	return "Inches"
}

func DistancePlaceholder(shortLong, unitFormat, units int) string {
	return FormatUnits(shortLong, unitFormat, units)
}

// DistanceTo converts a user-entered value (ft/m/in/mm depending on field
// configuration and unit system) to canonical millimeters.
func DistanceTo(value float64, shortLong, units int) float64 {
	if shortLong == UnitsLong {
		if units == UnitsSAE {
			return math.Round(value * 304.8)
		}
		return value * 1000
	}
	if units == UnitsSAE {
		return math.Round(value * 25.4)
	}
	return value
}

// DistanceFrom converts canonical millimeters back to the display unit with
// the fixed rounding rules: meters and feet to one decimal, inches and
// millimeters to integers.
func DistanceFrom(value float64, shortLong, units int) float64 {
	if shortLong == UnitsLong {
		if units == UnitsSAE {
			return math.Round(value*0.00328084*10) / 10
		}
		return math.Round(value*0.001*10) / 10
	}
	if units == UnitsSAE {
		return math.Round(value * 0.0393701)
	}
	return value
}

// FormatDistance renders a stored millimeter value with its unit label.
func FormatDistance(value float64, shortLong, unitFormat, units int) string {
	converted := DistanceFrom(value, shortLong, units)
	sep := " "
	if unitFormat == UnitFormatCompact {
		sep = ""
	}
	return trimFloat(converted) + sep + FormatUnits(shortLong, unitFormat, units)
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// Value formats an answer for display, dispatching on the field type.
// Structured values decode leniently: malformed JSON renders as empty, not
// as an error. The units parameter is the viewing customer's preference.
func (f *Field) Value(db *gorm.DB, answer *Answer, units int) interface{} {
	opts := f.DecodeOptions()

	switch f.FieldType {
	case FieldTypeBool:
		if answer.Value == "" || answer.Value == "0" || answer.Value == "false" {
			return "No"
		}
		return "Yes"

	case FieldTypeNumber, FieldTypeDate, FieldTypeTime, FieldTypeDateTime,
		FieldTypeRange, FieldTypeText, FieldTypeLongText:
		return answer.Value

	case FieldTypeSelect:
		return f.selectDisplay(answer, opts)

	case FieldTypeMedia:
		return f.mediaDisplay(db, answer, opts)

	case FieldTypeDistance:
		shortLong := opts.Units
		if shortLong == 0 {
			shortLong = UnitsLong
		}
		return FormatDistance(parseFloat(answer.Value), shortLong, UnitFormatShort, units)

	case FieldTypePipe, FieldTypeBatteryTest, FieldTypeIssueList,
		FieldTypeDeloadList, FieldTypeBillOfMaterial:
		if answer.Value == "" {
			return []interface{}{}
		}
		var v interface{}
		if err := json.Unmarshal([]byte(answer.Value), &v); err != nil {
			return []interface{}{}
		}
		return v

	default:
		return answer.Value
	}
}

func (f *Field) selectDisplay(answer *Answer, opts FieldOptions) interface{} {
	if opts.Multiple {
		values := []string{}
		selected := map[string]bool{}
		switch decoded := answer.SelectValue().(type) {
		case []interface{}:
			for _, v := range decoded {
				if s, ok := v.(string); ok {
					selected[s] = true
				}
			}
		case map[string]interface{}:
			for k := range decoded {
				selected[k] = true
			}
		case string:
			selected[decoded] = true
		}
		for _, option := range opts.Select {
			if !selected[option.Slug] {
				continue
			}
			if option.Other {
				values = append(values, answer.Other)
			} else {
				values = append(values, option.Name)
			}
		}
		return values
	}

	decoded, _ := answer.SelectValue().(string)
	for _, option := range opts.Select {
		if decoded == option.Slug {
			if option.Other {
				return answer.Other
			}
			return option.Name
		}
	}
	return "Unknown"
}

func (f *Field) mediaDisplay(db *gorm.DB, answer *Answer, opts FieldOptions) interface{} {
	if opts.Multiple {
		ids, ok := decodeStringList([]byte(answer.Value))
		if !ok {
			return nil
		}
		urls := []string{}
		for _, id := range ids {
			mediaID, err := uuid.Parse(id)
			if err != nil {
				continue
			}
			var media Media
			if err := db.First(&media, "id = ?", mediaID).Error; err != nil {
				log.Printf("Field.Value: unknown media %s on answer %s", id, answer.ID)
				continue
			}
			urls = append(urls, media.URL())
		}
		return urls
	}

	mediaID, err := uuid.Parse(answer.Value)
	if err != nil {
		return nil
	}
	var media Media
	if err := db.First(&media, "id = ?", mediaID).Error; err != nil {
		return nil
	}
	return media.URL()
}

func parseFloat(s string) float64 {
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0
	}
	return v
}

// batteryEmpty checks a battery-test answer: a test counts as recorded only
// when at least one battery in one string has a charging or discharging
// reading.
func batteryEmpty(answer *Answer) bool {
	if answer.Value == "" && answer.Comment == "" {
		return true
	}
	value, ok := decodeMap([]byte(answer.Value))
	if !ok {
		return true
	}
	if _, ok := value["count"]; !ok {
		return true
	}
	strings, ok := value["strings"].([]interface{})
	if !ok {
		return true
	}
	for _, s := range strings {
		str, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		count, _ := str["count"].(float64)
		batteries, ok := str["batteries"].([]interface{})
		if count <= 0 || !ok {
			continue
		}
		for _, b := range batteries {
			battery, ok := b.(map[string]interface{})
			if !ok {
				continue
			}
			if _, ok := battery["charging"]; ok {
				return false
			}
			if _, ok := battery["discharging"]; ok {
				return false
			}
		}
	}
	return true
}

// IsEmpty reports whether the field has no usable answer under the given
// key. Used for percent-complete and to suppress blank report rows.
func (f *Field) IsEmpty(db *gorm.DB, key AnswerKey) (bool, error) {
	key.FieldID = f.ID
	answer, err := FindAnswer(db, key)
	if err != nil {
		return false, err
	}
	if answer == nil {
		return true, nil
	}

	switch f.FieldType {
	case FieldTypeMedia:
		opts := f.DecodeOptions()
		if opts.Multiple {
			return answer.Value == "" && answer.Comment == "", nil
		}
		if answer.Comment != "" {
			return false, nil
		}
		if answer.Value == "" {
			return true, nil
		}
		mediaID, err := uuid.Parse(answer.Value)
		if err != nil {
			return true, nil
		}
		var count int64
		if err := db.Model(&Media{}).Where("id = ?", mediaID).Count(&count).Error; err != nil {
			return false, err
		}
		return count == 0, nil

	case FieldTypeBatteryTest:
		return batteryEmpty(answer), nil

	default:
		return answer.Value == "" && answer.Comment == "", nil
	}
}

// AnswerValue resolves and formats the latest answer, with "?" as the
// placeholder for unanswered fields.
func (f *Field) AnswerValue(db *gorm.DB, key AnswerKey, units int) (interface{}, error) {
	key.FieldID = f.ID
	answer, err := FindAnswer(db, key)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return "?", nil
	}
	return f.Value(db, answer, units), nil
}

// ParentForm returns the first form containing this field, or nil.
func (f *Field) ParentForm(db *gorm.DB) (*Form, error) {
	var ff FormField
	err := db.Where("form_field_type = ? AND model_id = ?", FormFieldTypeField, f.ID).First(&ff).Error
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

// FormCount reports how many forms use this field.
func (f *Field) FormCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&FormField{}).
		Where("model_id = ? AND form_field_type = ?", f.ID, FormFieldTypeField).
		Count(&count).Error
	return count, err
}

// CompanyFields lists a tenant's fields, the pool the form editor adds from.
func CompanyFields(db *gorm.DB, companyID uuid.UUID) ([]Field, error) {
	var fields []Field
	err := db.Where("company_id = ?", companyID).Order("name asc").Find(&fields).Error
	return fields, err
}
