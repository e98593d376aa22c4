package models

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Decision is a conditional branch in a form: based on the recorded answer
// of its governing field it selects one of several candidate sub-forms.
// Options map an answer option slug to the target form id.
type Decision struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	FieldID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"field_id"`
	Options   datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"options,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Decision) TableName() string {
	return "decisions"
}

// DecodeOptions parses the slug-to-form mapping. Malformed options behave
// like an empty mapping.
func (d *Decision) DecodeOptions() map[string]uuid.UUID {
	options := map[string]uuid.UUID{}
	if len(d.Options) == 0 {
		return options
	}
	var raw map[string]string
	if err := json.Unmarshal(d.Options, &raw); err != nil {
		return options
	}
	for slug, id := range raw {
		formID, err := uuid.Parse(id)
		if err != nil || formID == uuid.Nil {
			continue
		}
		options[slug] = formID
	}
	return options
}

// TargetFormIDs lists the candidate forms this decision can branch into.
func (d *Decision) TargetFormIDs() []uuid.UUID {
	options := d.DecodeOptions()
	ids := make([]uuid.UUID, 0, len(options))
	for _, id := range options {
		ids = append(ids, id)
	}
	return ids
}

// GoverningField loads the field whose answer drives this decision.
func (d *Decision) GoverningField(db *gorm.DB) (*Field, error) {
	var field Field
	if err := db.First(&field, "id = ?", d.FieldID).Error; err != nil {
		return nil, notFound(err)
	}
	return &field, nil
}

// ResolveForm picks the sub-form for the current answer state. The
// governing field's latest answer under the given key is decoded leniently
// (a multi-select answer is an array, a single select a scalar) and matched
// against the configured options; the first match wins. No answer, no
// matching option, or a configured target form that no longer exists all
// resolve to nil rather than an error.
func (d *Decision) ResolveForm(db *gorm.DB, key AnswerKey) (*Form, error) {
	key.FieldID = d.FieldID
	answer, err := FindAnswer(db, key)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, nil
	}

	value := decodeValue(answer.Value)
	options := d.DecodeOptions()

	// Stable order: at most one option should match a given answer state,
	// but a misconfigured decision must still resolve deterministically.
	slugs := make([]string, 0, len(options))
	for slug := range options {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, option := range slugs {
		if !optionMatches(option, value) {
			continue
		}
		formID := options[option]
		var form Form
		if err := db.First(&form, "id = ?", formID).Error; err != nil {
			if notFound(err) == ErrNotFound {
				log.Printf("decision %s: configured form %s no longer exists (value=%s)", d.ID, formID, answer.Value)
				return nil, nil
			}
			return nil, err
		}
		return &form, nil
	}
	return nil, nil
}

func optionMatches(option string, value interface{}) bool {
	switch v := value.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == option {
				return true
			}
		}
		return false
	case string:
		return v == option
	default:
		return false
	}
}
