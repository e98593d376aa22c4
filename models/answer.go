package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SourceUnknown = 0
	SourceWeb     = 1
	SourceAppV1   = 2
	SourceAppV2   = 3
)

var sourceStrings = map[int]string{
	SourceUnknown: "Unknown",
	SourceWeb:     "Web",
	SourceAppV1:   "App V1",
	SourceAppV2:   "App V2",
}

// AnswerKey addresses one answered field inside a job/task, disambiguated by
// the equipment dimensions. uuid.Nil on a dimension means "not applicable",
// not a wildcard: lookups match the exact tuple.
type AnswerKey struct {
	JobID       uuid.UUID
	TaskID      uuid.UUID
	FieldID     uuid.UUID
	AntennaID   uuid.UUID
	PortID      uuid.UUID
	RadioID     uuid.UUID
	MicrowaveID uuid.UUID
	FwaID       uuid.UUID

	// Optional filter. Zero means "any user".
	UserID uuid.UUID
}

// Answer is one recorded value for a field under an AnswerKey. There is no
// uniqueness constraint on the tuple: several users may answer the same
// field and the most recently updated row wins on display.
type Answer struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	JobID       uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	FieldID     uuid.UUID `gorm:"type:uuid;not null;index" json:"field_id"`
	AntennaID   uuid.UUID `gorm:"type:uuid;index" json:"antenna_id"`
	PortID      uuid.UUID `gorm:"type:uuid;index" json:"port_id"`
	RadioID     uuid.UUID `gorm:"type:uuid;index" json:"radio_id"`
	MicrowaveID uuid.UUID `gorm:"type:uuid;index" json:"microwave_id"`
	FwaID       uuid.UUID `gorm:"type:uuid;index" json:"fwa_id"`

	// Raw scalar or JSON-encoded structure depending on the field type.
	Value   string `gorm:"type:text" json:"value"`
	Comment string `gorm:"type:text" json:"comment,omitempty"`
	Other   string `gorm:"type:text" json:"other,omitempty"`
	Source  int    `gorm:"default:0" json:"source"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) SourceStr() string {
	if s, ok := sourceStrings[a.Source]; ok {
		return s
	}
	return sourceStrings[SourceUnknown]
}

// SelectValue decodes the stored value of a select/radio/checkbox answer,
// which may be JSON-encoded. Malformed values come back as the raw string.
func (a *Answer) SelectValue() interface{} {
	return decodeValue(a.Value)
}

// FindAnswer returns the latest answer for an exact dimension tuple, or nil
// when nothing has been recorded. Recency by updated_at is the conflict
// policy: last write wins when several users answered the same tuple.
func FindAnswer(db *gorm.DB, key AnswerKey) (*Answer, error) {
	query := db.Where("job_id = ?", key.JobID).
		Where("task_id = ?", key.TaskID).
		Where("field_id = ?", key.FieldID).
		Where("antenna_id = ?", key.AntennaID).
		Where("port_id = ?", key.PortID).
		Where("radio_id = ?", key.RadioID).
		Where("microwave_id = ?", key.MicrowaveID).
		Where("fwa_id = ?", key.FwaID)
	if key.UserID != uuid.Nil {
		query = query.Where("user_id = ?", key.UserID)
	}

	var answer Answer
	err := query.Order("updated_at desc").First(&answer).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &answer, nil
}

// FindAnyAnswer looks a field up across all jobs and tasks, used to show the
// last known reading for a piece of equipment.
func FindAnyAnswer(db *gorm.DB, fieldID, antennaID, portID, radioID, microwaveID, fwaID uuid.UUID) (*Answer, error) {
	var answer Answer
	err := db.Where("field_id = ?", fieldID).
		Where("antenna_id = ?", antennaID).
		Where("port_id = ?", portID).
		Where("radio_id = ?", radioID).
		Where("microwave_id = ?", microwaveID).
		Where("fwa_id = ?", fwaID).
		Order("updated_at desc").First(&answer).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &answer, nil
}

// MediaComment returns the per-media comment recorded on whichever answer
// references the given media id, for fields configured with comments.
func MediaComment(db *gorm.DB, mediaID, fieldID uuid.UUID) (string, error) {
	var field Field
	if err := db.First(&field, "id = ?", fieldID).Error; err != nil {
		return "", notFound(err)
	}
	opts := field.DecodeOptions()
	if !opts.Comment {
		return "", nil
	}

	if opts.Multiple {
		var answers []Answer
		if err := db.Where("field_id = ? AND value LIKE ?", fieldID, "%"+mediaID.String()+"%").Find(&answers).Error; err != nil {
			return "", err
		}
		for _, answer := range answers {
			ids, ok := decodeStringList([]byte(answer.Value))
			if !ok {
				continue
			}
			for _, id := range ids {
				if id != mediaID.String() {
					continue
				}
				comments, ok := decodeMap([]byte(answer.Comment))
				if !ok {
					return "", nil
				}
				if c, ok := comments[mediaID.String()].(string); ok {
					return c, nil
				}
				return "", nil
			}
		}
		return "", nil
	}

	var answer Answer
	err := db.Where("field_id = ? AND value = ?", fieldID, mediaID.String()).First(&answer).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return answer.Comment, nil
}
