package models

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MediaTypeNone  = 0
	MediaTypeImage = 1
	MediaTypeVideo = 2
	MediaTypePDF   = 3
	MediaTypeXLS   = 4
	MediaTypeDoc   = 5
)

const (
	MediaUseNone         = 0
	MediaUseAvatar       = 1
	MediaUseField        = 2
	MediaUseCompanyLogo  = 3
	MediaUseCustomerLogo = 4
	MediaUseLayout       = 5
	MediaUseReport       = 6
	MediaUseInvoice      = 7
	MediaUseLetterhead   = 8
	MediaUseQuote        = 9
	MediaUseAnswer       = 11
)

// Image scale variants produced by the rescale worker.
const (
	MediaScaleOriginal = 0
	MediaScale100      = 1
	MediaScale200      = 2
	MediaScale400      = 3
	MediaScale800      = 4
)

// Resize states. The rescale queue itself is an external collaborator;
// this package only records the transitions.
const (
	ResizeNone       = 0
	ResizeInProgress = 1
	ResizeError      = 2
)

var mediaTypeStrings = map[int]string{
	MediaTypeNone:  "None",
	MediaTypeImage: "Image",
	MediaTypeVideo: "Video",
	MediaTypePDF:   "PDF",
	MediaTypeXLS:   "Spreadsheet",
	MediaTypeDoc:   "Document",
}

// Media is one stored file. Storage itself (GCS or local disk) is outside
// this package; rows only carry the path the store returned.
type Media struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	AnswerID  *uuid.UUID `gorm:"type:uuid;index" json:"answer_id,omitempty"`

	FileName  string `gorm:"size:500;not null" json:"file_name"`
	Path      string `gorm:"size:1000;not null" json:"path"`
	MediaType int    `gorm:"default:0" json:"media_type"`
	MediaUse  int    `gorm:"default:0" json:"media_use"`
	Size      int64  `json:"size"`
	Resize    int    `gorm:"default:0" json:"resize"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Media) TableName() string {
	return "media"
}

func (m *Media) TypeString() string {
	if s, ok := mediaTypeStrings[m.MediaType]; ok {
		return s
	}
	return mediaTypeStrings[MediaTypeNone]
}

// URL returns the path clients fetch this media at.
func (m *Media) URL() string {
	return "/uploads/" + m.Path
}

// ScaledName derives the file name of a scale variant, e.g. photo_400.jpg.
func (m *Media) ScaledName(scale int) string {
	if scale == MediaScaleOriginal {
		return m.FileName
	}
	ext := path.Ext(m.FileName)
	base := strings.TrimSuffix(m.FileName, ext)
	size := map[int]string{MediaScale100: "100", MediaScale200: "200", MediaScale400: "400", MediaScale800: "800"}[scale]
	return fmt.Sprintf("%s_%s%s", base, size, ext)
}

// SetAnswer links an uploaded media to the answer that references it.
func (m *Media) SetAnswer(db *gorm.DB, answerID uuid.UUID) error {
	m.AnswerID = &answerID
	m.MediaUse = MediaUseAnswer
	return db.Save(m).Error
}

// MarkForRescale flags an image for the external rescale worker.
func (m *Media) MarkForRescale(db *gorm.DB) error {
	if m.MediaType != MediaTypeImage {
		return nil
	}
	m.Resize = ResizeInProgress
	return db.Model(&Media{}).Where("id = ?", m.ID).
		UpdateColumn("resize", ResizeInProgress).Error
}

// RescaleComplete records the worker's outcome.
func (m *Media) RescaleComplete(db *gorm.DB, ok bool) error {
	state := ResizeNone
	if !ok {
		state = ResizeError
	}
	m.Resize = state
	return db.Model(&Media{}).Where("id = ?", m.ID).
		UpdateColumn("resize", state).Error
}

// MediaTypeForExt classifies an uploaded file by extension.
func MediaTypeForExt(name string) int {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
		return MediaTypeImage
	case ".mp4", ".mov", ".avi":
		return MediaTypeVideo
	case ".pdf":
		return MediaTypePDF
	case ".xls", ".xlsx", ".csv":
		return MediaTypeXLS
	case ".doc", ".docx":
		return MediaTypeDoc
	default:
		return MediaTypeNone
	}
}
