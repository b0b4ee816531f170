package models

import "time"

type ContentType string

const (
	ContentExercise  ContentType = "exercise"
	ContentStep      ContentType = "step"
	ContentReference ContentType = "reference"
)

// ReferencesOrder places a references record after every numbered step of its sub-exercise.
const ReferencesOrder = 999

func (t ContentType) Valid() bool {
	switch t {
	case ContentExercise, ContentStep, ContentReference:
		return true
	}
	return false
}

// ContentRecord is one node of the lab tree: exercise -> sub-exercise -> step/reference.
type ContentRecord struct {
	ID          string      `gorm:"primaryKey;size:128" json:"id"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	ContentType ContentType `gorm:"type:varchar(20);not null;index" json:"content_type"`
	ParentID    *string     `gorm:"size:128;index" json:"parent_id,omitempty"`
	Order       int         `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsHidden    bool        `gorm:"not null;default:false" json:"is_hidden"`
	Content     string      `gorm:"type:text" json:"content"`
	CreatedBy   string      `gorm:"size:100" json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (ContentRecord) TableName() string {
	return "content_records"
}

// IsTopLevel reports whether the record has no parent.
func (r *ContentRecord) IsTopLevel() bool {
	return r.ParentID == nil || *r.ParentID == ""
}

func (r *ContentRecord) Parent() string {
	if r.ParentID == nil {
		return ""
	}
	return *r.ParentID
}

// ContentPatch carries only the fields a client sent; nil leaves the column untouched.
type ContentPatch struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Order    *int    `json:"order"`
	IsHidden *bool   `json:"is_hidden"`
}
