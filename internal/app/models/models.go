package models

import "time"

// Record holds the bookkeeping columns every content table carries.
// Version is bumped on each write and used for conditional updates.
type Record struct {
	ID        int64     `json:"id" form:"-"`
	Version   int       `json:"version" form:"-"`
	CreatedAt time.Time `json:"createdAt" form:"-"`
	UpdatedAt time.Time `json:"updatedAt" form:"-"`
}

// ResourceType classifies academic resources
type ResourceType string

const (
	ResourceTypeSyllabus      ResourceType = "syllabus"
	ResourceTypeNotes         ResourceType = "notes"
	ResourceTypeQuestionPaper ResourceType = "question-paper"
	ResourceTypeLabManual     ResourceType = "lab-manual"
	ResourceTypeOther         ResourceType = "other"
)
