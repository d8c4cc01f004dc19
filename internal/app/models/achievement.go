package models

import (
	"time"

	"github.com/deptcms/portal/internal/attachment"
)

// Achievement is a student or department achievement. Image and proof are
// independent optional attachments.
type Achievement struct {
	Record
	Title           string                `json:"title" form:"title" binding:"required,max=255"`
	Description     string                `json:"description" form:"description" binding:"required"`
	Category        string                `json:"category" form:"category" binding:"required,max=100"`
	AchievementDate time.Time             `json:"achievementDate" form:"achievementDate" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	StudentName     string                `json:"studentName" form:"studentName"`
	Image           *attachment.Reference `json:"image" form:"-"`
	Proof           *attachment.Reference `json:"proof" form:"-"`
}
