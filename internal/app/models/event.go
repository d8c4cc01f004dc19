package models

import (
	"time"

	"github.com/deptcms/portal/internal/attachment"
)

// Event is a department event with an optional poster image
type Event struct {
	Record
	Title       string                `json:"title" form:"title" binding:"required,max=255"`
	Description string                `json:"description" form:"description" binding:"required"`
	EventDate   time.Time             `json:"eventDate" form:"eventDate" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	Venue       string                `json:"venue" form:"venue"`
	Organizer   string                `json:"organizer" form:"organizer"`
	Image       *attachment.Reference `json:"image" form:"-"`
}
