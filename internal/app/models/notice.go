package models

import (
	"time"

	"github.com/deptcms/portal/internal/attachment"
)

// Notice is a notice board entry, optionally with an attached document
type Notice struct {
	Record
	Title       string                `json:"title" form:"title" binding:"required,max=255"`
	Description string                `json:"description" form:"description" binding:"required"`
	NoticeDate  time.Time             `json:"noticeDate" form:"noticeDate" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	Category    string                `json:"category" form:"category" binding:"max=100"`
	IsImportant bool                  `json:"isImportant" form:"isImportant"`
	File        *attachment.Reference `json:"file" form:"-"`
}
