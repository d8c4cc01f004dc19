package models

import "github.com/deptcms/portal/internal/attachment"

// GalleryItem is a photo or video in the department gallery
type GalleryItem struct {
	Record
	Title       string                `json:"title" form:"title" binding:"required,max=255"`
	Category    string                `json:"category" form:"category" binding:"required,max=100"`
	Description string                `json:"description" form:"description"`
	Media       *attachment.Reference `json:"media" form:"-"`
}
