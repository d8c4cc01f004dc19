package models

import "github.com/deptcms/portal/internal/attachment"

// Alumni is a graduate profile with testimonial
type Alumni struct {
	Record
	Name           string                `json:"name" form:"name" binding:"required,max=255"`
	GraduationYear int                   `json:"graduationYear" form:"graduationYear" binding:"required,min=1950,max=2100"`
	Company        string                `json:"company" form:"company"`
	Position       string                `json:"position" form:"position"`
	LinkedinURL    string                `json:"linkedinUrl" form:"linkedinUrl" binding:"omitempty,url"`
	Testimonial    string                `json:"testimonial" form:"testimonial"`
	Photo          *attachment.Reference `json:"photo" form:"-"`
}
