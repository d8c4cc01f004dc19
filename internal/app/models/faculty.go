package models

import "github.com/deptcms/portal/internal/attachment"

// Faculty is a department staff member shown on the faculty page
type Faculty struct {
	Record
	Name            string                `json:"name" form:"name" binding:"required,max=255"`
	Designation     string                `json:"designation" form:"designation" binding:"required,max=255"`
	Email           string                `json:"email" form:"email" binding:"required,email"`
	Phone           string                `json:"phone" form:"phone" binding:"max=50"`
	Qualification   string                `json:"qualification" form:"qualification"`
	Specialization  string                `json:"specialization" form:"specialization"`
	ExperienceYears int                   `json:"experienceYears" form:"experienceYears" binding:"min=0,max=70"`
	DisplayOrder    int                   `json:"displayOrder" form:"displayOrder"`
	Photo           *attachment.Reference `json:"photo" form:"-"`
}
