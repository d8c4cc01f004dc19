package models

import "github.com/deptcms/portal/internal/attachment"

// AcademicResource is a syllabus, notes set, question paper or lab manual
type AcademicResource struct {
	Record
	Title        string                `json:"title" form:"title" binding:"required,max=255"`
	ResourceType ResourceType          `json:"resourceType" form:"resourceType" binding:"required,oneof=syllabus notes question-paper lab-manual other"`
	Semester     string                `json:"semester" form:"semester" binding:"required,max=20"`
	Subject      string                `json:"subject" form:"subject"`
	Document     *attachment.Reference `json:"document" form:"-"`
}
