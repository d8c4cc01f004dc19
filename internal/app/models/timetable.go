package models

import "github.com/deptcms/portal/internal/attachment"

// Timetable is a class timetable for one semester and division
type Timetable struct {
	Record
	Title        string                `json:"title" form:"title" binding:"required,max=255"`
	Semester     string                `json:"semester" form:"semester" binding:"required,max=20"`
	Division     string                `json:"division" form:"division" binding:"max=20"`
	AcademicYear string                `json:"academicYear" form:"academicYear" binding:"required,max=20"`
	Media        *attachment.Reference `json:"media" form:"-"`
}
