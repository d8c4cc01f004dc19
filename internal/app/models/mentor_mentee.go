package models

import "github.com/deptcms/portal/internal/attachment"

// MentorMentee is a mentor's mentee allocation sheet
type MentorMentee struct {
	Record
	MentorName   string                `json:"mentorName" form:"mentorName" binding:"required,max=255"`
	AcademicYear string                `json:"academicYear" form:"academicYear" binding:"required,max=20"`
	Semester     string                `json:"semester" form:"semester" binding:"required,max=20"`
	Division     string                `json:"division" form:"division" binding:"max=20"`
	Document     *attachment.Reference `json:"document" form:"-"`
}
