package repositories

import (
	"github.com/deptcms/portal/internal/app/models"
)

// FacultySchema maps models.Faculty onto the faculty table
var FacultySchema = Schema[models.Faculty]{
	Kind:  "faculty",
	Table: "faculty",
	Columns: []string{
		"name", "designation", "email", "phone", "qualification",
		"specialization", "experience_years", "display_order", "photo",
	},
	Values: func(f *models.Faculty) []interface{} {
		return []interface{}{
			f.Name, f.Designation, f.Email, f.Phone, f.Qualification,
			f.Specialization, f.ExperienceYears, f.DisplayOrder, refValue(f.Photo),
		}
	},
	Targets: func(f *models.Faculty) []interface{} {
		return []interface{}{
			&f.Name, &f.Designation, &f.Email, &f.Phone, &f.Qualification,
			&f.Specialization, &f.ExperienceYears, &f.DisplayOrder, &f.Photo,
		}
	},
	Base:    func(f *models.Faculty) *models.Record { return &f.Record },
	OrderBy: []string{"display_order ASC", "name ASC"},
	Filters: map[string]string{"designation": "designation"},
}

// EventSchema maps models.Event onto the events table
var EventSchema = Schema[models.Event]{
	Kind:    "event",
	Table:   "events",
	Columns: []string{"title", "description", "event_date", "venue", "organizer", "image"},
	Values: func(e *models.Event) []interface{} {
		return []interface{}{e.Title, e.Description, e.EventDate, e.Venue, e.Organizer, refValue(e.Image)}
	},
	Targets: func(e *models.Event) []interface{} {
		return []interface{}{&e.Title, &e.Description, &e.EventDate, &e.Venue, &e.Organizer, &e.Image}
	},
	Base:    func(e *models.Event) *models.Record { return &e.Record },
	OrderBy: []string{"event_date DESC"},
	Filters: map[string]string{"organizer": "organizer"},
}

// NoticeSchema maps models.Notice onto the notices table
var NoticeSchema = Schema[models.Notice]{
	Kind:    "notice",
	Table:   "notices",
	Columns: []string{"title", "description", "notice_date", "category", "is_important", "file"},
	Values: func(n *models.Notice) []interface{} {
		return []interface{}{n.Title, n.Description, n.NoticeDate, n.Category, n.IsImportant, refValue(n.File)}
	},
	Targets: func(n *models.Notice) []interface{} {
		return []interface{}{&n.Title, &n.Description, &n.NoticeDate, &n.Category, &n.IsImportant, &n.File}
	},
	Base:    func(n *models.Notice) *models.Record { return &n.Record },
	OrderBy: []string{"is_important DESC", "notice_date DESC"},
	Filters: map[string]string{"category": "category"},
}

// GallerySchema maps models.GalleryItem onto the gallery_items table
var GallerySchema = Schema[models.GalleryItem]{
	Kind:    "gallery item",
	Table:   "gallery_items",
	Columns: []string{"title", "category", "description", "media"},
	Values: func(g *models.GalleryItem) []interface{} {
		return []interface{}{g.Title, g.Category, g.Description, refValue(g.Media)}
	},
	Targets: func(g *models.GalleryItem) []interface{} {
		return []interface{}{&g.Title, &g.Category, &g.Description, &g.Media}
	},
	Base:    func(g *models.GalleryItem) *models.Record { return &g.Record },
	OrderBy: []string{"created_at DESC"},
	Filters: map[string]string{"category": "category"},
}

// TimetableSchema maps models.Timetable onto the timetables table
var TimetableSchema = Schema[models.Timetable]{
	Kind:    "timetable",
	Table:   "timetables",
	Columns: []string{"title", "semester", "division", "academic_year", "media"},
	Values: func(t *models.Timetable) []interface{} {
		return []interface{}{t.Title, t.Semester, t.Division, t.AcademicYear, refValue(t.Media)}
	},
	Targets: func(t *models.Timetable) []interface{} {
		return []interface{}{&t.Title, &t.Semester, &t.Division, &t.AcademicYear, &t.Media}
	},
	Base:    func(t *models.Timetable) *models.Record { return &t.Record },
	OrderBy: []string{"academic_year DESC", "semester ASC", "division ASC"},
	Filters: map[string]string{
		"semester":     "semester",
		"division":     "division",
		"academicYear": "academic_year",
	},
}

// AcademicResourceSchema maps models.AcademicResource onto the academic_resources table
var AcademicResourceSchema = Schema[models.AcademicResource]{
	Kind:    "academic resource",
	Table:   "academic_resources",
	Columns: []string{"title", "resource_type", "semester", "subject", "document"},
	Values: func(a *models.AcademicResource) []interface{} {
		return []interface{}{a.Title, string(a.ResourceType), a.Semester, a.Subject, refValue(a.Document)}
	},
	Targets: func(a *models.AcademicResource) []interface{} {
		return []interface{}{&a.Title, &a.ResourceType, &a.Semester, &a.Subject, &a.Document}
	},
	Base:    func(a *models.AcademicResource) *models.Record { return &a.Record },
	OrderBy: []string{"semester ASC", "title ASC"},
	Filters: map[string]string{
		"semester":     "semester",
		"resourceType": "resource_type",
		"subject":      "subject",
	},
}

// AlumniSchema maps models.Alumni onto the alumni table
var AlumniSchema = Schema[models.Alumni]{
	Kind:  "alumni",
	Table: "alumni",
	Columns: []string{
		"name", "graduation_year", "company", "position", "linkedin_url", "testimonial", "photo",
	},
	Values: func(a *models.Alumni) []interface{} {
		return []interface{}{a.Name, a.GraduationYear, a.Company, a.Position, a.LinkedinURL, a.Testimonial, refValue(a.Photo)}
	},
	Targets: func(a *models.Alumni) []interface{} {
		return []interface{}{&a.Name, &a.GraduationYear, &a.Company, &a.Position, &a.LinkedinURL, &a.Testimonial, &a.Photo}
	},
	Base:    func(a *models.Alumni) *models.Record { return &a.Record },
	OrderBy: []string{"graduation_year DESC", "name ASC"},
	Filters: map[string]string{"graduationYear": "graduation_year::text"},
}

// MentorMenteeSchema maps models.MentorMentee onto the mentor_mentee table
var MentorMenteeSchema = Schema[models.MentorMentee]{
	Kind:    "mentor-mentee record",
	Table:   "mentor_mentee",
	Columns: []string{"mentor_name", "academic_year", "semester", "division", "document"},
	Values: func(m *models.MentorMentee) []interface{} {
		return []interface{}{m.MentorName, m.AcademicYear, m.Semester, m.Division, refValue(m.Document)}
	},
	Targets: func(m *models.MentorMentee) []interface{} {
		return []interface{}{&m.MentorName, &m.AcademicYear, &m.Semester, &m.Division, &m.Document}
	},
	Base:    func(m *models.MentorMentee) *models.Record { return &m.Record },
	OrderBy: []string{"academic_year DESC", "mentor_name ASC"},
	Filters: map[string]string{
		"academicYear": "academic_year",
		"semester":     "semester",
		"division":     "division",
	},
}

// AchievementSchema maps models.Achievement onto the achievements table
var AchievementSchema = Schema[models.Achievement]{
	Kind:  "achievement",
	Table: "achievements",
	Columns: []string{
		"title", "description", "category", "achievement_date", "student_name", "image", "proof",
	},
	Values: func(a *models.Achievement) []interface{} {
		return []interface{}{a.Title, a.Description, a.Category, a.AchievementDate, a.StudentName, refValue(a.Image), refValue(a.Proof)}
	},
	Targets: func(a *models.Achievement) []interface{} {
		return []interface{}{&a.Title, &a.Description, &a.Category, &a.AchievementDate, &a.StudentName, &a.Image, &a.Proof}
	},
	Base:    func(a *models.Achievement) *models.Record { return &a.Record },
	OrderBy: []string{"achievement_date DESC"},
	Filters: map[string]string{"category": "category"},
}
