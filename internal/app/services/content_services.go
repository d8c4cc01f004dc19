package services

import (
	"fmt"

	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// AttachmentDeps are the collaborators every content service shares
type AttachmentDeps struct {
	Files   attachment.Attacher
	Stage   attachment.Discarder
	Intents attachment.IntentStore
	Logger  zerolog.Logger
}

func newResourceService[T any](
	kind string,
	repo Repository[T],
	deps AttachmentDeps,
	base func(*T) *models.Record,
	slots []attachment.Slot[T],
	validate func(*T) error,
) *ResourceService[T] {
	log := deps.Logger.With().Str("service", kind).Logger()
	ownerID := func(rec *T) int64 { return base(rec).ID }
	return &ResourceService[T]{
		kind:      kind,
		repo:      repo,
		lifecycle: attachment.NewLifecycle(kind, ownerID, slots, deps.Files, deps.Stage, deps.Intents, log),
		base:      base,
		validate:  validate,
		logger:    log,
	}
}

// NewFacultyService creates the faculty service
func NewFacultyService(repo Repository[models.Faculty], deps AttachmentDeps) *ResourceService[models.Faculty] {
	return newResourceService("faculty", repo, deps,
		func(f *models.Faculty) *models.Record { return &f.Record },
		[]attachment.Slot[models.Faculty]{
			{Field: "photo", Required: true, Ref: func(f *models.Faculty) **attachment.Reference { return &f.Photo }},
		},
		func(f *models.Faculty) error {
			return checkName("name", f.Name)
		},
	)
}

// NewEventService creates the event service
func NewEventService(repo Repository[models.Event], deps AttachmentDeps) *ResourceService[models.Event] {
	return newResourceService("event", repo, deps,
		func(e *models.Event) *models.Record { return &e.Record },
		[]attachment.Slot[models.Event]{
			{Field: "image", Ref: func(e *models.Event) **attachment.Reference { return &e.Image }},
		},
		nil,
	)
}

// NewNoticeService creates the notice service
func NewNoticeService(repo Repository[models.Notice], deps AttachmentDeps) *ResourceService[models.Notice] {
	return newResourceService("notice", repo, deps,
		func(n *models.Notice) *models.Record { return &n.Record },
		[]attachment.Slot[models.Notice]{
			{Field: "file", Ref: func(n *models.Notice) **attachment.Reference { return &n.File }},
		},
		nil,
	)
}

// NewGalleryService creates the gallery service
func NewGalleryService(repo Repository[models.GalleryItem], deps AttachmentDeps) *ResourceService[models.GalleryItem] {
	return newResourceService("gallery item", repo, deps,
		func(g *models.GalleryItem) *models.Record { return &g.Record },
		[]attachment.Slot[models.GalleryItem]{
			{Field: "media", Required: true, Ref: func(g *models.GalleryItem) **attachment.Reference { return &g.Media }},
		},
		nil,
	)
}

// NewTimetableService creates the timetable service
func NewTimetableService(repo Repository[models.Timetable], deps AttachmentDeps) *ResourceService[models.Timetable] {
	return newResourceService("timetable", repo, deps,
		func(t *models.Timetable) *models.Record { return &t.Record },
		[]attachment.Slot[models.Timetable]{
			{Field: "media", Required: true, Ref: func(t *models.Timetable) **attachment.Reference { return &t.Media }},
		},
		func(t *models.Timetable) error {
			if err := checkSemester(t.Semester); err != nil {
				return err
			}
			return checkAcademicYear(t.AcademicYear)
		},
	)
}

// NewAcademicResourceService creates the academic resource service
func NewAcademicResourceService(repo Repository[models.AcademicResource], deps AttachmentDeps) *ResourceService[models.AcademicResource] {
	return newResourceService("academic resource", repo, deps,
		func(a *models.AcademicResource) *models.Record { return &a.Record },
		[]attachment.Slot[models.AcademicResource]{
			{Field: "document", Required: true, Ref: func(a *models.AcademicResource) **attachment.Reference { return &a.Document }},
		},
		func(a *models.AcademicResource) error {
			return checkSemester(a.Semester)
		},
	)
}

// NewAlumniService creates the alumni service
func NewAlumniService(repo Repository[models.Alumni], deps AttachmentDeps) *ResourceService[models.Alumni] {
	return newResourceService("alumni", repo, deps,
		func(a *models.Alumni) *models.Record { return &a.Record },
		[]attachment.Slot[models.Alumni]{
			{Field: "photo", Required: true, Ref: func(a *models.Alumni) **attachment.Reference { return &a.Photo }},
		},
		func(a *models.Alumni) error {
			return checkName("name", a.Name)
		},
	)
}

// NewMentorMenteeService creates the mentor-mentee service
func NewMentorMenteeService(repo Repository[models.MentorMentee], deps AttachmentDeps) *ResourceService[models.MentorMentee] {
	return newResourceService("mentor-mentee record", repo, deps,
		func(m *models.MentorMentee) *models.Record { return &m.Record },
		[]attachment.Slot[models.MentorMentee]{
			{Field: "document", Required: true, Ref: func(m *models.MentorMentee) **attachment.Reference { return &m.Document }},
		},
		func(m *models.MentorMentee) error {
			if err := checkName("mentorName", m.MentorName); err != nil {
				return err
			}
			if err := checkSemester(m.Semester); err != nil {
				return err
			}
			return checkAcademicYear(m.AcademicYear)
		},
	)
}

// NewAchievementService creates the achievement service
func NewAchievementService(repo Repository[models.Achievement], deps AttachmentDeps) *ResourceService[models.Achievement] {
	return newResourceService("achievement", repo, deps,
		func(a *models.Achievement) *models.Record { return &a.Record },
		[]attachment.Slot[models.Achievement]{
			{Field: "image", Ref: func(a *models.Achievement) **attachment.Reference { return &a.Image }},
			{Field: "proof", Ref: func(a *models.Achievement) **attachment.Reference { return &a.Proof }},
		},
		nil,
	)
}

func checkName(field, value string) error {
	ok := validation.NewStringValidation(value).
		WithMinLength(validation.NameMinLength).
		WithMaxLength(validation.NameMaxLength).
		Validate()
	if !ok {
		return apperrors.NewValidationError(field, fmt.Sprintf("%s must be between %d and %d characters",
			field, validation.NameMinLength, validation.NameMaxLength))
	}
	return nil
}

func checkSemester(value string) error {
	if !validation.IsSemester(value) {
		return apperrors.NewValidationError("semester", "semester must be a number from 1 to 12")
	}
	return nil
}

func checkAcademicYear(value string) error {
	if !validation.IsAcademicYear(value) {
		return apperrors.NewValidationError("academicYear", "academicYear must look like 2025-26")
	}
	return nil
}
