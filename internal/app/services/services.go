package services

import (
	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/app/repositories"
	"github.com/rs/zerolog"
)

// Services holds all the service instances
type Services struct {
	Faculty           *ResourceService[models.Faculty]
	Events            *ResourceService[models.Event]
	Notices           *ResourceService[models.Notice]
	Gallery           *ResourceService[models.GalleryItem]
	Timetables        *ResourceService[models.Timetable]
	AcademicResources *ResourceService[models.AcademicResource]
	Alumni            *ResourceService[models.Alumni]
	MentorMentee      *ResourceService[models.MentorMentee]
	Achievements      *ResourceService[models.Achievement]

	Auth *AuthService
}

// NewServices wires every service to its repository
func NewServices(repos *repositories.Repositories, deps AttachmentDeps, tokens TokenIssuer, logger zerolog.Logger) *Services {
	return &Services{
		Faculty:           NewFacultyService(repos.Faculty, deps),
		Events:            NewEventService(repos.Events, deps),
		Notices:           NewNoticeService(repos.Notices, deps),
		Gallery:           NewGalleryService(repos.Gallery, deps),
		Timetables:        NewTimetableService(repos.Timetables, deps),
		AcademicResources: NewAcademicResourceService(repos.AcademicResources, deps),
		Alumni:            NewAlumniService(repos.Alumni, deps),
		MentorMentee:      NewMentorMenteeService(repos.MentorMentee, deps),
		Achievements:      NewAchievementService(repos.Achievements, deps),

		Auth: NewAuthService(repos.Admins, tokens, logger.With().Str("service", "auth").Logger()),
	}
}
