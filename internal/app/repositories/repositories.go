package repositories

import (
	"github.com/deptcms/portal/internal/app/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	Faculty           *ResourceRepository[models.Faculty]
	Events            *ResourceRepository[models.Event]
	Notices           *ResourceRepository[models.Notice]
	Gallery           *ResourceRepository[models.GalleryItem]
	Timetables        *ResourceRepository[models.Timetable]
	AcademicResources *ResourceRepository[models.AcademicResource]
	Alumni            *ResourceRepository[models.Alumni]
	MentorMentee      *ResourceRepository[models.MentorMentee]
	Achievements      *ResourceRepository[models.Achievement]

	Admins  *AdminRepository
	Intents *IntentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Faculty:           NewResourceRepository(db, FacultySchema),
		Events:            NewResourceRepository(db, EventSchema),
		Notices:           NewResourceRepository(db, NoticeSchema),
		Gallery:           NewResourceRepository(db, GallerySchema),
		Timetables:        NewResourceRepository(db, TimetableSchema),
		AcademicResources: NewResourceRepository(db, AcademicResourceSchema),
		Alumni:            NewResourceRepository(db, AlumniSchema),
		MentorMentee:      NewResourceRepository(db, MentorMenteeSchema),
		Achievements:      NewResourceRepository(db, AchievementSchema),

		Admins:  NewAdminRepository(db),
		Intents: NewIntentRepository(db),
	}
}
