package masters

import (
	"context"

	"github.com/dmitrijs2005/absensi/internal/server/models"
)

// Repository stores the master tables. Upserts only win over a stored row
// whose updatedAt is not newer; they report whether the row was written.
type Repository interface {
	UpsertStudent(ctx context.Context, s models.Student) (bool, error)
	UpsertTeacher(ctx context.Context, t models.Teacher) (bool, error)
	UpsertSubject(ctx context.Context, s models.Subject) (bool, error)

	ListStudents(ctx context.Context) ([]models.Student, error)
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
}
