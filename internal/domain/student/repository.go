package student

import "context"

// StudentRepository reads students from the portal database.
type StudentRepository interface {
	// GetByID retrieves a student, returning ErrStudentNotFound when absent
	GetByID(ctx context.Context, id string) (Student, error)

	// ListActive returns every active student, ordered by roll number
	ListActive(ctx context.Context) ([]Student, error)
}
