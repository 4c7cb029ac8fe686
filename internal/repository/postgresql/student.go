package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/student"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type studentRepository struct {
	db *database.DB
}

// GetByID implements student.StudentRepository.
func (s *studentRepository) GetByID(ctx context.Context, id string) (student.Student, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT id, full_name, roll_number, department, semester, is_active, created_at, updated_at
		FROM students
		WHERE id = $1
	`

	var st student.Student
	err := q.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.FullName, &st.RollNumber, &st.Department, &st.Semester,
		&st.IsActive, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, fmt.Errorf("failed to get student: %w", err)
	}

	return st, nil
}

// ListActive implements student.StudentRepository.
func (s *studentRepository) ListActive(ctx context.Context) ([]student.Student, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT id, full_name, roll_number, department, semester, is_active, created_at, updated_at
		FROM students
		WHERE is_active = TRUE
		ORDER BY roll_number ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := make([]student.Student, 0)
	for rows.Next() {
		var st student.Student
		err := rows.Scan(
			&st.ID, &st.FullName, &st.RollNumber, &st.Department, &st.Semester,
			&st.IsActive, &st.CreatedAt, &st.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return students, nil
}

func NewStudentRepository(db *database.DB) student.StudentRepository {
	return &studentRepository{db: db}
}
