package student

import "errors"

var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrInvalidStudentID = errors.New("invalid student id")
)
