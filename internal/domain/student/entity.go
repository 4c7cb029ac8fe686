package student

import "time"

type Student struct {
	ID         string
	FullName   string
	RollNumber string
	Department *string
	Semester   *int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
