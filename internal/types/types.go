// Package types holds the data structures shared by the storage and
// command layers. Keeping them here prevents import cycles: the CLI and
// every storage backend import types without depending on each other.
package types

import (
	"fmt"
	"time"
)

// DateLayout is the only accepted format for enrollment dates.
const DateLayout = "2006-01-02"

// Student is one row of the students table.
//
// The db:"..." tags are read by sqlx when scanning rows, so the column
// names only live here and in the SQL text.
type Student struct {
	ID             int64      `db:"student_id"      json:"student_id"`
	FirstName      string     `db:"first_name"      json:"first_name"`
	LastName       string     `db:"last_name"       json:"last_name"`
	Email          string     `db:"email"           json:"email"`
	EnrollmentDate *time.Time `db:"enrollment_date" json:"enrollment_date,omitempty"`
}

// Enrolled returns the enrollment date formatted with DateLayout, or an
// empty string when the student has none.
func (s Student) Enrolled() string {
	if s.EnrollmentDate == nil {
		return ""
	}
	return s.EnrollmentDate.Format(DateLayout)
}

// NewStudent is the input of the add command.
//
// validate:"..." tags are checked by go-playground/validator before the
// store is contacted. flag:"..." names the command-line flag a field came
// from so validation messages talk about --first rather than FirstName.
//
// Email is only checked for presence. Its format is whatever the store
// accepts, and uniqueness is the store's job too.
type NewStudent struct {
	FirstName      string `flag:"first" validate:"required"`
	LastName       string `flag:"last"  validate:"required"`
	Email          string `flag:"email" validate:"required"`
	EnrollmentDate string `flag:"date"  validate:"omitempty,datetime=2006-01-02"`
}

// Student converts validated input into a Student without an ID.
func (n NewStudent) Student() (Student, error) {
	s := Student{
		FirstName: n.FirstName,
		LastName:  n.LastName,
		Email:     n.Email,
	}
	if n.EnrollmentDate != "" {
		d, err := time.Parse(DateLayout, n.EnrollmentDate)
		if err != nil {
			return Student{}, fmt.Errorf("invalid date %q: %w", n.EnrollmentDate, err)
		}
		s.EnrollmentDate = &d
	}
	return s, nil
}

// EmailUpdate is the input of the update-email command.
type EmailUpdate struct {
	ID    int64  `flag:"id"`
	Email string `flag:"email" validate:"required"`
}
