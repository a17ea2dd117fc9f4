// Package storage defines the contract between the command layer and the
// relational store holding the students table.
//
// Commands depend only on this interface, so tests and alternative
// backends can stand in for the SQL implementation in sqlstore.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/students/internal/types"
)

var (
	// ErrNotFound is returned when a lookup by id matches no row.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicateEmail wraps the store's unique-constraint violation on
	// students.email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// Storage is the database contract. Every method executes exactly one
// statement in its own transaction.
type Storage interface {
	// CreateSchema creates the students table if it does not exist.
	CreateSchema(ctx context.Context) error

	// Seed inserts the three fixed seed rows. Running it twice fails with
	// ErrDuplicateEmail.
	Seed(ctx context.Context) error

	// CreateStudent inserts a new student and returns the id the store
	// assigned. student.ID is ignored.
	CreateStudent(ctx context.Context, student types.Student) (int64, error)

	// GetStudentByID fetches one student, or ErrNotFound.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// GetStudents returns every student. The slice is empty, not nil, when
	// the table is empty.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentEmail sets the email of one student and returns the
	// number of rows affected. Zero means no such id; it is not an error.
	UpdateStudentEmail(ctx context.Context, id int64, email string) (int64, error)

	// DeleteStudentByID removes one student and returns the number of rows
	// affected. Zero means no such id; it is not an error.
	DeleteStudentByID(ctx context.Context, id int64) (int64, error)

	// Close releases the connection.
	Close() error
}
