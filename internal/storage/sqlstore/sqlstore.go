// Package sqlstore implements storage.Storage over database/sql using sqlx.
//
// One Store talks to one of the supported drivers (postgres, sqlite3,
// mysql, sqlserver). Statements are written once with ? placeholders and
// rebound to the driver's style. The handle is capped at a single open
// connection and every method runs its statement in its own transaction,
// so a command acquires one connection, executes one statement, commits
// and releases.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/students/internal/config"
	"github.com/aanand-mishra/students/internal/storage"
	"github.com/aanand-mishra/students/internal/types"
)

const (
	selectAll  = "SELECT student_id, first_name, last_name, email, enrollment_date FROM students ORDER BY student_id"
	selectByID = "SELECT student_id, first_name, last_name, email, enrollment_date FROM students WHERE student_id = ?"
	updateMail = "UPDATE students SET email = ? WHERE student_id = ?"
	deleteByID = "DELETE FROM students WHERE student_id = ?"
)

// Store is the SQL implementation of storage.Storage.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	log     *slog.Logger
}

var _ storage.Storage = (*Store)(nil)

// Open connects to the database described by cfg and verifies the
// connection with a ping. Connection errors are returned as the driver
// reported them.
//
// sql.Open only validates its arguments, so without the ping a wrong host
// or password would surface on the first statement instead. The pool is
// limited to one connection: a command never needs more, and it keeps
// SQLite from opening a second writer on the same file.
func Open(ctx context.Context, cfg config.Database, log *slog.Logger) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driver, d.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.driver, err)
	}

	log.Debug("connected", slog.String("driver", d.driver))
	return &Store{db: db, dialect: d, log: log}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction and commits if it returns nil. The
// deferred rollback releases the connection on every error path and is a
// no-op after a successful commit.
//
// Every Store method goes through inTx, including reads, so each command
// is exactly begin, one statement, commit. op prefixes begin and commit
// errors; fn wraps its own statement errors.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// constraint maps a unique violation on students.email to
// storage.ErrDuplicateEmail, keeping the driver's message.
func (s *Store) constraint(err error) error {
	if s.dialect.unique(err) {
		return fmt.Errorf("%w: %v", storage.ErrDuplicateEmail, err)
	}
	return err
}

// CreateSchema runs the driver's CREATE TABLE IF NOT EXISTS statement.
func (s *Store) CreateSchema(ctx context.Context) error {
	ddl, err := s.dialect.schema()
	if err != nil {
		return err
	}
	s.log.Debug("creating schema", slog.String("driver", s.dialect.driver))
	return s.inTx(ctx, "CreateSchema", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("CreateSchema: exec: %w", err)
		}
		return nil
	})
}

// Seed inserts John Doe, Jane Smith and Jim Beam in one statement.
func (s *Store) Seed(ctx context.Context) error {
	seed, err := seedSQL()
	if err != nil {
		return err
	}
	s.log.Debug("seeding students")
	return s.inTx(ctx, "Seed", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, seed); err != nil {
			return fmt.Errorf("Seed: exec: %w", s.constraint(err))
		}
		return nil
	})
}

// CreateStudent inserts a row and returns the generated student_id.
func (s *Store) CreateStudent(ctx context.Context, student types.Student) (int64, error) {
	query := s.dialect.rebind(s.dialect.insert)
	args := []any{student.FirstName, student.LastName, student.Email, student.EnrollmentDate}

	var id int64
	err := s.inTx(ctx, "CreateStudent", func(tx *sqlx.Tx) error {
		if s.dialect.returning {
			if err := tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
				return fmt.Errorf("CreateStudent: insert: %w", s.constraint(err))
			}
			return nil
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("CreateStudent: insert: %w", s.constraint(err))
		}
		if id, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("CreateStudent: last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("student created", slog.Int64("id", id))
	return id, nil
}

// GetStudentByID fetches exactly one student.
func (s *Store) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	if !s.dialect.holds(id) {
		return types.Student{}, fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
	}
	var student types.Student
	err := s.inTx(ctx, "GetStudentByID", func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &student, s.dialect.rebind(selectByID), id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("GetStudentByID: query: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}
	return student, nil
}

// GetStudents returns all students ordered by id.
func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	students := make([]types.Student, 0)
	err := s.inTx(ctx, "GetStudents", func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &students, selectAll); err != nil {
			return fmt.Errorf("GetStudents: query: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return students, nil
}

// UpdateStudentEmail changes one student's email. An id outside the
// column's range matches nothing and is reported as 0 rows without a
// round trip.
func (s *Store) UpdateStudentEmail(ctx context.Context, id int64, email string) (int64, error) {
	if !s.dialect.holds(id) {
		return 0, nil
	}
	return s.execAffected(ctx, "UpdateStudentEmail", s.dialect.rebind(updateMail), email, id)
}

// DeleteStudentByID removes one student.
func (s *Store) DeleteStudentByID(ctx context.Context, id int64) (int64, error) {
	if !s.dialect.holds(id) {
		return 0, nil
	}
	return s.execAffected(ctx, "DeleteStudentByID", s.dialect.rebind(deleteByID), id)
}

// execAffected runs an UPDATE or DELETE and returns the driver's affected
// row count. A unique violation is mapped through constraint so an email
// update can fail with storage.ErrDuplicateEmail.
func (s *Store) execAffected(ctx context.Context, op, query string, args ...any) (int64, error) {
	var affected int64
	err := s.inTx(ctx, op, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s: exec: %w", op, s.constraint(err))
		}
		if affected, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("%s: rows affected: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("statement executed", slog.String("op", op), slog.Int64("affected", affected))
	return affected, nil
}
