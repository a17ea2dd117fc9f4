package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aanand-mishra/students/internal/config"
	"github.com/aanand-mishra/students/internal/storage"
	"github.com/aanand-mishra/students/internal/types"
)

// useSQLite points the configuration at a fresh SQLite file.
func useSQLite(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIG_PATH", "ENV", "LOG_FILE", "PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "students.db"))
}

type countingOpener struct {
	calls int
}

func (c *countingOpener) open(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	c.calls++
	return OpenSQL(ctx, cfg, log)
}

func run(t *testing.T, opener *countingOpener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(opener.open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, opener *countingOpener, args ...string) string {
	t.Helper()
	out, err := run(t, opener, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func setup(t *testing.T) *countingOpener {
	t.Helper()
	useSQLite(t)
	o := &countingOpener{}
	mustRun(t, o, "setup")
	return o
}

func TestUsageErrorsDoNotOpenStore(t *testing.T) {
	useSQLite(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{}},
		{"unknown command", []string{"drop-all"}},
		{"add missing email", []string{"add", "--first", "a", "--last", "b"}},
		{"add missing everything", []string{"add"}},
		{"add bad date", []string{"add", "--first", "a", "--last", "b", "--email", "a@b.com", "--date", "tomorrow"}},
		{"update missing id", []string{"update-email", "--email", "a@b.com"}},
		{"update non-integer id", []string{"update-email", "--id", "one", "--email", "a@b.com"}},
		{"delete missing id", []string{"delete"}},
		{"delete non-integer id", []string{"delete", "--id", "3.5"}},
		{"get-all extra args", []string{"get-all", "now"}},
		{"unknown flag", []string{"get-all", "--limit", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &countingOpener{}
			_, err := run(t, o, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := ExitCode(err); code != ExitUsage {
				t.Errorf("got exit code %d, want %d (%v)", code, ExitUsage, err)
			}
			if o.calls != 0 {
				t.Errorf("store opened %d times", o.calls)
			}
		})
	}
}

func TestGetAllSeeded(t *testing.T) {
	o := setup(t)
	out := mustRun(t, o, "get-all")
	for _, want := range []string{"John", "Doe", "jane.smith@example.com", "Jim", "2023-09-02"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGetAllEmpty(t *testing.T) {
	useSQLite(t)
	o := &countingOpener{}
	mustRun(t, o, "setup", "--no-seed")
	out := mustRun(t, o, "get-all")
	if !strings.Contains(out, "(no rows)") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSetupTwiceFails(t *testing.T) {
	o := setup(t)
	_, err := run(t, o, "setup")
	if !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
	if code := ExitCode(err); code != ExitFailure {
		t.Errorf("got exit code %d, want %d", code, ExitFailure)
	}
}

func TestAdd(t *testing.T) {
	o := setup(t)
	out := mustRun(t, o, "--list", "add", "--first", "Hussam", "--last", "Nabtiti",
		"--email", "hussam.nabtiti@example.com", "--date", "2023-09-04")
	if !strings.Contains(out, "Inserted student_id=4") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "2023-09-04") {
		t.Errorf("table not listed after add:\n%s", out)
	}
}

func TestAddWithoutList(t *testing.T) {
	o := setup(t)
	out := mustRun(t, o, "add", "--first", "a", "--last", "b", "--email", "a.b@example.com")
	if strings.TrimSpace(out) != "Inserted student_id=4" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestAddEmailFormatLeftToStore(t *testing.T) {
	o := setup(t)
	for i, email := range []string{"user@localhost", "x@[127.0.0.1]"} {
		out := mustRun(t, o, "add", "--first", "a", "--last", "b", "--email", email)
		want := fmt.Sprintf("Inserted student_id=%d", 4+i)
		if !strings.Contains(out, want) {
			t.Errorf("%s: got %q, want %q", email, out, want)
		}
	}
}

func TestAddDuplicateEmail(t *testing.T) {
	o := setup(t)
	_, err := run(t, o, "add", "--first", "J", "--last", "D", "--email", "john.doe@example.com")
	if !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
	if code := ExitCode(err); code != ExitFailure {
		t.Errorf("got exit code %d, want %d", code, ExitFailure)
	}
	out := mustRun(t, o, "get-all")
	if strings.Count(out, "@example.com") != 3 {
		t.Errorf("row count changed:\n%s", out)
	}
}

func TestUpdateEmail(t *testing.T) {
	o := setup(t)
	out := mustRun(t, o, "--list", "update-email", "--id", "1", "--email", "john.doe+updated@example.com")
	if !strings.Contains(out, "Rows updated: 1") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "john.doe+updated@example.com") {
		t.Errorf("table not updated:\n%s", out)
	}
}

func TestUpdateEmailNotFound(t *testing.T) {
	o := setup(t)
	out, err := run(t, o, "update-email", "--id", "99", "--email", "x@example.com")
	if code := ExitCode(err); code != ExitNotFound {
		t.Fatalf("got exit code %d, want %d (%v)", code, ExitNotFound, err)
	}
	if !strings.Contains(out, "Rows updated: 0") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDelete(t *testing.T) {
	o := setup(t)
	out := mustRun(t, o, "-l", "delete", "--id", "3")
	if !strings.Contains(out, "Rows deleted: 1") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "jim.beam@example.com") {
		t.Errorf("deleted row still listed:\n%s", out)
	}

	_, err := run(t, o, "delete", "--id", "3")
	if code := ExitCode(err); code != ExitNotFound {
		t.Errorf("got exit code %d, want %d (%v)", code, ExitNotFound, err)
	}
}

func TestGet(t *testing.T) {
	o := setup(t)
	out := mustRun(t, o, "get", "--id", "2")
	if !strings.Contains(out, "jane.smith@example.com") || strings.Contains(out, "john.doe@example.com") {
		t.Errorf("unexpected output:\n%s", out)
	}
	_, err := run(t, o, "get", "--id", "7")
	if code := ExitCode(err); code != ExitNotFound {
		t.Errorf("got exit code %d, want %d (%v)", code, ExitNotFound, err)
	}
}

func TestConnectionFailure(t *testing.T) {
	useSQLite(t)
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "missing", "dir", "students.db"))
	o := &countingOpener{}
	_, err := run(t, o, "get-all")
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := ExitCode(err); code != ExitFailure {
		t.Errorf("got exit code %d, want %d", code, ExitFailure)
	}
	if !strings.Contains(err.Error(), "connection failed") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestScenario(t *testing.T) {
	o := setup(t)
	mustRun(t, o, "add", "--first", "Hussam", "--last", "Nabtiti",
		"--email", "hussam.nabtiti@example.com", "--date", "2023-09-04")
	mustRun(t, o, "update-email", "--id", "1", "--email", "john.doe+updated@example.com")
	mustRun(t, o, "delete", "--id", "3")

	out := mustRun(t, o, "get-all")
	for _, want := range []string{"john.doe+updated@example.com", "jane.smith@example.com", "hussam.nabtiti@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "jim.beam@example.com") {
		t.Errorf("row 3 still present:\n%s", out)
	}
}

// brokenListStore deletes successfully but cannot list afterwards.
type brokenListStore struct {
	storage.Storage
	deleted []int64
}

func (s *brokenListStore) DeleteStudentByID(_ context.Context, id int64) (int64, error) {
	s.deleted = append(s.deleted, id)
	return 1, nil
}

func (s *brokenListStore) GetStudents(context.Context) ([]types.Student, error) {
	return nil, errors.New("connection reset")
}

func (s *brokenListStore) Close() error { return nil }

func TestListFailureAfterCommittedChange(t *testing.T) {
	useSQLite(t)
	st := &brokenListStore{}
	root := NewRootCommand(func(context.Context, *config.Config, *slog.Logger) (storage.Storage, error) {
		return st, nil
	})
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--list", "delete", "--id", "3"})

	if err := root.Execute(); err != nil {
		t.Fatalf("got %v (exit %d), want success", err, ExitCode(err))
	}
	if len(st.deleted) != 1 || st.deleted[0] != 3 {
		t.Errorf("deleted %v, want [3]", st.deleted)
	}
	if !strings.Contains(stdout.String(), "Rows deleted: 1") {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "connection reset") {
		t.Errorf("listing failure not reported: %q", stderr.String())
	}
}
