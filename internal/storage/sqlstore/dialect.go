package sqlstore

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/aanand-mishra/students/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// dialect captures what differs between the supported stores: the DSN
// format, placeholder style, DDL, how the generated key comes back from an
// insert and how a unique violation is reported.
//
// driver doubles as the database/sql driver name, the sqlx bind type and
// the name of the embedded schema file, so adding a store means adding an
// entry to dialects and a schema/<driver>.sql file.
type dialect struct {
	driver string

	// insert is the INSERT text written with ? placeholders. When
	// returning is false the id is read with LastInsertId instead.
	insert    string
	returning bool

	// maxID is the largest value the student_id column can hold. Postgres
	// SERIAL, MySQL INT and SQL Server INT are 32-bit; comparing them with
	// a larger parameter is a type error rather than an empty match.
	maxID int64

	dsn    func(config.Database) string
	unique func(error) bool
}

const insertColumns = "INSERT INTO students (first_name, last_name, email, enrollment_date)"

// dialects is keyed by config.Database.Driver.
var dialects = map[string]dialect{
	"postgres": {
		driver:    "postgres",
		insert:    insertColumns + " VALUES (?, ?, ?, ?) RETURNING student_id",
		returning: true,
		maxID:     math.MaxInt32,
		dsn:       postgresDSN,
		unique: func(err error) bool {
			var pqErr *pq.Error
			return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
		},
	},
	"sqlite3": {
		driver:    "sqlite3",
		insert:    insertColumns + " VALUES (?, ?, ?, ?) RETURNING student_id",
		returning: true,
		maxID:     math.MaxInt64,
		dsn:       func(d config.Database) string { return d.Path },
		unique: func(err error) bool {
			var sqErr sqlite3.Error
			return errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique
		},
	},
	"mysql": {
		driver: "mysql",
		insert: insertColumns + " VALUES (?, ?, ?, ?)",
		maxID:  math.MaxInt32,
		dsn:    mysqlDSN,
		unique: func(err error) bool {
			var myErr *mysql.MySQLError
			return errors.As(err, &myErr) && myErr.Number == 1062
		},
	},
	"sqlserver": {
		driver:    "sqlserver",
		insert:    insertColumns + " OUTPUT INSERTED.student_id VALUES (?, ?, ?, ?)",
		returning: true,
		maxID:     math.MaxInt32,
		dsn:       sqlserverDSN,
		unique: func(err error) bool {
			var msErr mssql.Error
			if errors.As(err, &msErr) {
				return msErr.Number == 2627 || msErr.Number == 2601
			}
			var msErrPtr *mssql.Error
			if errors.As(err, &msErrPtr) {
				return msErrPtr.Number == 2627 || msErrPtr.Number == 2601
			}
			return false
		},
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}

// holds reports whether id fits the student_id column. An id that does
// not fit cannot name a row.
func (d dialect) holds(id int64) bool {
	return id <= d.maxID && id >= -d.maxID-1
}

// rebind rewrites ? placeholders into the driver's native style.
func (d dialect) rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(d.driver), query)
}

func (d dialect) schema() (string, error) {
	b, err := schemaFS.ReadFile("schema/" + d.driver + ".sql")
	if err != nil {
		return "", fmt.Errorf("schema for %s: %w", d.driver, err)
	}
	return string(b), nil
}

func seedSQL() (string, error) {
	b, err := schemaFS.ReadFile("schema/seed.sql")
	if err != nil {
		return "", fmt.Errorf("seed: %w", err)
	}
	return string(b), nil
}

func postgresDSN(d config.Database) string {
	query := url.Values{}
	if d.SSLMode != "" {
		query.Set("sslmode", d.SSLMode)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

func mysqlDSN(d config.Database) string {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	cfg.DBName = d.Name
	// DATE columns scan into time.Time only with parseTime.
	cfg.ParseTime = true
	// Report matched rather than changed rows, so setting an email to its
	// current value still counts as found.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

func sqlserverDSN(d config.Database) string {
	query := url.Values{}
	query.Add("database", d.Name)
	query.Add("app name", "students")
	if d.SSLMode == "disable" {
		query.Add("encrypt", "disable")
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		RawQuery: query.Encode(),
	}
	return u.String()
}
