// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver, which makes it the default backend.
//
// The package registers its own flavour of the go-sqlite3 driver that
// adds two SQL functions used by searches:
//
//	icontains(text, substr)  1 when substr is in text, ignoring case
//	numeq(text, number)      1 when text parses to number
//
// SQLite's built-in LIKE and lower() only fold ASCII, so case-insensitive
// matching is done in Go instead.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/search"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3_students"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("icontains", icontains, true); err != nil {
				return fmt.Errorf("register icontains: %w", err)
			}
			if err := conn.RegisterFunc("numeq", numeq, true); err != nil {
				return fmt.Errorf("register numeq: %w", err)
			}
			return nil
		},
	})
}

func icontains(text, substr string) int64 {
	if search.ContainsFold(text, substr) {
		return 1
	}
	return 0
}

func numeq(text string, number float64) int64 {
	if v, ok := search.ParseRollNumber(text); ok && v == number {
		return 1
	}
	return 0
}

// columns whitelists the fields a search condition may reference. The
// column name is interpolated into SQL, the value never is.
var columns = map[string]string{
	types.FieldRollNumber: "roll_number",
	types.FieldName:       "name",
	types.FieldFatherName: "father_name",
	types.FieldEmail:      "email",
}

// seq keeps insertion order; id is the opaque identifier handed to clients.
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
		id                  TEXT      NOT NULL UNIQUE,
		roll_number         TEXT      NOT NULL,
		name                TEXT      NOT NULL,
		father_name         TEXT      NOT NULL,
		address             TEXT      NOT NULL,
		age                 INTEGER   NOT NULL,
		phone               TEXT      NOT NULL,
		email               TEXT      NOT NULL,
		father_phone        TEXT      NOT NULL DEFAULT '',
		father_email        TEXT      NOT NULL DEFAULT '',
		eamcet_rank         REAL,
		ssc_marks           REAL,
		inter_marks         REAL,
		achievements        TEXT      NOT NULL DEFAULT '',
		remarks             TEXT      NOT NULL DEFAULT '',
		identification_mark TEXT      NOT NULL DEFAULT '',
		blood_group         TEXT      NOT NULL DEFAULT '',
		created_at          TIMESTAMP NOT NULL,
		updated_at          TIMESTAMP NOT NULL
	)
`

const selectColumns = `id, roll_number, name, father_name, address, age, phone, email,
	father_phone, father_email, eamcet_rank, ssc_marks, inter_marks,
	achievements, remarks, identification_mark, blood_group, created_at, updated_at`

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db      *sql.DB
	timeout time.Duration
}

// New opens the SQLite database at cfg.Storage.Path, creates the
// students table if it does not already exist, and returns a
// ready-to-use *SQLite. Indexes are left to EnsureIndexes.
func New(cfg *config.Config) (*SQLite, error) {
	path := cfg.Storage.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open(driverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent and safe to run on every
	// startup. If the table already exists nothing happens.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	timeout := cfg.Storage.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SQLite{Db: db, timeout: timeout}, nil
}

// dsn adds a busy timeout so concurrent writers wait for the file lock
// instead of failing immediately with SQLITE_BUSY.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

// CreateStudent inserts a new row and returns its generated id.
// Placeholders keep submitted text out of the SQL itself.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.Db.ExecContext(ctx, `
		INSERT INTO students (
			id, roll_number, name, father_name, address, age, phone, email,
			father_phone, father_email, eamcet_rank, ssc_marks, inter_marks,
			achievements, remarks, identification_mark, blood_group, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, student.RollNumber, student.Name, student.FatherName, student.Address,
		student.Age, student.Phone, student.Email,
		student.FatherPhone, student.FatherEmail,
		student.EamcetRank, student.SSCMarks, student.InterMarks,
		student.Achievements, student.Remarks, student.IdentificationMark, student.BloodGroup,
		now, now,
	)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return id, nil
}

// SearchStudents returns the rows matching any condition of q, newest
// first. An empty query returns every row.
func (s *SQLite) SearchStudents(ctx context.Context, q search.Query) ([]types.Student, error) {
	where, args, err := whereClause(q)
	if err != nil {
		return nil, fmt.Errorf("SearchStudents: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.Db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM students"+where+" ORDER BY seq DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("SearchStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var st types.Student
		if err := rows.Scan(
			&st.ID, &st.RollNumber, &st.Name, &st.FatherName, &st.Address,
			&st.Age, &st.Phone, &st.Email,
			&st.FatherPhone, &st.FatherEmail,
			&st.EamcetRank, &st.SSCMarks, &st.InterMarks,
			&st.Achievements, &st.Remarks, &st.IdentificationMark, &st.BloodGroup,
			&st.CreatedAt, &st.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("SearchStudents: scan row: %w", err)
		}
		students = append(students, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchStudents: rows iteration: %w", err)
	}

	return students, nil
}

// whereClause joins the query's conditions with OR.
func whereClause(q search.Query) (string, []any, error) {
	if q.MatchAll() {
		return "", nil, nil
	}

	parts := make([]string, 0, len(q.Conditions))
	args := make([]any, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		col, ok := columns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown search field %q", c.Field)
		}
		switch c.Kind {
		case search.Contains:
			parts = append(parts, "icontains("+col+", ?)")
			args = append(args, c.Text)
		case search.NumberEquals:
			parts = append(parts, "numeq("+col+", ?)")
			args = append(args, c.Number)
		default:
			return "", nil, fmt.Errorf("unknown condition kind %d", c.Kind)
		}
	}

	return " WHERE " + strings.Join(parts, " OR "), args, nil
}

// EnsureIndexes creates one non-unique index per declared field.
func (s *SQLite) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for _, field := range types.StudentIndexes {
		col, ok := columns[field]
		if !ok {
			return fmt.Errorf("EnsureIndexes: unknown field %q", field)
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_students_%s ON students (%s)", col, col)
		if _, err := s.Db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("EnsureIndexes: %s: %w", col, err)
		}
	}

	return nil
}

// Close closes the connection pool.
func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}
