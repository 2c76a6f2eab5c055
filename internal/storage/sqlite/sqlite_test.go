package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/search"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a fresh database file and closes it when the
// test completes.
func setupTestStore(t *testing.T) *SQLite {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.Path = filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(cfg)
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func student(roll, name, father string) types.Student {
	return types.Student{
		RollNumber: roll,
		Name:       name,
		FatherName: father,
		Address:    "Hyderabad",
		Age:        19,
		Phone:      "9876543210",
		Email:      "student@example.com",
	}
}

func seed(t *testing.T, s *SQLite, students ...types.Student) []string {
	t.Helper()
	ids := make([]string, 0, len(students))
	for _, st := range students {
		id, err := s.CreateStudent(context.Background(), st)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func names(students []types.Student) []string {
	out := make([]string, 0, len(students))
	for _, st := range students {
		out = append(out, st.Name)
	}
	return out
}

func find(t *testing.T, s *SQLite, c search.Criteria) []types.Student {
	t.Helper()
	found, err := s.SearchStudents(context.Background(), search.Build(c))
	require.NoError(t, err)
	return found
}

func TestCreateStudent_RoundTrip(t *testing.T) {
	s := setupTestStore(t)

	rank := 1520.5
	marks := 9.5
	in := student("21A45", "Anil Sharma", "Ravi Sharma")
	in.EamcetRank = &rank
	in.SSCMarks = &marks
	in.BloodGroup = "O+"

	ids := seed(t, s, in)

	found := find(t, s, search.Criteria{})
	require.Len(t, found, 1)
	got := found[0]
	assert.Equal(t, ids[0], got.ID)
	assert.Equal(t, "21A45", got.RollNumber)
	assert.Equal(t, 19, got.Age)
	require.NotNil(t, got.EamcetRank)
	assert.InDelta(t, 1520.5, *got.EamcetRank, 1e-9)
	require.NotNil(t, got.SSCMarks)
	assert.InDelta(t, 9.5, *got.SSCMarks, 1e-9)
	assert.Nil(t, got.InterMarks)
	assert.Equal(t, "O+", got.BloodGroup)
	assert.Empty(t, got.Achievements)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestCreateStudent_DistinctIDsAndDuplicatesAllowed(t *testing.T) {
	s := setupTestStore(t)

	ids := seed(t, s,
		student("45", "Anil", "Ravi"),
		student("45", "Anil", "Ravi"),
		student("45", "Anil", "Ravi"),
	)

	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
	assert.NotEqual(t, ids[0], ids[2])
	assert.Len(t, find(t, s, search.Criteria{}), 3)
}

func TestSearchStudents_AllNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s,
		student("1", "First", "A"),
		student("2", "Second", "B"),
		student("3", "Third", "C"),
	)

	assert.Equal(t, []string{"Third", "Second", "First"}, names(find(t, s, search.Criteria{})))
}

func TestSearchStudents_EmptyStore(t *testing.T) {
	s := setupTestStore(t)

	found := find(t, s, search.Criteria{Name: "anyone"})
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestSearchStudents_NameCaseInsensitiveSubstring(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s,
		student("1", "Anil Sharma", "X"),
		student("2", "Ravi Kumar", "Y"),
		student("3", "sharma Devi", "Z"),
		student("4", "ŞARMA Ünal", "W"),
	)

	assert.Equal(t, []string{"sharma Devi", "Anil Sharma"},
		names(find(t, s, search.Criteria{Name: "Sharma"})))
	assert.Equal(t, []string{"ŞARMA Ünal"},
		names(find(t, s, search.Criteria{Name: "şarma ü"})))
}

func TestSearchStudents_MultipleCriteriaAreUnion(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s,
		student("1", "Ravi Teja", "Suresh"),
		student("2", "Anil", "Kumar Rao"),
		student("3", "Ravi Kiran", "Kumar"),
		student("4", "Neither", "Nobody"),
	)

	found := find(t, s, search.Criteria{Name: "Ravi", FatherName: "Kumar"})
	assert.Equal(t, []string{"Ravi Kiran", "Anil", "Ravi Teja"}, names(found))
}

func TestSearchStudents_IDMatchesNumberOrSubstring(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s,
		student("45", "Exact", "A"),
		student("045", "Padded", "B"),
		student("21A45B", "Embedded", "C"),
		student("4.5e1", "Scientific", "D"),
		student(" 4.5e1\t", "Spaced", "E"),
		student("46", "Other", "F"),
	)

	found := find(t, s, search.Criteria{ID: "45"})
	assert.ElementsMatch(t, []string{"Exact", "Padded", "Embedded", "Scientific", "Spaced"}, names(found))
}

func TestSearchStudents_NonNumericIDIsSubstringOnly(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s,
		student("21a45", "Lower", "A"),
		student("99", "Other", "B"),
	)

	assert.Equal(t, []string{"Lower"}, names(find(t, s, search.Criteria{ID: "A4"})))
}

func TestSearchStudents_LiteralSubstring(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s,
		student("1", "50% off", "A"),
		student("2", "500 off", "B"),
	)

	assert.Equal(t, []string{"50% off"}, names(find(t, s, search.Criteria{Name: "0%"})))
}

func TestSearchStudents_UnknownField(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.SearchStudents(context.Background(), search.Query{
		Conditions: []search.Condition{{Field: "address", Kind: search.Contains, Text: "x"}},
	})
	require.Error(t, err)
}

func TestEnsureIndexes_Idempotent(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.EnsureIndexes(context.Background()))
	require.NoError(t, s.EnsureIndexes(context.Background()))

	rows, err := s.Db.Query(`SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_students_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		got = append(got, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{
		"idx_students_email",
		"idx_students_father_name",
		"idx_students_name",
		"idx_students_roll_number",
	}, got)
}

func TestCreateStudent_StorageErrorIsWrapped(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Db.Exec("DROP TABLE students")
	require.NoError(t, err)

	_, err = s.CreateStudent(context.Background(), student("1", "A", "B"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CreateStudent")
}
