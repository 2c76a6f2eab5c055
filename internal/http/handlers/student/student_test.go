package student

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/aanand-mishra/student-registry/internal/search"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStorage keeps records in memory, newest last, and can be told to fail.
type fakeStorage struct {
	mu        sync.Mutex
	students  []types.Student
	lastQuery search.Query
	err       error
}

func (f *fakeStorage) CreateStudent(_ context.Context, s types.Student) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	s.ID = fmt.Sprintf("id-%d", len(f.students)+1)
	f.students = append(f.students, s)
	return s.ID, nil
}

func (f *fakeStorage) SearchStudents(_ context.Context, q search.Query) ([]types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.Student, 0, len(f.students))
	for i := len(f.students) - 1; i >= 0; i-- {
		out = append(out, f.students[i])
	}
	return out, nil
}

func (f *fakeStorage) EnsureIndexes(context.Context) error { return f.err }
func (f *fakeStorage) Close(context.Context) error         { return nil }

func validForm() url.Values {
	return url.Values{
		"roll_number": {"21A45"},
		"name":        {"Anil Sharma"},
		"father_name": {"Ravi Sharma"},
		"address":     {"12 MG Road"},
		"age":         {"19"},
		"phone":       {"9876543210"},
		"email":       {"anil@example.com"},
	}
}

func postForm(t *testing.T, h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestNew_FormCreatesStudent(t *testing.T) {
	store := &fakeStorage{}
	rec := postForm(t, New(store), validForm())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Student saved (ID: id-1)")
	require.Len(t, store.students, 1)
	assert.Equal(t, 19, store.students[0].Age)
}

func TestNew_MissingFieldPersistsNothing(t *testing.T) {
	for _, field := range []string{"roll_number", "name", "father_name", "address", "age", "phone", "email"} {
		t.Run(field, func(t *testing.T) {
			store := &fakeStorage{}
			form := validForm()
			form.Del(field)

			rec := postForm(t, New(store), form)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Missing required field: "+field)
			assert.Empty(t, store.students)
		})
	}
}

func TestNew_NonNumericAgeRejected(t *testing.T) {
	store := &fakeStorage{}
	form := validForm()
	form.Set("age", "nineteen")

	rec := postForm(t, New(store), form)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid number in field age")
	assert.Empty(t, store.students)
}

func TestNew_StorageFailure(t *testing.T) {
	store := &fakeStorage{err: errors.New("connection refused")}
	rec := postForm(t, New(store), validForm())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error saving student")
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestNew_Multipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, vs := range validForm() {
		require.NoError(t, mw.WriteField(key, vs[0]))
	}
	require.NoError(t, mw.WriteField("blood_group", "B+"))
	require.NoError(t, mw.Close())

	store := &fakeStorage{}
	req := httptest.NewRequest(http.MethodPost, "/api/students", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	New(store)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.students, 1)
	assert.Equal(t, "B+", store.students[0].BloodGroup)
}

func TestNew_JSON(t *testing.T) {
	store := &fakeStorage{}
	payload := `{"roll_number":"45","name":"Anil","father_name":"Ravi","address":"Road",
		"age":19,"phone":"98","email":"a@b.c","ssc_marks":9.5,"remarks":null}`
	req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	New(store)(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"id-1"}`, rec.Body.String())
	require.Len(t, store.students, 1)
	require.NotNil(t, store.students[0].SSCMarks)
	assert.InDelta(t, 9.5, *store.students[0].SSCMarks, 1e-9)
}

func TestNew_EmptyJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	New(&fakeStorage{})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":"request body is empty"}`, rec.Body.String())
}

func TestNew_JSONRejectsNestedValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(`{"name":{"first":"A"}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	New(&fakeStorage{})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNew_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	store := &fakeStorage{}
	h := New(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			postForm(t, h, validForm())
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, s := range store.students {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
	assert.Len(t, seen, 20)
}

func get(h http.HandlerFunc, target string, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestSearch_BuildsQueryFromParams(t *testing.T) {
	store := &fakeStorage{}
	rec := get(Search(store), "/api/students?name=Ravi&father_name=Kumar&id=+&roll_number=", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, search.Build(search.Criteria{Name: "Ravi", FatherName: "Kumar"}), store.lastQuery)
}

func TestSearch_NoResults(t *testing.T) {
	rec := get(Search(&fakeStorage{}), "/api/students", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No student records found")
}

func TestSearch_RendersEscapedResults(t *testing.T) {
	store := &fakeStorage{students: []types.Student{
		{ID: "a", Name: "<script>alert(1)</script>", RollNumber: "1", Age: 19},
		{ID: "b", Name: "Second", RollNumber: "2", Age: 20},
	}}

	rec := get(Search(store), "/api/students", "")
	body := rec.Body.String()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Found 2 student(s)")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, body, "<script>")
	assert.Less(t, strings.Index(body, "Record #b"), strings.Index(body, "Record #a"))
}

func TestSearch_JSON(t *testing.T) {
	store := &fakeStorage{students: []types.Student{{ID: "a", Name: "Anil"}}}
	rec := get(Search(store), "/api/students", "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Anil", got[0].Name)
}

func TestSearch_StorageFailure(t *testing.T) {
	store := &fakeStorage{err: errors.New("server selection timeout")}
	rec := get(Search(store), "/api/students?name=x", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Search Error")
	assert.Contains(t, rec.Body.String(), "Error: server selection timeout")
	assert.Contains(t, rec.Body.String(), `href="/search.html"`)
}
