// Package render produces the HTML pages returned by the student
// handlers. Every function is a pure transform from data to markup.
//
// Pages are html/template files embedded in the binary, so every value
// taken from a record is escaped (& < > " ') before it reaches the page.
// Optional values that are missing, and numbers that are zero, render
// as "N/A".
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/aanand-mishra/student-registry/internal/types"
)

// Placeholder is shown for missing optional values.
const Placeholder = "N/A"

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(
	template.New("pages").Funcs(template.FuncMap{
		"text":  text,
		"int":   integer,
		"float": floatPtr,
	}).ParseFS(templateFS, "templates/*.html"),
)

func text(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func integer(v int) string {
	if v == 0 {
		return Placeholder
	}
	return strconv.Itoa(v)
}

func floatPtr(v *float64) string {
	if v == nil || *v == 0 {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ErrorPage describes a failed request.
type ErrorPage struct {
	Title     string
	Detail    string
	BackURL   string
	BackLabel string
}

// Results renders the search results page. An empty slice renders the
// "no results" message.
func Results(students []types.Student) (string, error) {
	return execute("results.html", struct{ Students []types.Student }{students})
}

// Saved renders the confirmation page for a newly created record.
func Saved(id string) (string, error) {
	return execute("saved.html", id)
}

// Error renders a styled error page.
func Error(page ErrorPage) (string, error) {
	if page.BackURL == "" {
		page.BackURL = "/register.html"
	}
	if page.BackLabel == "" {
		page.BackLabel = "Back"
	}
	return execute("error.html", page)
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
