// Package student contains the HTTP handlers for the Student resource.
//
// Handlers are built by factory functions that receive their
// dependencies and return a closure with the signature the router needs:
//
//	router.HandleFunc("POST /api/students", student.New(storage))
//
// New(storage) runs once at startup; the returned function runs on
// every request.
//
// Pages are HTML by default. A client sending Accept: application/json
// receives JSON instead.
package student

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-registry/internal/registration"
	"github.com/aanand-mishra/student-registry/internal/render"
	"github.com/aanand-mishra/student-registry/internal/search"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Creates a student from a form-encoded, multipart or JSON body.
//
// Responses:
//
//	200 OK           "Student saved (ID: …)" page (201 {"id": …} for JSON)
//	400 Bad Request  undecodable body, missing required field, bad number
//	500 Internal     storage failure, message included
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		values, err := formValues(w, r)
		if err != nil {
			slog.Warn("cannot decode student", slog.String("error", err.Error()))
			writeError(w, r, http.StatusBadRequest, render.ErrorPage{
				Title:  "Invalid submission",
				Detail: err.Error(),
			}, err)
			return
		}

		student, err := registration.Parse(values)
		if err != nil {
			var missing *registration.ValidationError
			var number *registration.NumberError
			switch {
			case errors.As(err, &missing):
				writeError(w, r, http.StatusBadRequest, render.ErrorPage{
					Title:  missing.Error(),
					Detail: "All fields marked with * are required.",
				}, err)
			case errors.As(err, &number):
				writeError(w, r, http.StatusBadRequest, render.ErrorPage{
					Title:  number.Error(),
					Detail: "Age, ranks and marks must be numbers.",
				}, err)
			default:
				writeError(w, r, http.StatusInternalServerError, render.ErrorPage{
					Title:  "Error saving student",
					Detail: err.Error(),
				}, err)
			}
			slog.Info("student rejected", slog.String("reason", err.Error()))
			return
		}

		// A dispatched write runs to completion even if the client goes
		// away; the store's own timeout bounds it.
		id, err := storage.CreateStudent(context.WithoutCancel(r.Context()), student)
		if err != nil {
			slog.Error("error saving student", slog.String("error", err.Error()))
			writeError(w, r, http.StatusInternalServerError, render.ErrorPage{
				Title:  "Error saving student",
				Detail: err.Error(),
			}, err)
			return
		}

		slog.Info("student created", slog.String("id", id))

		if response.WantsJSON(r) {
			response.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
			return
		}

		page, err := render.Saved(id)
		if err != nil {
			renderFailed(w, err)
			return
		}
		response.WriteHTML(w, http.StatusOK, page)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Search handles GET /api/students
// Query parameters id, name, father_name and roll_number are optional.
// A record matches when it satisfies ANY supplied parameter; with none,
// every record is listed. Newest records come first.
//
// Responses:
//
//	200 OK        results page, or the "no results" message
//	500 Internal  storage failure, message included
//
// ─────────────────────────────────────────────────────────────────────────────
func Search(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		criteria := search.Criteria{
			ID:         params.Get("id"),
			Name:       params.Get("name"),
			FatherName: params.Get("father_name"),
			RollNumber: params.Get("roll_number"),
		}
		query := search.Build(criteria)

		slog.Info("searching students",
			slog.String("id", criteria.ID),
			slog.String("name", criteria.Name),
			slog.String("father_name", criteria.FatherName),
			slog.String("roll_number", criteria.RollNumber),
			slog.Int("conditions", len(query.Conditions)),
		)

		students, err := storage.SearchStudents(context.WithoutCancel(r.Context()), query)
		if err != nil {
			slog.Error("error searching students", slog.String("error", err.Error()))
			writeError(w, r, http.StatusInternalServerError, render.ErrorPage{
				Title:     "Search Error",
				Detail:    "Error: " + err.Error(),
				BackURL:   "/search.html",
				BackLabel: "Back to Search",
			}, err)
			return
		}

		slog.Info("students found", slog.Int("count", len(students)))

		if response.WantsJSON(r) {
			response.WriteJSON(w, http.StatusOK, students)
			return
		}

		page, err := render.Results(students)
		if err != nil {
			renderFailed(w, err)
			return
		}
		response.WriteHTML(w, http.StatusOK, page)
	}
}

// writeError sends err as an error page, or as the JSON envelope when
// the client asked for JSON.
func writeError(w http.ResponseWriter, r *http.Request, status int, page render.ErrorPage, err error) {
	if response.WantsJSON(r) {
		response.WriteJSON(w, status, response.GeneralError(err))
		return
	}

	html, rerr := render.Error(page)
	if rerr != nil {
		renderFailed(w, rerr)
		return
	}
	response.WriteHTML(w, status, html)
}

func renderFailed(w http.ResponseWriter, err error) {
	slog.Error("cannot render page", slog.String("error", err.Error()))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
