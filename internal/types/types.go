// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, rendering and validation can all import types
// without depending on each other.
package types

import "time"

// Student represents one registration record.
//
// Required text fields are always non-empty once a record has passed
// registration.Validate. Optional text fields use "" for "not provided";
// optional numeric fields use nil pointers so that "absent" and "zero"
// stay distinguishable in storage.
type Student struct {
	ID         string `json:"id"`
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	FatherName string `json:"father_name"`
	Address    string `json:"address"`
	Age        int    `json:"age"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`

	FatherPhone        string   `json:"father_phone,omitempty"`
	FatherEmail        string   `json:"father_email,omitempty"`
	EamcetRank         *float64 `json:"eamcet_rank,omitempty"`
	SSCMarks           *float64 `json:"ssc_marks,omitempty"`
	InterMarks         *float64 `json:"inter_marks,omitempty"`
	Achievements       string   `json:"achievements,omitempty"`
	Remarks            string   `json:"remarks,omitempty"`
	IdentificationMark string   `json:"identification_mark,omitempty"`
	BloodGroup         string   `json:"blood_group,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Field names shared by the HTTP form, the search criteria and both
// storage backends (SQLite column names, MongoDB document keys).
const (
	FieldRollNumber = "roll_number"
	FieldName       = "name"
	FieldFatherName = "father_name"
	FieldEmail      = "email"
)

// StudentIndexes lists the fields indexed for lookup. None of them is
// unique: duplicate roll numbers and emails are accepted.
var StudentIndexes = []string{
	FieldName,
	FieldFatherName,
	FieldEmail,
	FieldRollNumber,
}
