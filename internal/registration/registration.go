// Package registration turns submitted form data into a typed student
// record. Everything here is pure: no I/O, no storage, no clock. The HTTP
// layer decodes a request into a Form, this package validates and coerces
// it, and the storage layer persists the resulting types.Student.
package registration

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/go-playground/validator/v10"
)

// Form is the data-transfer structure between request decoding and the
// storage-mapping layer. Every field is raw text exactly as submitted.
//
// The order of the required fields below is significant: when several
// are missing, the first one in this order is reported.
type Form struct {
	RollNumber string `form:"roll_number" validate:"required"`
	Name       string `form:"name"        validate:"required"`
	FatherName string `form:"father_name" validate:"required"`
	Address    string `form:"address"     validate:"required"`
	Age        string `form:"age"         validate:"required"`
	Phone      string `form:"phone"       validate:"required"`
	Email      string `form:"email"       validate:"required"`

	FatherPhone        string `form:"father_phone"`
	FatherEmail        string `form:"father_email"`
	EamcetRank         string `form:"eamcet_rank"`
	SSCMarks           string `form:"ssc_marks"`
	InterMarks         string `form:"inter_marks"`
	Achievements       string `form:"achievements"`
	Remarks            string `form:"remarks"`
	IdentificationMark string `form:"identification_mark"`
	BloodGroup         string `form:"blood_group"`
}

// RequiredFields lists the mandatory form keys in reporting order.
var RequiredFields = []string{
	"roll_number", "name", "father_name", "address", "age", "phone", "email",
}

// ValidationError reports the first required field that was missing or empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "Missing required field: " + e.Field
}

// validate is shared: validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their form key ("father_name") instead of the Go
	// field name ("FatherName").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// FormFromValues lifts untyped key/value data into a Form. Unknown keys
// are ignored.
func FormFromValues(values map[string]string) Form {
	return Form{
		RollNumber:         values["roll_number"],
		Name:               values["name"],
		FatherName:         values["father_name"],
		Address:            values["address"],
		Age:                values["age"],
		Phone:              values["phone"],
		Email:              values["email"],
		FatherPhone:        values["father_phone"],
		FatherEmail:        values["father_email"],
		EamcetRank:         values["eamcet_rank"],
		SSCMarks:           values["ssc_marks"],
		InterMarks:         values["inter_marks"],
		Achievements:       values["achievements"],
		Remarks:            values["remarks"],
		IdentificationMark: values["identification_mark"],
		BloodGroup:         values["blood_group"],
	}
}

// Validate checks that every required field is present and non-empty.
// No format checks (email shape, phone digits) are made. A whitespace-only
// age counts as missing; other required text is taken as submitted.
func Validate(form Form) error {
	form.Age = strings.TrimSpace(form.Age)
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Field: fieldErrs[0].Field()}
	}

	return fmt.Errorf("validate form: %w", err)
}

// Student coerces the numeric fields of an already validated form and
// returns the typed record. ID and timestamps are left for the store.
func (f Form) Student() (types.Student, error) {
	age, err := ParseNumber("age", f.Age)
	if err != nil {
		return types.Student{}, err
	}
	if !age.Valid {
		return types.Student{}, &ValidationError{Field: "age"}
	}
	ageInt, err := age.Int("age")
	if err != nil {
		return types.Student{}, err
	}

	rank, err := optionalFloat("eamcet_rank", f.EamcetRank)
	if err != nil {
		return types.Student{}, err
	}
	ssc, err := optionalFloat("ssc_marks", f.SSCMarks)
	if err != nil {
		return types.Student{}, err
	}
	inter, err := optionalFloat("inter_marks", f.InterMarks)
	if err != nil {
		return types.Student{}, err
	}

	return types.Student{
		RollNumber:         f.RollNumber,
		Name:               f.Name,
		FatherName:         f.FatherName,
		Address:            f.Address,
		Age:                ageInt,
		Phone:              f.Phone,
		Email:              f.Email,
		FatherPhone:        f.FatherPhone,
		FatherEmail:        f.FatherEmail,
		EamcetRank:         rank,
		SSCMarks:           ssc,
		InterMarks:         inter,
		Achievements:       f.Achievements,
		Remarks:            f.Remarks,
		IdentificationMark: f.IdentificationMark,
		BloodGroup:         f.BloodGroup,
	}, nil
}

// Parse validates the submitted values and returns the coerced record.
// It fails with *ValidationError or *NumberError; nothing is returned
// partially filled.
func Parse(values map[string]string) (types.Student, error) {
	form := FormFromValues(values)
	if err := Validate(form); err != nil {
		return types.Student{}, err
	}
	return form.Student()
}

func optionalFloat(field, raw string) (*float64, error) {
	n, err := ParseNumber(field, raw)
	if err != nil || !n.Valid {
		return nil, err
	}
	v := n.Value
	return &v, nil
}
