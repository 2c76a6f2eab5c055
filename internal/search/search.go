// Package search turns optional search criteria into a backend-neutral
// query. The storage backends translate a Query into SQL or a MongoDB
// filter; the matching rules live here so both behave the same.
//
// Criteria are combined with logical OR: a record matches when it
// satisfies ANY supplied criterion. Searching by several identifiers
// widens the result set instead of narrowing it. Do not change this to
// AND without agreeing it with the people who use the search page.
package search

import (
	"math"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/types"
)

// Criteria are the optional search inputs. ID is the search page's
// "roll number" box and is matched against roll_number.
type Criteria struct {
	ID         string
	Name       string
	FatherName string
	RollNumber string
}

// Kind selects how a Condition compares a stored field.
type Kind int

const (
	// Contains is a case-insensitive, literal substring match.
	Contains Kind = iota
	// NumberEquals matches when the stored text parses to Number.
	NumberEquals
)

// Condition is one alternative of the OR-ed query.
type Condition struct {
	Field  string
	Kind   Kind
	Text   string
	Number float64
}

// Query is an ordered list of OR-ed conditions. An empty query matches
// every record.
type Query struct {
	Conditions []Condition
}

// MatchAll reports whether the query has no conditions.
func (q Query) MatchAll() bool {
	return len(q.Conditions) == 0
}

// Build converts criteria into a Query. Blank criteria are ignored and
// the rest are trimmed.
func Build(c Criteria) Query {
	var q Query

	if name := strings.TrimSpace(c.Name); name != "" {
		q.Conditions = append(q.Conditions, contains(types.FieldName, name))
	}

	if id := strings.TrimSpace(c.ID); id != "" {
		q.Conditions = append(q.Conditions, contains(types.FieldRollNumber, id))
		// Non-numeric ids only get the substring alternative. Zero is
		// skipped as well: it is what a failed parse used to produce.
		if n, ok := ParseRollNumber(id); ok && n != 0 {
			q.Conditions = append(q.Conditions, Condition{
				Field:  types.FieldRollNumber,
				Kind:   NumberEquals,
				Number: n,
			})
		}
	}

	if roll := strings.TrimSpace(c.RollNumber); roll != "" {
		q.Conditions = append(q.Conditions, contains(types.FieldRollNumber, roll))
	}

	if father := strings.TrimSpace(c.FatherName); father != "" {
		q.Conditions = append(q.Conditions, contains(types.FieldFatherName, father))
	}

	return q
}

// ParseRollNumber parses text as a finite number, ignoring surrounding
// whitespace. Storage backends use it to compare stored roll numbers.
func ParseRollNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func contains(field, text string) Condition {
	return Condition{Field: field, Kind: Contains, Text: text}
}
