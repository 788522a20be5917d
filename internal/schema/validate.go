package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ValidationFailure describes a single record that could not be normalized.
// It is never fatal to a processing run; failures are accumulated into the
// run summary and the record is excluded from output.
type ValidationFailure struct {
	// RecordID is the textual form of the record's identifier, empty when the
	// identifier itself is absent or unreadable.
	RecordID string
	// Field is the name of the offending input field.
	Field string
	// Reason describes why the field was rejected.
	Reason string
}

// Error implements the error interface.
func (f *ValidationFailure) Error() string {
	id := f.RecordID
	if id == "" {
		id = "<missing>"
	}
	return fmt.Sprintf("record %s: field '%s': %s", id, f.Field, f.Reason)
}

// Canonical input field names. Split name parts are merged into full_name;
// a couple of common synonyms are accepted for the numeric fields.
var knownFields = map[string]struct{}{
	"id":                  {},
	"first_name":          {},
	"last_name":           {},
	"full_name":           {},
	"name":                {},
	"email":               {},
	"phone":               {},
	"gender":              {},
	"age":                 {},
	"job_title":           {},
	"hire_date":           {},
	"years_of_experience": {},
	"experience":          {},
	"salary":              {},
	"compensation":        {},
	"department":          {},
}

// acceptedDateLayouts are tried in order when coercing hire_date values.
var acceptedDateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// Normalize validates and type-coerces one raw employee record into a
// TabularRow. Unknown input fields are returned in dropped (reported as
// warnings by the caller, never an error). A nil failure means the row is
// valid; a non-nil failure carries the identifier (when readable) and the
// first offending field, and the record must be excluded from output.
func Normalize(raw map[string]interface{}) (TabularRow, []string, *ValidationFailure) {
	var row TabularRow
	var dropped []string

	// Field matching is case-insensitive; the last occurrence wins when a
	// payload carries both "ID" and "id".
	rec := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, ok := knownFields[key]; !ok {
			dropped = append(dropped, k)
			continue
		}
		rec[key] = v
	}

	recordID := identifierText(rec["id"])
	fail := func(field, reason string) (TabularRow, []string, *ValidationFailure) {
		return TabularRow{}, dropped, &ValidationFailure{RecordID: recordID, Field: field, Reason: reason}
	}

	// Identifier: required and integral.
	idVal, idPresent := rec["id"]
	if !idPresent || idVal == nil {
		return fail("id", "required field is missing")
	}
	id, ok := coerceInt64(idVal)
	if !ok {
		return fail("id", fmt.Sprintf("cannot coerce %v (%T) to an integer identifier", idVal, idVal))
	}
	row.ID = id

	row.FullName = resolveFullName(rec)
	row.Email = coerceString(rec["email"])
	row.Gender = coerceString(rec["gender"])
	row.JobTitle = coerceString(rec["job_title"])
	row.Department = coerceString(rec["department"])
	row.Phone = normalizePhone(rec)

	if v, present := rec["age"]; present && v != nil {
		age, ok := coerceInt64(v)
		if !ok {
			return fail("age", fmt.Sprintf("cannot coerce %v (%T) to an integer", v, v))
		}
		row.Age = int32(age)
	}

	yoe, yoeField := firstPresent(rec, "years_of_experience", "experience")
	if yoe != nil {
		n, ok := coerceInt64(yoe)
		if !ok {
			return fail(yoeField, fmt.Sprintf("cannot coerce %v (%T) to an integer", yoe, yoe))
		}
		row.YearsOfExperience = int32(n)
	}

	salary, salaryField := firstPresent(rec, "salary", "compensation")
	if salary != nil {
		f, ok := coerceFloat64(salary)
		if !ok {
			return fail(salaryField, fmt.Sprintf("cannot coerce %v (%T) to a number", salary, salary))
		}
		row.Salary = f
	}

	if v, present := rec["hire_date"]; present && v != nil {
		d, ok := coerceDate(v)
		if !ok {
			return fail("hire_date", fmt.Sprintf("cannot parse %v (%T) as a calendar date", v, v))
		}
		row.HireDate = d
	}

	row.Designation = designationFor(row.YearsOfExperience)

	return row, dropped, nil
}

// resolveFullName builds the display name from whichever name fields are
// present: an explicit full_name/name, or first_name + last_name.
func resolveFullName(rec map[string]interface{}) string {
	if v := coerceString(rec["full_name"]); v != "" {
		return v
	}
	if v := coerceString(rec["name"]); v != "" {
		return v
	}
	first := coerceString(rec["first_name"])
	last := coerceString(rec["last_name"])
	return strings.TrimSpace(first + " " + last)
}

// normalizePhone strips a phone value down to its digits. Values with an
// extension marker ("x") or no digits at all become "Invalid Number"; a
// record without any phone field becomes "Not Available".
func normalizePhone(rec map[string]interface{}) string {
	v, present := rec["phone"]
	if !present {
		return "Not Available"
	}
	if v == nil {
		return "Invalid Number"
	}
	s := coerceString(v)
	if strings.Contains(strings.ToLower(s), "x") {
		return "Invalid Number"
	}
	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return "Invalid Number"
	}
	return digits.String()
}

// designationFor maps tenure to a designation band.
func designationFor(years int32) string {
	switch {
	case years <= 0:
		return "Unknown"
	case years < 3:
		return "System Engineer"
	case years <= 5:
		return "Data Engineer"
	case years <= 10:
		return "Senior Data Engineer"
	default:
		return "Lead"
	}
}

// firstPresent returns the first non-nil value among the named fields along
// with the field name it came from.
func firstPresent(rec map[string]interface{}, fields ...string) (interface{}, string) {
	for _, field := range fields {
		if v, present := rec[field]; present && v != nil {
			return v, field
		}
	}
	return nil, ""
}

// identifierText renders an identifier value for failure reporting without
// coercing it; unreadable identifiers yield an empty string.
func identifierText(v interface{}) string {
	if v == nil {
		return ""
	}
	if i, ok := coerceInt64(v); ok {
		return strconv.FormatInt(i, 10)
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// coerceString converts scalar values to their natural text form. Non-scalar
// values (maps, slices) render via fmt, which only matters for warnings.
func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		// JSON numbers arrive as float64; render integral values without a
		// fractional part.
		if s == math.Trunc(s) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// coerceInt64 attempts to interpret a value as an integer. Floats qualify
// only when they carry no fractional part; strings are parsed as int first,
// then as an integral float.
func coerceInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(v).Int(), true
	case uint, uint8, uint16, uint32:
		return int64(reflect.ValueOf(v).Uint()), true
	case uint64:
		if v > uint64(math.MaxInt64) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return coerceInt64(float64(v))
	case float64:
		if v == math.Trunc(v) && v >= float64(math.MinInt64) && v <= float64(math.MaxInt64) {
			return int64(v), true
		}
		return 0, false
	case string:
		cleanV := strings.TrimSpace(v)
		if cleanV == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(cleanV, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(cleanV, 64); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// coerceFloat64 attempts to interpret a value as a number.
func coerceFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return float64(reflect.ValueOf(v).Int()), true
	case uint, uint8, uint16, uint32, uint64:
		return float64(reflect.ValueOf(v).Uint()), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		cleanV := strings.TrimSpace(v)
		if cleanV == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleanV, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceDate parses a value as a calendar date, accepting several common
// layouts and truncating any time-of-day component.
func coerceDate(value interface{}) (time.Time, bool) {
	s, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
