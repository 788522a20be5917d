package schema

import (
	"strconv"
	"time"
)

// DateLayout is the canonical textual form of date fields in CSV output.
const DateLayout = "2006-01-02"

// TabularRow is the validated, typed projection of one employee record,
// ready for row-oriented and columnar output.
type TabularRow struct {
	ID                int64
	FullName          string
	Email             string
	Phone             string
	Gender            string
	Age               int32
	JobTitle          string
	HireDate          time.Time
	YearsOfExperience int32
	Salary            float64
	Department        string
	Designation       string
}

// Columns returns the canonical output field order shared by every sink.
func Columns() []string {
	return []string{
		"id",
		"full_name",
		"email",
		"phone",
		"gender",
		"age",
		"job_title",
		"hire_date",
		"years_of_experience",
		"salary",
		"department",
		"designation",
	}
}

// Strings renders the row as text fields in canonical column order.
// Zero hire dates render as an empty string.
func (r TabularRow) Strings() []string {
	hireDate := ""
	if !r.HireDate.IsZero() {
		hireDate = r.HireDate.Format(DateLayout)
	}
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.FullName,
		r.Email,
		r.Phone,
		r.Gender,
		strconv.FormatInt(int64(r.Age), 10),
		r.JobTitle,
		hireDate,
		strconv.FormatInt(int64(r.YearsOfExperience), 10),
		strconv.FormatFloat(r.Salary, 'f', -1, 64),
		r.Department,
		r.Designation,
	}
}

// Values returns the row as typed values in canonical column order, for
// sinks that accept interface{} cells (XLSX, Postgres COPY).
func (r TabularRow) Values() []interface{} {
	var hireDate interface{}
	if !r.HireDate.IsZero() {
		hireDate = r.HireDate
	}
	return []interface{}{
		r.ID,
		r.FullName,
		r.Email,
		r.Phone,
		r.Gender,
		r.Age,
		r.JobTitle,
		hireDate,
		r.YearsOfExperience,
		r.Salary,
		r.Department,
		r.Designation,
	}
}
