package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ID is a backend record identifier. The backend sends numeric ids in
// lists and string ids elsewhere; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, b)
	}
	*id = ID(n.String())
	return nil
}

// ParseID validates an id taken from a URL path segment.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "/?#") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(s), nil
}

// Gender and Status codes as the backend stores them.
const (
	GenderMale   = 0
	GenderFemale = 1

	StatusActive   = 0
	StatusInactive = 1
)

type Employee struct {
	ID             ID     `json:"id,omitempty"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	Gender         int    `json:"gender"`
	Account        string `json:"account,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
	Status         int    `json:"status"`
	DepartmentName string `json:"departmentName"`
	Remark         string `json:"remark,omitempty"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Active is true for StatusActive.
func (e Employee) Active() bool { return e.Status == StatusActive }

func (e Employee) GenderName() string {
	if e.Gender == GenderFemale {
		return "female"
	}
	return "male"
}

// EmployeeForm is the edit form. Field rules follow the backend's own
// validation so bad input is rejected before a round trip.
type EmployeeForm struct {
	FirstName      string `json:"firstName" form:"firstName" binding:"required"`
	LastName       string `json:"lastName" form:"lastName" binding:"required"`
	Phone          string `json:"phone" form:"phone" binding:"required"`
	DateOfBirth    string `json:"dateOfBirth" form:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	Gender         string `json:"gender" form:"gender" binding:"required,oneof=male female"`
	Email          string `json:"email" form:"email" binding:"required,email"`
	Address        string `json:"address" form:"address"`
	Active         bool   `json:"active" form:"active"`
	DepartmentName string `json:"departmentName" form:"departmentName" binding:"required"`
	Remark         string `json:"remark" form:"remark"`
}

// Employee maps the form onto the backend record.
func (f EmployeeForm) Employee(id ID) Employee {
	e := Employee{
		ID:             id,
		FirstName:      strings.TrimSpace(f.FirstName),
		LastName:       strings.TrimSpace(f.LastName),
		Phone:          strings.TrimSpace(f.Phone),
		DateOfBirth:    f.DateOfBirth,
		Gender:         GenderMale,
		Email:          strings.TrimSpace(f.Email),
		Address:        f.Address,
		Status:         StatusInactive,
		DepartmentName: f.DepartmentName,
		Remark:         f.Remark,
	}
	if f.Gender == "female" {
		e.Gender = GenderFemale
	}
	if f.Active {
		e.Status = StatusActive
	}
	return e
}

// FormFromEmployee pre-fills the edit form.
func FormFromEmployee(e Employee) EmployeeForm {
	dob := e.DateOfBirth
	if t, err := time.Parse(time.RFC3339, dob); err == nil {
		dob = t.Format(DateLayout)
	} else if len(dob) > len(DateLayout) {
		dob = dob[:len(DateLayout)]
	}
	return EmployeeForm{
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Phone:          e.Phone,
		DateOfBirth:    dob,
		Gender:         e.GenderName(),
		Email:          e.Email,
		Address:        e.Address,
		Active:         e.Active(),
		DepartmentName: e.DepartmentName,
		Remark:         e.Remark,
	}
}

// NewEmployeeForm is the create form: the edit form plus login details.
type NewEmployeeForm struct {
	EmployeeForm
	Account  string `json:"account" form:"account" binding:"required"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
}

// NewEmployee is the create payload sent to the backend.
type NewEmployee struct {
	Employee
	Password string `json:"password"`
}

func (f NewEmployeeForm) NewEmployee() NewEmployee {
	e := f.EmployeeForm.Employee("")
	e.Account = strings.TrimSpace(f.Account)
	return NewEmployee{Employee: e, Password: f.Password}
}

// EmployeeSorts are the sort keys the list endpoint understands.
var EmployeeSorts = []string{"id", "firstName", "departmentName"}

// NormalizeSort returns s if it is a known sort key and "id" otherwise.
func NormalizeSort(s string) string {
	for _, k := range EmployeeSorts {
		if s == k {
			return s
		}
	}
	return EmployeeSorts[0]
}

// EmployeePage is one page of the employee list as the backend returns it.
type EmployeePage struct {
	Employees   []Employee `json:"employees"`
	CurrentPage int        `json:"currentPage"`
	TotalItems  int64      `json:"totalItems"`
	TotalPages  int        `json:"totalPages"`
	CurrentSort string     `json:"currentSort"`
}

// FilterEmployees keeps the employees whose first name, last name or
// department contains q, ignoring case. An empty q keeps everything.
func FilterEmployees(list []Employee, q string) []Employee {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return list
	}
	out := make([]Employee, 0, len(list))
	for _, e := range list {
		if strings.Contains(strings.ToLower(e.FirstName), q) ||
			strings.Contains(strings.ToLower(e.LastName), q) ||
			strings.Contains(strings.ToLower(e.DepartmentName), q) {
			out = append(out, e)
		}
	}
	return out
}
