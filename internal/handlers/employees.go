package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"employee-portal/internal/api"
	"employee-portal/internal/config"
	"employee-portal/internal/models"
	"employee-portal/internal/session"
	"employee-portal/internal/tracing"
)

type employeeListView struct {
	Session   session.Snapshot  `json:"session"`
	Employees []models.Employee `json:"employees"`
	Pager     models.Pager      `json:"pager"`
	SortBy    string            `json:"sortBy"`
	Sorts     []string          `json:"sorts"`
	Query     string            `json:"q,omitempty"`
}

// ListEmployeesHandler serves one page of employees. The q search runs
// over the fetched page only.
func ListEmployeesHandler(backend Backend, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.ListEmployeesHandler")
		defer span.End()

		page := models.ParsePage(c.Query("page"))
		sortBy := models.NormalizeSort(c.Query("sortBy"))
		q := c.Query("q")

		res, err := backend.ListEmployees(ctx, sessionToken(c), api.EmployeeQuery{Page: page, SortBy: sortBy})
		if err != nil {
			tracing.RecordError(span, err)
			writeAPIError(c, cfg.Routes, err)
			return
		}

		employees := models.FilterEmployees(res.Employees, q)
		if employees == nil {
			employees = []models.Employee{}
		}
		c.JSON(http.StatusOK, employeeListView{
			Session:   sessionSnapshot(c),
			Employees: employees,
			Pager:     models.NewPager(page, res.TotalPages, res.TotalItems),
			SortBy:    sortBy,
			Sorts:     models.EmployeeSorts,
			Query:     q,
		})
	}
}

type employeeView struct {
	Employee models.Employee     `json:"employee"`
	Form     models.EmployeeForm `json:"form"`
}

func GetEmployeeHandler(backend Backend, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.GetEmployeeHandler")
		defer span.End()

		id, err := models.ParseID(c.Param("id"))
		if err != nil {
			writeAPIError(c, cfg.Routes, err)
			return
		}
		e, err := backend.Employee(ctx, sessionToken(c), id)
		if err != nil {
			tracing.RecordError(span, err)
			writeAPIError(c, cfg.Routes, err)
			return
		}
		if e.ID == "" {
			e.ID = id
		}
		c.JSON(http.StatusOK, employeeView{Employee: *e, Form: models.FormFromEmployee(*e)})
	}
}

func UpdateEmployeeHandler(backend Backend, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.UpdateEmployeeHandler")
		defer span.End()

		id, err := models.ParseID(c.Param("id"))
		if err != nil {
			writeAPIError(c, cfg.Routes, err)
			return
		}
		var form models.EmployeeForm
		if err := c.ShouldBind(&form); err != nil {
			bindError(c, cfg.Routes, err)
			return
		}

		e, err := backend.UpdateEmployee(ctx, sessionToken(c), form.Employee(id))
		if err != nil {
			tracing.RecordError(span, err)
			writeAPIError(c, cfg.Routes, err)
			return
		}
		c.JSON(http.StatusOK, employeeView{Employee: *e, Form: models.FormFromEmployee(*e)})
	}
}

func CreateEmployeeHandler(backend Backend, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.CreateEmployeeHandler")
		defer span.End()

		var form models.NewEmployeeForm
		if err := c.ShouldBind(&form); err != nil {
			bindError(c, cfg.Routes, err)
			return
		}

		e, err := backend.CreateEmployee(ctx, sessionToken(c), form.NewEmployee())
		if err != nil {
			tracing.RecordError(span, err)
			writeAPIError(c, cfg.Routes, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"employee": e})
	}
}
