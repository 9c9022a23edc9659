package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"employee-portal/internal/config"
	"employee-portal/internal/middleware"
	"employee-portal/internal/models"
	"employee-portal/internal/session"
	"employee-portal/internal/tracing"
)

type customerListView struct {
	Session   session.Snapshot      `json:"session"`
	Customers []models.Customer     `json:"customers"`
	Pager     models.Pager          `json:"pager"`
	Filter    models.CustomerFilter `json:"filter"`
	Filters   []string              `json:"filters"`
}

func ListCustomersHandler(backend Backend, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.ListCustomersHandler")
		defer span.End()

		page := models.ParsePage(c.Query("page"))
		filter := models.CustomerFilter{By: c.Query("filterBy"), Value: c.Query("filterValue")}
		if err := filter.Validate(); err != nil {
			writeAPIError(c, cfg.Routes, err)
			return
		}

		res, err := backend.ListCustomers(ctx, sessionToken(c), page, filter)
		if err != nil {
			tracing.RecordError(span, err)
			writeAPIError(c, cfg.Routes, err)
			return
		}

		customers := res.Customers
		if customers == nil {
			customers = []models.Customer{}
		}
		c.JSON(http.StatusOK, customerListView{
			Session:   sessionSnapshot(c),
			Customers: customers,
			Pager:     models.NewPager(page, res.TotalPages, res.TotalItems),
			Filter:    filter,
			Filters:   models.CustomerFilters,
		})
	}
}

func sessionSnapshot(c *gin.Context) session.Snapshot {
	return middleware.SessionFrom(c).Snapshot()
}
