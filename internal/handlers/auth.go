package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"employee-portal/internal/api"
	"employee-portal/internal/config"
	"employee-portal/internal/middleware"
	"employee-portal/internal/models"
	"employee-portal/internal/session"
	"employee-portal/internal/tracing"
)

// Backend is the part of the REST backend the handlers use. *api.Client
// implements it.
type Backend interface {
	Login(ctx context.Context, account, password string) (string, error)
	ListEmployees(ctx context.Context, token string, q api.EmployeeQuery) (*models.EmployeePage, error)
	Employee(ctx context.Context, token string, id models.ID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, token string, e models.Employee) (*models.Employee, error)
	CreateEmployee(ctx context.Context, token string, ne models.NewEmployee) (*models.Employee, error)
	ListCustomers(ctx context.Context, token string, page int, f models.CustomerFilter) (*models.CustomerPage, error)
}

var _ Backend = (*api.Client)(nil)

type loginPage struct {
	Page   string   `json:"page"`
	Fields []string `json:"fields"`
	Action string   `json:"action"`
}

func LoginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, loginPage{
			Page:   "login",
			Fields: []string{"account", "password"},
			Action: c.Request.URL.Path,
		})
	}
}

// LoginHandler validates the form, exchanges the credentials for a token
// and stores it in the session cookie.
func LoginHandler(backend Backend, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.LoginHandler")
		defer span.End()

		var form models.LoginForm
		if err := c.ShouldBind(&form); err != nil {
			bindError(c, cfg.Routes, err)
			return
		}
		form.Account = strings.TrimSpace(form.Account)

		token, err := backend.Login(ctx, form.Account, form.Password)
		if err != nil {
			tracing.RecordError(span, err)
			writeAPIError(c, cfg.Routes, err)
			return
		}

		st := middleware.SessionFrom(c)
		if err := st.Login(token); err != nil {
			tracing.RecordError(span, err)
			if errors.Is(err, session.ErrMalformedCredential) || errors.Is(err, session.ErrEmptyToken) {
				logger.Warn("backend issued an unusable token", "request_id", middleware.RequestIDFrom(c), "error", err)
				c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "login failed"})
				return
			}
			writeAPIError(c, cfg.Routes, err)
			return
		}
		if st.Degraded() {
			logger.Warn("session cookie not written; login lasts for this request only", "request_id", middleware.RequestIDFrom(c))
		}

		respondRedirect(c, http.StatusSeeOther, cfg.Routes.LandingPath, gin.H{"session": st.Snapshot()})
	}
}

// LogoutHandler clears the session cookie and notifies the session's
// other open pages.
func LogoutHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		endSession(c, middleware.SessionFrom(c), cfg.Routes)
		respondRedirect(c, http.StatusSeeOther, cfg.Routes.LoginPath, nil)
	}
}

type meResponse struct {
	session.Snapshot
	Degraded bool `json:"degraded,omitempty"`
}

// MeHandler returns the decoded identity. The token's signature is not
// checked, so this is display data only.
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := middleware.SessionFrom(c)
		c.JSON(http.StatusOK, meResponse{Snapshot: st.Snapshot(), Degraded: st.Degraded()})
	}
}

func sessionToken(c *gin.Context) string {
	tok, _ := middleware.SessionFrom(c).Token()
	return tok
}
