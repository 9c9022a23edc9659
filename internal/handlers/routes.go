package handlers

import (
	"github.com/gin-gonic/gin"

	"employee-portal/internal/config"
)

// RegisterAuthRoutes wires the login page, login, logout and the session
// snapshot.
func RegisterAuthRoutes(rg *gin.RouterGroup, backend Backend, cfg config.Config) {
	rg.GET(cfg.Routes.LoginPath, LoginPageHandler())
	rg.POST(cfg.Routes.LoginPath, LoginHandler(backend, cfg))
	rg.POST("/logout", LogoutHandler(cfg))
	rg.GET("/me", MeHandler())
}

// RegisterEmployeeRoutes wires the employee list (on the landing page),
// detail, edit and create.
func RegisterEmployeeRoutes(rg *gin.RouterGroup, backend Backend, cfg config.Config) {
	rg.GET(cfg.Routes.LandingPath, ListEmployeesHandler(backend, cfg))
	rg.GET("/employee/:id", GetEmployeeHandler(backend, cfg))
	rg.PUT("/employee/:id", UpdateEmployeeHandler(backend, cfg))
	rg.POST("/employee", CreateEmployeeHandler(backend, cfg))
}

func RegisterCustomerRoutes(rg *gin.RouterGroup, backend Backend, cfg config.Config) {
	rg.GET("/khach-hang", ListCustomersHandler(backend, cfg))
}

// RegisterSessionEventRoutes wires the websocket that pushes session_ended
// to the other pages of a session.
func RegisterSessionEventRoutes(rg *gin.RouterGroup, cfg config.Config) {
	rg.GET("/ws/session", SessionEventsHandler(cfg))
}
