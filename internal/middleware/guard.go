package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"employee-portal/internal/guard"
)

// Guard is the edge half of the route guard. It runs guard.Decide on the
// request path using only the request's cookie and redirects before any
// handler runs: 307 for GET and HEAD, 303 for everything else so that a
// form post lands on the target page as a GET.
func Guard(routes guard.Routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		authed := SessionFrom(c).IsAuthenticated()
		if target, ok := guard.Decide(authed, c.Request.URL.Path, routes); ok {
			status := http.StatusTemporaryRedirect
			if m := c.Request.Method; m != http.MethodGet && m != http.MethodHead {
				status = http.StatusSeeOther
			}
			c.Redirect(status, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
