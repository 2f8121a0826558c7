package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Authorization, Content-Type"
	corsMaxAge  = "86400"
)

// originSet is the parsed CORS_ALLOWED_ORIGINS value. An empty set or "*" allows any origin.
type originSet struct {
	any     bool
	allowed map[string]struct{}
}

func parseOrigins(s string) originSet {
	set := originSet{allowed: map[string]struct{}{}}
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			set.any = true
		default:
			set.allowed[o] = struct{}{}
		}
	}
	if len(set.allowed) == 0 {
		set.any = true
	}
	return set
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" when it is not allowed.
func (s originSet) allow(origin string) string {
	if s.any {
		return "*"
	}
	if _, ok := s.allowed[origin]; ok && origin != "" {
		return origin
	}
	return ""
}

// CORS lets the browser frontend call the API. allowedOrigins is "*" or a comma-separated list
// (e.g. "http://localhost:5173,https://app.example.com"). Preflight requests end here with 204.
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := parseOrigins(allowedOrigins)
	return func(c *gin.Context) {
		if !origins.any {
			c.Header("Vary", "Origin")
		}
		if allow := origins.allow(c.GetHeader("Origin")); allow != "" {
			c.Header("Access-Control-Allow-Origin", allow)
			c.Header("Access-Control-Allow-Methods", corsMethods)
			c.Header("Access-Control-Allow-Headers", corsHeaders)
			c.Header("Access-Control-Max-Age", corsMaxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
