package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response. Pipeline internals are never
// exposed: callers get a status code and a generic message.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:    []string{"Accept", "Authorization", "Content-Type", "Origin"},
	}))

	r.GET("/", s.statusHandler)
	r.GET("/health", s.healthHandler)

	api := r.Group("/api")
	{
		api.POST("/convert-statement", s.convertStatementHandler)
	}

	return r
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "Bank Statement Converter API is running",
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	response := make(map[string]any)
	healthy := true

	sessionHealth := map[string]string{"status": "up"}
	if err := s.store.Ping(c.Request.Context()); err != nil {
		sessionHealth["status"] = "down"
		sessionHealth["error"] = err.Error()
		healthy = false
	}
	response["session_store"] = sessionHealth

	if s.history != nil {
		historyHealth := map[string]string{"status": "up"}
		if err := s.history.Ping(c.Request.Context()); err != nil {
			historyHealth["status"] = "down"
			historyHealth["error"] = err.Error()
			healthy = false
		}
		response["history"] = historyHealth
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}
