package handler

import (
	"net/http"
	"os"

	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
	"github.com/arnavshah/crew-scheduler-api/pkg/server"
	"github.com/gin-gonic/gin"
)

var r http.Handler

func init() {
	cfg, err := config.Load(os.Getenv("CREW_CONFIG"))
	if err == nil {
		var app *server.App
		if app, err = server.Build(cfg); err == nil {
			r = app.Router
			return
		}
	}

	logger.New("vercel").Errorf("startup failed: %v", err)
	gin.SetMode(gin.ReleaseMode)
	fallback := gin.New()
	fallback.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
	})
	r = fallback
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
