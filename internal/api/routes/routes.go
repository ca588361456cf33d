package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yoockh/brdextractor/internal/api/handlers"
	"github.com/yoockh/brdextractor/internal/api/middleware"
)

type Deps struct {
	BRD *handlers.BRDHandler

	RateLimitRPM   int
	RateLimitBurst int
	MaxBodyBytes   int64
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	submit := []gin.HandlerFunc{
		middleware.RateLimit(d.RateLimitRPM, d.RateLimitBurst),
		middleware.MaxBody(d.MaxBodyBytes),
	}

	r.GET("/", d.BRD.Form)
	r.POST("/brd", append(submit, d.BRD.Submit)...)
	r.GET("/brd/:id/download", d.BRD.Download)

	api := r.Group("/api/v1")
	api.POST("/brd", append(submit, d.BRD.APISubmit)...)
	api.GET("/brd/:id", d.BRD.APIGet)
}
