package monitoring

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the text and JSON exporters on the HTTP-transport
// binary's router, grounded on the teacher's gin-served API (same
// framework, new routes).
func RegisterRoutes(r gin.IRouter, c *Collector) {
	r.GET("/metrics", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, RenderText(c.Read()))
	})
	r.GET("/metrics.json", func(ctx *gin.Context) {
		body, err := RenderJSON(c.Read())
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})
}
