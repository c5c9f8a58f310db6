package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mcpower/monash-timetabler/internal/middleware"
)

// RegisterRankingRoutes mounts the ranking endpoints.
func RegisterRankingRoutes(r gin.IRouter, h *RankingHandler) {
	rankings := r.Group("/rankings")
	rankings.POST("", h.Submit)
	rankings.GET("/:id", h.Status)
	rankings.GET("/:id/palette", h.Palette)
	rankings.POST("/:id/grid", h.Rebuild)
	rankings.GET("/:id/timetables", h.List)
	rankings.GET("/:id/timetables/:index", h.Timetable)
	rankings.GET("/:id/timetables/:index/export", h.Export)
}

// RegisterActivityRoutes mounts the enrolment activity endpoints.
func RegisterActivityRoutes(r gin.IRouter, h *ActivityHandler) {
	enrolment := r.Group("/enrolments/:id", middleware.SubjectMatchesParam("id"))
	enrolment.GET("/activities", h.List)
	enrolment.PUT("/activities", h.Replace)
}
