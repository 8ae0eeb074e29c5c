package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shenikar/incident-response-core/internal/alerts"
	"github.com/shenikar/incident-response-core/internal/security"
)

// RegisterRoutes mounts every API v1 route, gating all but /auth/login
// and the observability endpoints behind the bearer-token middleware.
func (h *Handler) RegisterRoutes(router gin.IRouter, hub *alerts.Hub) {
	router.GET("/system/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/emergency/ws", func(c *gin.Context) { hub.ServeWS(c.Writer, c.Request) })

	router.POST("/auth/login", h.login)

	api := router.Group("/")
	api.Use(security.Middleware(h.issuer, h.logger))

	sos := api.Group("/sos")
	{
		sos.POST("", h.createIncident)
		sos.GET("", h.listIncidents)
		sos.GET("/map", h.mapIncidents)
		sos.GET("/:id", h.getIncident)
		sos.PUT("/:id", h.updateIncident)
		sos.DELETE("/:id", h.deleteIncident)
		sos.GET("/:id/nearest-facilities", h.nearestFacilities)
	}

	emergency := api.Group("/emergency")
	{
		emergency.GET("/smart-assignment", h.smartAssignment)
		emergency.POST("/assign-emergency", h.assignEmergency)
		emergency.POST("/accept-assignment", h.acceptAssignment)
		emergency.POST("/reject-assignment", h.rejectAssignment)
		emergency.POST("/complete-emergency", h.completeEmergency)
		emergency.GET("/emergency-summary", h.emergencySummary)
	}

	fleet := api.Group("/fleet")
	{
		fleet.POST("/organizations", h.createOrganization)
		fleet.GET("/organizations", h.listOrganizations)
		fleet.GET("/organizations/:id", h.getOrganization)
		fleet.PUT("/organizations/:id", h.updateOrganization)
		fleet.DELETE("/organizations/:id", h.deleteOrganization)
		fleet.PATCH("/organizations/:id/status", h.setOrganizationStatus)

		fleet.POST("/divisions", h.createDivision)
		fleet.GET("/divisions", h.listDivisions)
		fleet.GET("/divisions/:id", h.getDivision)
		fleet.PUT("/divisions/:id", h.updateDivision)
		fleet.DELETE("/divisions/:id", h.deleteDivision)

		fleet.POST("/staff", h.createStaff)
		fleet.GET("/staff", h.listStaff)
		fleet.GET("/staff/:id", h.getStaffMember)
		fleet.PUT("/staff/:id", h.updateStaff)
		fleet.DELETE("/staff/:id", h.deleteStaff)
	}

	mobile := api.Group("/mobile")
	{
		mobile.POST("/tickets", h.createMobileTicket)
		mobile.GET("/incidents/:client_id", h.getMobileIncident)
		mobile.POST("/chat/:client_id/messages", h.appendMobileChatMessage)
		mobile.POST("/ai/voice-agent/:client_id", h.appendMobileVoiceAgentNote)
		mobile.POST("/dispatch/:id/retry", h.retryDispatchJob)
	}
}
