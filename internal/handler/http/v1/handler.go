package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident-response-core/internal/assignment"
	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/shenikar/incident-response-core/internal/lifecycle"
	"github.com/shenikar/incident-response-core/internal/mobile"
	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/shenikar/incident-response-core/internal/repository"
	"github.com/shenikar/incident-response-core/internal/security"
	"github.com/shenikar/incident-response-core/internal/triage"
)

// Handler wires the Lifecycle Coordinator, Store, Mobile Ingestion
// Pipeline, Triage Service and token issuer behind the HTTP surface
// spec.md §6 describes.
type Handler struct {
	coordinator  *lifecycle.Coordinator
	store        *repository.Store
	pipeline     *mobile.Pipeline
	triage       *triage.Service
	conversation *mobile.ConversationService
	stt          mobile.STTProvider
	issuer       *security.Issuer
	cfg          *config.Config
	logger       *logrus.Logger
	validate     *validator.Validate
}

func NewHandler(
	coordinator *lifecycle.Coordinator,
	store *repository.Store,
	pipeline *mobile.Pipeline,
	triageSvc *triage.Service,
	conversation *mobile.ConversationService,
	stt mobile.STTProvider,
	issuer *security.Issuer,
	cfg *config.Config,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		coordinator:  coordinator,
		store:        store,
		pipeline:     pipeline,
		triage:       triageSvc,
		conversation: conversation,
		stt:          stt,
		issuer:       issuer,
		cfg:          cfg,
		logger:       logger,
		validate:     validator.New(),
	}
}

func timeNowPlus(d time.Duration) time.Time {
	return time.Now().Add(d)
}

// @Summary Report a new emergency
// @Description Triage and persist a new incident
// @Tags SOS
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param incident body CreateIncidentRequest true "Incident report"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /sos [post]
func (h *Handler) createIncident(c *gin.Context) {
	log := h.logger.WithField("method", "createIncident")

	var req CreateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	principal := security.Principal(c)
	inc, err := h.coordinator.Create(c.Request.Context(), principal, models.TriageInput{
		Text:            req.Text,
		VoiceTranscript: req.VoiceTranscript,
		Headcount:       req.HeadcountAffected,
		PlaceLabel:      req.PlaceLabel,
		CategoryHint:    req.CategoryHint,
	}, orDefault(req.Source, "api"), req.ExternalID, req.PlaceLabel, req.Latitude, req.Longitude)
	if err != nil {
		writeError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, incidentToResponse(inc))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// @Summary List incidents
// @Tags SOS
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by lifecycle status"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {array} IncidentResponse
// @Router /sos [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	status := models.Status(c.Query("status"))

	incidents, err := h.store.ListIncidents(c.Request.Context(), status, page, pageSize)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentsToResponses(incidents))
}

// @Summary Get incidents as map points
// @Tags SOS
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by lifecycle status"
// @Success 200 {array} IncidentMapPoint
// @Router /sos/map [get]
func (h *Handler) mapIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "mapIncidents")
	status := models.Status(c.Query("status"))

	incidents, err := h.store.ListIncidents(c.Request.Context(), status, 1, 500)
	if err != nil {
		writeError(c, log, err)
		return
	}
	points := make([]IncidentMapPoint, len(incidents))
	for i, inc := range incidents {
		points[i] = incidentToMapPoint(inc)
	}
	c.JSON(http.StatusOK, points)
}

// @Summary Get an incident by id
// @Tags SOS
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 404 {object} map[string]string
// @Router /sos/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	log := h.logger.WithField("method", "getIncident")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid incident id")
		return
	}

	inc, err := h.store.GetIncident(c.Request.Context(), id)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Append a note to an incident
// @Tags SOS
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param note body UpdateIncidentRequest true "Note to append"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string
// @Router /sos/{id} [put]
func (h *Handler) updateIncident(c *gin.Context) {
	log := h.logger.WithField("method", "updateIncident")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid incident id")
		return
	}

	var req UpdateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	inc, err := h.coordinator.AppendNote(c.Request.Context(), security.Principal(c), id, req.Note)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Cancel an incident
// @Tags SOS
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Router /sos/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	log := h.logger.WithField("method", "deleteIncident")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid incident id")
		return
	}

	inc, err := h.coordinator.Cancel(c.Request.Context(), security.Principal(c), id, "cancelled via API")
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Nearest shelters/hospitals to an incident
// @Tags SOS
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param type query string true "shelter or hospital"
// @Param limit query int false "Max results" default(5)
// @Success 200 {array} FacilityResponse
// @Router /sos/{id}/nearest-facilities [get]
func (h *Handler) nearestFacilities(c *gin.Context) {
	log := h.logger.WithField("method", "nearestFacilities")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid incident id")
		return
	}

	inc, err := h.store.GetIncident(c.Request.Context(), id)
	if err != nil {
		writeError(c, log, err)
		return
	}

	facType := models.FacilityType(c.DefaultQuery("type", string(models.FacilityShelter)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	facilities, err := h.store.NearestFacilities(c.Request.Context(), inc.Latitude, inc.Longitude, facType, limit)
	if err != nil {
		writeError(c, log, err)
		return
	}

	out := make([]FacilityResponse, len(facilities))
	for i, f := range facilities {
		out[i] = facilityToResponse(f)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Rank fleet candidates for an incident
// @Tags Emergency
// @Produce json
// @Security BearerAuth
// @Param sos_id query string true "Incident ID"
// @Success 200 {array} CandidateResponse
// @Router /emergency/smart-assignment [get]
func (h *Handler) smartAssignment(c *gin.Context) {
	log := h.logger.WithField("method", "smartAssignment")
	id, err := uuid.Parse(c.Query("sos_id"))
	if err != nil {
		badRequest(c, "invalid sos_id")
		return
	}

	inc, err := h.store.GetIncident(c.Request.Context(), id)
	if err != nil {
		writeError(c, log, err)
		return
	}

	snap, err := h.store.FleetSnapshot(c.Request.Context(), nil)
	if err != nil {
		writeError(c, log, err)
		return
	}

	candidates := assignment.Rank(assignment.Request{
		Triage: models.TriageResult{
			Category:             inc.Category,
			Priority:             inc.Priority,
			RequiredDivisionType: inc.RequiredDivisionType,
			RequiredSkills:       inc.RequiredSkills,
		},
		Latitude:  inc.Latitude,
		Longitude: inc.Longitude,
	}, snap)

	out := make([]CandidateResponse, len(candidates))
	for i, cand := range candidates {
		out[i] = candidateToResponse(cand)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Assign an incident to the top-ranked candidate
// @Tags Emergency
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IncidentIDRequest true "Incident to assign"
// @Success 200 {object} IncidentResponse
// @Router /emergency/assign-emergency [post]
func (h *Handler) assignEmergency(c *gin.Context) {
	log := h.logger.WithField("method", "assignEmergency")

	var req IncidentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inc, err := h.coordinator.StartWindow(c.Request.Context(), security.Principal(c), req.IncidentID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Accept the current assignment
// @Tags Emergency
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IncidentIDRequest true "Incident to accept"
// @Success 200 {object} IncidentResponse
// @Router /emergency/accept-assignment [post]
func (h *Handler) acceptAssignment(c *gin.Context) {
	log := h.logger.WithField("method", "acceptAssignment")

	var req IncidentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inc, err := h.coordinator.Accept(c.Request.Context(), security.Principal(c), req.IncidentID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Reject the current assignment
// @Tags Emergency
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RejectRequest true "Incident to reject"
// @Success 200 {object} IncidentResponse
// @Router /emergency/reject-assignment [post]
func (h *Handler) rejectAssignment(c *gin.Context) {
	log := h.logger.WithField("method", "rejectAssignment")

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inc, err := h.coordinator.Reject(c.Request.Context(), security.Principal(c), req.IncidentID, req.Reason)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Complete an in-progress incident
// @Tags Emergency
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IncidentIDRequest true "Incident to complete"
// @Success 200 {object} IncidentResponse
// @Router /emergency/complete-emergency [post]
func (h *Handler) completeEmergency(c *gin.Context) {
	log := h.logger.WithField("method", "completeEmergency")

	var req IncidentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inc, err := h.coordinator.Complete(c.Request.Context(), security.Principal(c), req.IncidentID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Counts of incidents per lifecycle status
// @Tags Emergency
// @Produce json
// @Security BearerAuth
// @Success 200 {object} EmergencySummaryResponse
// @Router /emergency/emergency-summary [get]
func (h *Handler) emergencySummary(c *gin.Context) {
	log := h.logger.WithField("method", "emergencySummary")
	ctx := c.Request.Context()

	summary := EmergencySummaryResponse{}
	for _, s := range []models.Status{
		models.StatusPending, models.StatusPendingAssignment, models.StatusInProgress,
		models.StatusDone, models.StatusCancelled,
	} {
		count, err := h.store.CountIncidentsByStatus(ctx, s)
		if err != nil {
			writeError(c, log, err)
			return
		}
		switch s {
		case models.StatusPending:
			summary.Pending = count
		case models.StatusPendingAssignment:
			summary.PendingAssignment = count
		case models.StatusInProgress:
			summary.InProgress = count
		case models.StatusDone:
			summary.Done = count
		case models.StatusCancelled:
			summary.Cancelled = count
		}
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
