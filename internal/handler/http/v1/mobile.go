package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/shenikar/incident-response-core/internal/security"
)

var errDispatchEnqueueFailed = errors.New("dispatch job enqueue failed")

// @Summary Submit a mobile intake ticket
// @Description Runs the document through the Mobile Ingestion Pipeline and enqueues a dispatch job
// @Tags Mobile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param document body models.MobileIntakeDocument true "Mobile intake document"
// @Success 202 {object} MobileTicketResponse
// @Failure 400 {object} map[string]string
// @Router /mobile/tickets [post]
func (h *Handler) createMobileTicket(c *gin.Context) {
	log := h.logger.WithField("method", "createMobileTicket")

	var doc models.MobileIntakeDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if doc.TicketIDClient == "" {
		badRequest(c, "ticket_id_client is required")
		return
	}

	ctx := c.Request.Context()
	triaged := h.triage.Triage(ctx, models.TriageInput{
		Text:            doc.Text,
		VoiceTranscript: doc.VoiceTranscript.RawText,
		PlaceLabel:      "",
	})

	result := h.pipeline.Ingest(ctx, doc, triaged)
	if result.Job == nil {
		writeError(c, log, errDispatchEnqueueFailed)
		return
	}

	c.JSON(http.StatusAccepted, MobileTicketResponse{
		TicketIDClient: doc.TicketIDClient,
		DispatchJobID:  result.Job.ID,
		Lane:           string(result.Job.Lane),
		Annotations:    result.Annotations,
	})
}

// @Summary Append a chat follow-up to a mobile ticket and get an AI-assisted reply
// @Tags Mobile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param client_id path string true "Client ticket id"
// @Param note body MobileNoteRequest true "Follow-up text"
// @Success 200 {object} MobileFollowUpResponse
// @Router /mobile/chat/{client_id}/messages [post]
func (h *Handler) appendMobileChatMessage(c *gin.Context) {
	h.followUp(c, "appendMobileChatMessage")
}

// @Summary Append a voice-agent follow-up (text or transcribed audio) and get an AI-assisted reply
// @Tags Mobile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param client_id path string true "Client ticket id"
// @Param note body MobileNoteRequest true "Follow-up text or audio_file_ref"
// @Success 200 {object} MobileFollowUpResponse
// @Router /mobile/ai/voice-agent/{client_id} [post]
func (h *Handler) appendMobileVoiceAgentNote(c *gin.Context) {
	h.followUp(c, "appendMobileVoiceAgentNote")
}

// followUp backs both the chat and voice-agent endpoints: it appends
// the caller's message (transcribing audio first when no text was
// given), generates an assistant reply via h.conversation and returns
// it alongside the incident's current priority, mirroring the original
// service's /chat/{session}/messages and /ai/voice-agent responses.
func (h *Handler) followUp(c *gin.Context, method string) {
	log := h.logger.WithField("method", method)

	var req MobileNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	clientID := c.Param("client_id")
	inc, err := h.coordinator.GetByExternalID(ctx, clientID)
	if err != nil {
		writeError(c, log, err)
		return
	}

	userText := req.Text
	transcript := ""
	if userText == "" && req.AudioFileRef != "" && h.stt != nil {
		vt, err := h.stt.Transcribe(ctx, req.AudioFileRef)
		if err != nil || vt.RawText == "" {
			log.WithField("error", err).Warn("voice-agent transcription unavailable, using placeholder")
			userText = "Need assistance. Voice input could not be transcribed."
		} else {
			userText = vt.RawText
			transcript = vt.RawText
		}
	}
	if userText == "" {
		userText = "Need assistance. Voice input could not be transcribed."
	}

	inc, err = h.coordinator.AppendNote(ctx, security.Principal(c), inc.ID, userText)
	if err != nil {
		writeError(c, log, err)
		return
	}

	summary := inc.Category
	if summary == "" {
		summary = "Emergency report"
	}
	reply := h.conversation.Reply(ctx, clientID, summary, userText)

	c.JSON(http.StatusOK, MobileFollowUpResponse{
		ReplyText:     reply,
		IncidentID:    inc.ID.String(),
		PriorityScore: inc.Priority,
		Transcript:    transcript,
	})
}

// @Summary Look up an incident by its mobile client id
// @Tags Mobile
// @Produce json
// @Security BearerAuth
// @Param client_id path string true "Client ticket id"
// @Success 200 {object} IncidentResponse
// @Router /mobile/incidents/{client_id} [get]
func (h *Handler) getMobileIncident(c *gin.Context) {
	log := h.logger.WithField("method", "getMobileIncident")
	inc, err := h.coordinator.GetByExternalID(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, incidentToResponse(inc))
}

// @Summary Retry a failed-terminal dispatch job
// @Tags Mobile
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dispatch job id"
// @Success 200
// @Router /mobile/dispatch/{id}/retry [post]
func (h *Handler) retryDispatchJob(c *gin.Context) {
	log := h.logger.WithField("method", "retryDispatchJob")

	if d := authz.Authorise(security.Principal(c), authz.ActionRetryDispatch, authz.Resource{}); !d.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": d.Reason, "kind": kindForbidden})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid dispatch job id")
		return
	}

	if err := h.store.ResetDispatchJob(c.Request.Context(), id); err != nil {
		writeError(c, log, err)
		return
	}
	c.Status(http.StatusOK)
}
