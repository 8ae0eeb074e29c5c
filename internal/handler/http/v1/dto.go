package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/shenikar/incident-response-core/internal/models"
)

// LoginRequest is POST /auth/login's body.
// @Description Credentials exchanged for a bearer token
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateIncidentRequest is POST /sos's body.
// @Description DTO for reporting a new emergency incident
type CreateIncidentRequest struct {
	Text              string  `json:"text" validate:"required,min=2"`
	VoiceTranscript   string  `json:"voice_transcript,omitempty"`
	Latitude          float64 `json:"latitude" validate:"required,latitude"`
	Longitude         float64 `json:"longitude" validate:"required,longitude"`
	PlaceLabel        string  `json:"place_label,omitempty"`
	HeadcountAffected int     `json:"headcount_affected,omitempty" validate:"gte=0"`
	CategoryHint      string  `json:"category_hint,omitempty"`
	Source            string  `json:"source,omitempty"`
	ExternalID        string  `json:"external_id,omitempty"`
}

// UpdateIncidentRequest is PUT /sos/{id}'s body: a bounded append-only
// note update. Status itself only changes through the lifecycle
// endpoints (accept/reject/complete/cancel).
// @Description DTO for appending a note to an incident
type UpdateIncidentRequest struct {
	Note string `json:"note" validate:"required,min=1"`
}

// IncidentResponse is the wire shape of an incident.
// @Description Incident as returned by the API
type IncidentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ExternalID           string     `json:"external_id,omitempty"`
	Source               string     `json:"source"`
	Text                 string     `json:"text"`
	Category             string     `json:"category"`
	Priority             int        `json:"priority"`
	PlaceLabel           string     `json:"place_label,omitempty"`
	Latitude             float64    `json:"latitude"`
	Longitude            float64    `json:"longitude"`
	HeadcountAffected    int        `json:"headcount_affected"`
	RequiredDivisionType string     `json:"required_division_type,omitempty"`
	RequiredSkills       []string   `json:"required_skills,omitempty"`
	Status               string     `json:"status"`
	AssignedOrgID        *uuid.UUID `json:"assigned_org_id,omitempty"`
	AssignedDivisionID   *uuid.UUID `json:"assigned_division_id,omitempty"`
	AssignedStaffID      *uuid.UUID `json:"assigned_staff_id,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IncidentMapPoint is the trimmed shape GET /sos/map returns.
type IncidentMapPoint struct {
	ID        uuid.UUID `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Status    string    `json:"status"`
	Priority  int       `json:"priority"`
	Category  string    `json:"category"`
}

// FacilityResponse is the wire shape of a nearest-facility result.
type FacilityResponse struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	BedsAvailable int       `json:"beds_available"`
	DistanceKM    float64   `json:"distance_km"`
}

// CandidateResponse is one ranked candidate from GET /emergency/smart-assignment.
type CandidateResponse struct {
	OrgID      uuid.UUID             `json:"org_id"`
	OrgName    string                `json:"org_name"`
	DivisionID *uuid.UUID            `json:"division_id,omitempty"`
	StaffID    *uuid.UUID            `json:"staff_id,omitempty"`
	Score      float64               `json:"score"`
	Breakdown  models.ScoreBreakdown `json:"score_breakdown"`
}

// IncidentIDRequest is the shared body shape for the single-incident
// lifecycle actions that take no other argument.
type IncidentIDRequest struct {
	IncidentID uuid.UUID `json:"incident_id" validate:"required"`
}

// RejectRequest is POST /emergency/reject-assignment's body.
type RejectRequest struct {
	IncidentID uuid.UUID `json:"incident_id" validate:"required"`
	Reason     string    `json:"reason,omitempty"`
}

// EmergencySummaryResponse is GET /emergency/emergency-summary's body: a
// count of incidents per lifecycle status.
type EmergencySummaryResponse struct {
	Pending            int `json:"pending"`
	PendingAssignment  int `json:"pending_assignment"`
	InProgress         int `json:"in_progress"`
	Done               int `json:"done"`
	Cancelled          int `json:"cancelled"`
}

// OrganizationRequest is the body for creating/updating an organisation.
type OrganizationRequest struct {
	Name      string  `json:"name" validate:"required"`
	Type      string  `json:"type" validate:"required,oneof=government ngo volunteer_group private"`
	Category  string  `json:"category" validate:"required,oneof=emergency_response medical relief logistics rescue"`
	Region    string  `json:"region,omitempty"`
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
	Capacity  int     `json:"capacity" validate:"required,gt=0"`
	Status    string  `json:"status,omitempty" validate:"omitempty,oneof=active available overloaded inactive"`
}

// OrganizationResponse is the wire shape of an organisation.
type OrganizationResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Region      string    `json:"region,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Capacity    int       `json:"capacity"`
	CurrentLoad int       `json:"current_load"`
	Status      string    `json:"status"`
}

// DivisionRequest is the body for creating/updating a division.
type DivisionRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" validate:"required"`
	Type           string    `json:"type" validate:"required,oneof=medical rescue logistics communication emergency_response"`
	Description    string    `json:"description,omitempty"`
	Skills         []string  `json:"skills,omitempty"`
	Capacity       int       `json:"capacity" validate:"required,gt=0"`
	Status         string    `json:"status,omitempty" validate:"omitempty,oneof=active available overloaded inactive"`
}

// DivisionResponse is the wire shape of a division.
type DivisionResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Type           string    `json:"type"`
	Description    string    `json:"description,omitempty"`
	Skills         []string  `json:"skills,omitempty"`
	Capacity       int       `json:"capacity"`
	CurrentLoad    int       `json:"current_load"`
	Status         string    `json:"status"`
}

// StaffRequest is the body for creating/updating a staff member.
type StaffRequest struct {
	OrgID      uuid.UUID  `json:"org_id" validate:"required"`
	DivisionID *uuid.UUID `json:"division_id,omitempty"`
	Name       string     `json:"name" validate:"required"`
	Role       string     `json:"role" validate:"required,oneof=manager specialist worker volunteer"`
	Skills     []string   `json:"skills,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	Status     string     `json:"status,omitempty" validate:"omitempty,oneof=active available overloaded inactive"`
}

// StaffResponse is the wire shape of a staff member.
type StaffResponse struct {
	ID           uuid.UUID  `json:"id"`
	OrgID        uuid.UUID  `json:"org_id"`
	DivisionID   *uuid.UUID `json:"division_id,omitempty"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Skills       []string   `json:"skills,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Availability string     `json:"availability"`
	Status       string     `json:"status"`
}

// MobileTicketResponse is what POST /mobile/tickets returns.
type MobileTicketResponse struct {
	TicketIDClient string                   `json:"ticket_id_client"`
	DispatchJobID  uuid.UUID                `json:"dispatch_job_id"`
	Lane           string                   `json:"lane"`
	Annotations    models.IntakeAnnotations `json:"annotations"`
}

// MobileNoteRequest is the body for the chat / voice-agent follow-up
// endpoints. Both endpoints require either Text or an AudioFileRef; the
// AudioFileRef is transcribed when Text is blank.
type MobileNoteRequest struct {
	Text         string `json:"text" validate:"required_without=AudioFileRef"`
	AudioFileRef string `json:"audio_file_ref,omitempty" validate:"required_without=Text"`
}

// MobileFollowUpResponse is what the chat and voice-agent endpoints
// return: the generated reply plus the incident's current priority
// score, mirroring the original service's {"reply_text", "incident_id",
// "priority_score"} response shape.
type MobileFollowUpResponse struct {
	ReplyText     string `json:"reply_text"`
	IncidentID    string `json:"incident_id"`
	PriorityScore int    `json:"priority_score"`
	Transcript    string `json:"transcript,omitempty"`
}
