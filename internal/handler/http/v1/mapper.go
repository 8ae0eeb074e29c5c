package v1

import "github.com/shenikar/incident-response-core/internal/models"

func incidentToResponse(inc *models.Incident) IncidentResponse {
	return IncidentResponse{
		ID:                   inc.ID,
		ExternalID:           inc.ExternalID,
		Source:               inc.Source,
		Text:                 inc.Text,
		Category:             inc.Category,
		Priority:             inc.Priority,
		PlaceLabel:           inc.PlaceLabel,
		Latitude:             inc.Latitude,
		Longitude:            inc.Longitude,
		HeadcountAffected:    inc.HeadcountAffected,
		RequiredDivisionType: inc.RequiredDivisionType,
		RequiredSkills:       inc.RequiredSkills,
		Status:               string(inc.Status),
		AssignedOrgID:        inc.AssignedOrgID,
		AssignedDivisionID:   inc.AssignedDivisionID,
		AssignedStaffID:      inc.AssignedStaffID,
		Notes:                inc.Notes,
		CreatedAt:            inc.CreatedAt,
		UpdatedAt:            inc.UpdatedAt,
	}
}

func incidentsToResponses(incidents []*models.Incident) []IncidentResponse {
	out := make([]IncidentResponse, len(incidents))
	for i, inc := range incidents {
		out[i] = incidentToResponse(inc)
	}
	return out
}

func incidentToMapPoint(inc *models.Incident) IncidentMapPoint {
	return IncidentMapPoint{
		ID:        inc.ID,
		Latitude:  inc.Latitude,
		Longitude: inc.Longitude,
		Status:    string(inc.Status),
		Priority:  inc.Priority,
		Category:  inc.Category,
	}
}

func facilityToResponse(f models.Facility) FacilityResponse {
	return FacilityResponse{
		ID:            f.ID,
		Type:          string(f.Type),
		Name:          f.Name,
		Latitude:      f.Latitude,
		Longitude:     f.Longitude,
		BedsAvailable: f.BedsAvailable(),
		DistanceKM:    f.DistanceKM,
	}
}

func candidateToResponse(c models.Candidate) CandidateResponse {
	resp := CandidateResponse{
		Score:     c.Score,
		Breakdown: c.Breakdown,
	}
	if c.Org != nil {
		resp.OrgID = c.Org.ID
		resp.OrgName = c.Org.Name
	}
	if c.Division != nil {
		resp.DivisionID = &c.Division.ID
	}
	if c.Staff != nil {
		resp.StaffID = &c.Staff.ID
	}
	return resp
}

func orgRequestToModel(r OrganizationRequest) *models.Organization {
	status := models.EntityStatusActive
	if r.Status != "" {
		status = models.EntityStatus(r.Status)
	}
	return &models.Organization{
		Name:      r.Name,
		Type:      models.OrgType(r.Type),
		Category:  models.OrgCategory(r.Category),
		Region:    r.Region,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Capacity:  r.Capacity,
		Status:    status,
	}
}

func orgToResponse(o models.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:          o.ID,
		Name:        o.Name,
		Type:        string(o.Type),
		Category:    string(o.Category),
		Region:      o.Region,
		Latitude:    o.Latitude,
		Longitude:   o.Longitude,
		Capacity:    o.Capacity,
		CurrentLoad: o.CurrentLoad,
		Status:      string(o.Status),
	}
}

func orgsToResponses(orgs []models.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, len(orgs))
	for i, o := range orgs {
		out[i] = orgToResponse(o)
	}
	return out
}

func divisionRequestToModel(r DivisionRequest) *models.Division {
	status := models.EntityStatusActive
	if r.Status != "" {
		status = models.EntityStatus(r.Status)
	}
	return &models.Division{
		OrganizationID: r.OrganizationID,
		Type:           models.DivisionType(r.Type),
		Description:    r.Description,
		Skills:         r.Skills,
		Capacity:       r.Capacity,
		Status:         status,
	}
}

func divisionToResponse(d models.Division) DivisionResponse {
	return DivisionResponse{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Type:           string(d.Type),
		Description:    d.Description,
		Skills:         d.Skills,
		Capacity:       d.Capacity,
		CurrentLoad:    d.CurrentLoad,
		Status:         string(d.Status),
	}
}

func divisionsToResponses(divisions []models.Division) []DivisionResponse {
	out := make([]DivisionResponse, len(divisions))
	for i, d := range divisions {
		out[i] = divisionToResponse(d)
	}
	return out
}

func staffRequestToModel(r StaffRequest) *models.Staff {
	status := models.EntityStatusActive
	if r.Status != "" {
		status = models.EntityStatus(r.Status)
	}
	return &models.Staff{
		OrgID:        r.OrgID,
		DivisionID:   r.DivisionID,
		Name:         r.Name,
		Role:         models.Role(r.Role),
		Skills:       r.Skills,
		Phone:        r.Phone,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Availability: models.AvailabilityAvailable,
		Status:       status,
	}
}

func staffToResponse(s models.Staff) StaffResponse {
	return StaffResponse{
		ID:           s.ID,
		OrgID:        s.OrgID,
		DivisionID:   s.DivisionID,
		Name:         s.Name,
		Role:         string(s.Role),
		Skills:       s.Skills,
		Phone:        s.Phone,
		Availability: string(s.Availability),
		Status:       string(s.Status),
	}
}

func staffSliceToResponses(staff []models.Staff) []StaffResponse {
	out := make([]StaffResponse, len(staff))
	for i, s := range staff {
		out[i] = staffToResponse(s)
	}
	return out
}
