package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/shenikar/incident-response-core/internal/security"
)

func (h *Handler) requireManageFleet(c *gin.Context) bool {
	if d := authz.Authorise(security.Principal(c), authz.ActionManageFleet, authz.Resource{}); !d.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": d.Reason, "kind": kindForbidden})
		return false
	}
	return true
}

// @Summary Create an organisation
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param organization body OrganizationRequest true "Organisation"
// @Success 201 {object} OrganizationResponse
// @Router /fleet/organizations [post]
func (h *Handler) createOrganization(c *gin.Context) {
	log := h.logger.WithField("method", "createOrganization")
	if !h.requireManageFleet(c) {
		return
	}

	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	org := orgRequestToModel(req)
	if err := h.store.CreateOrganization(c.Request.Context(), org); err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, orgToResponse(*org))
}

// @Summary List organisations
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Success 200 {array} OrganizationResponse
// @Router /fleet/organizations [get]
func (h *Handler) listOrganizations(c *gin.Context) {
	log := h.logger.WithField("method", "listOrganizations")
	orgs, err := h.store.ListAllOrganizations(c.Request.Context())
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, orgsToResponses(orgs))
}

// @Summary Get an organisation
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Organisation ID"
// @Success 200 {object} OrganizationResponse
// @Router /fleet/organizations/{id} [get]
func (h *Handler) getOrganization(c *gin.Context) {
	log := h.logger.WithField("method", "getOrganization")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid organization id")
		return
	}
	org, err := h.store.GetOrganization(c.Request.Context(), id)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, orgToResponse(*org))
}

// @Summary Update an organisation
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Organisation ID"
// @Param organization body OrganizationRequest true "Organisation"
// @Success 200 {object} OrganizationResponse
// @Router /fleet/organizations/{id} [put]
func (h *Handler) updateOrganization(c *gin.Context) {
	log := h.logger.WithField("method", "updateOrganization")
	if !h.requireManageFleet(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid organization id")
		return
	}

	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	org := orgRequestToModel(req)
	org.ID = id
	if err := h.store.UpdateOrganization(c.Request.Context(), org); err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, orgToResponse(*org))
}

// @Summary Delete an organisation
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Organisation ID"
// @Success 204
// @Router /fleet/organizations/{id} [delete]
func (h *Handler) deleteOrganization(c *gin.Context) {
	log := h.logger.WithField("method", "deleteOrganization")
	if !h.requireManageFleet(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid organization id")
		return
	}
	if err := h.store.DeleteOrganization(c.Request.Context(), id); err != nil {
		writeError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Activate or deactivate an organisation
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Organisation ID"
// @Param status query string true "active or inactive"
// @Success 200
// @Router /fleet/organizations/{id}/status [patch]
func (h *Handler) setOrganizationStatus(c *gin.Context) {
	log := h.logger.WithField("method", "setOrganizationStatus")
	if !h.requireManageFleet(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid organization id")
		return
	}
	status := models.EntityStatus(c.Query("status"))
	if err := h.store.SetOrganizationStatus(c.Request.Context(), id, status); err != nil {
		writeError(c, log, err)
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Create a division
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param division body DivisionRequest true "Division"
// @Success 201 {object} DivisionResponse
// @Router /fleet/divisions [post]
func (h *Handler) createDivision(c *gin.Context) {
	log := h.logger.WithField("method", "createDivision")
	if !h.requireManageFleet(c) {
		return
	}

	var req DivisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	d := divisionRequestToModel(req)
	if err := h.store.CreateDivision(c.Request.Context(), d); err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, divisionToResponse(*d))
}

// @Summary List divisions for an organisation
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param org_id query string true "Organisation ID"
// @Success 200 {array} DivisionResponse
// @Router /fleet/divisions [get]
func (h *Handler) listDivisions(c *gin.Context) {
	log := h.logger.WithField("method", "listDivisions")
	orgID, err := uuid.Parse(c.Query("org_id"))
	if err != nil {
		badRequest(c, "invalid org_id")
		return
	}
	divisions, err := h.store.ListDivisionsByOrg(c.Request.Context(), orgID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, divisionsToResponses(divisions))
}

// @Summary Get a division
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Division ID"
// @Success 200 {object} DivisionResponse
// @Router /fleet/divisions/{id} [get]
func (h *Handler) getDivision(c *gin.Context) {
	log := h.logger.WithField("method", "getDivision")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid division id")
		return
	}
	d, err := h.store.GetDivision(c.Request.Context(), id)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, divisionToResponse(*d))
}

// @Summary Update a division
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Division ID"
// @Param division body DivisionRequest true "Division"
// @Success 200 {object} DivisionResponse
// @Router /fleet/divisions/{id} [put]
func (h *Handler) updateDivision(c *gin.Context) {
	log := h.logger.WithField("method", "updateDivision")
	if !h.requireManageFleet(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid division id")
		return
	}

	var req DivisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	d := divisionRequestToModel(req)
	d.ID = id
	if err := h.store.UpdateDivision(c.Request.Context(), d); err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, divisionToResponse(*d))
}

// @Summary Delete a division
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Division ID"
// @Success 204
// @Router /fleet/divisions/{id} [delete]
func (h *Handler) deleteDivision(c *gin.Context) {
	log := h.logger.WithField("method", "deleteDivision")
	if !h.requireManageFleet(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid division id")
		return
	}
	if err := h.store.DeleteDivision(c.Request.Context(), id); err != nil {
		writeError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Create a staff member
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param staff body StaffRequest true "Staff"
// @Success 201 {object} StaffResponse
// @Router /fleet/staff [post]
func (h *Handler) createStaff(c *gin.Context) {
	log := h.logger.WithField("method", "createStaff")
	if !h.requireManageFleet(c) {
		return
	}

	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	st := staffRequestToModel(req)
	if err := h.store.CreateStaff(c.Request.Context(), st); err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, staffToResponse(*st))
}

// @Summary List staff for an organisation
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param org_id query string true "Organisation ID"
// @Success 200 {array} StaffResponse
// @Router /fleet/staff [get]
func (h *Handler) listStaff(c *gin.Context) {
	log := h.logger.WithField("method", "listStaff")
	orgID, err := uuid.Parse(c.Query("org_id"))
	if err != nil {
		badRequest(c, "invalid org_id")
		return
	}
	staff, err := h.store.ListStaffByOrg(c.Request.Context(), orgID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, staffSliceToResponses(staff))
}

// @Summary Get a staff member
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Success 200 {object} StaffResponse
// @Router /fleet/staff/{id} [get]
func (h *Handler) getStaffMember(c *gin.Context) {
	log := h.logger.WithField("method", "getStaffMember")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid staff id")
		return
	}
	st, err := h.store.GetStaff(c.Request.Context(), id)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, staffToResponse(*st))
}

// @Summary Update a staff member
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Param staff body StaffRequest true "Staff"
// @Success 200 {object} StaffResponse
// @Router /fleet/staff/{id} [put]
func (h *Handler) updateStaff(c *gin.Context) {
	log := h.logger.WithField("method", "updateStaff")
	if !h.requireManageFleet(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid staff id")
		return
	}

	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	st := staffRequestToModel(req)
	st.ID = id
	if err := h.store.UpdateStaff(c.Request.Context(), st); err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, staffToResponse(*st))
}

// @Summary Delete a staff member
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Success 204
// @Router /fleet/staff/{id} [delete]
func (h *Handler) deleteStaff(c *gin.Context) {
	log := h.logger.WithField("method", "deleteStaff")
	if !h.requireManageFleet(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid staff id")
		return
	}
	if err := h.store.DeleteStaff(c.Request.Context(), id); err != nil {
		writeError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
