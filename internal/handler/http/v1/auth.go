package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shenikar/incident-response-core/internal/security"
)

// @Summary Log in
// @Description Exchange (username, role, password) for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	log := h.logger.WithField("method", "login")

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	principal, err := security.Authenticate(h.cfg.AuthUsers, req.Username, req.Role, req.Password)
	if err != nil {
		log.WithField("username", req.Username).Warn("rejected login attempt")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username, role or password"})
		return
	}

	token, err := h.issuer.Issue(principal)
	if err != nil {
		log.WithError(err).Error("issue token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: timeNowPlus(h.cfg.JWTTTL)})
}
