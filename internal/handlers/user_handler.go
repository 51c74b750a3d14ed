package handlers

import (
	"net/http"

	"gatehouse/internal/pagination"
	"gatehouse/internal/services"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user listing.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns the portal's users.
// @Summary     List users
// @Description List users without password data. Requires manager level or above
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum number of users (max 100)"
// @Success     200 {array}  models.User "Users"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Insufficient permissions"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req pagination.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	req.Defaults(services.MaxUsers, services.MaxUsers)

	users, err := h.userService.ListUsers(principal, req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
