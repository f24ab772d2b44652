package server

import (
	"github.com/gofiber/fiber/v2"

	"planhub/internal/models"
	"planhub/internal/service"
)

// UpdateProfileRequest is the body for profile updates.
type UpdateProfileRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// GetMyProfile returns the current user's account.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile updates the current user's username and full name.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   userID,
		Username: req.Username,
		FullName: req.FullName,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// GetAllUsers lists accounts for administrators.
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50, 200)

	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":  users,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// PromoteToAdmin grants admin rights to a user.
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(c.UserContext(), id, true)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// DemoteFromAdmin revokes a user's admin rights. Admins cannot demote
// themselves, so there is always at least one admin left.
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if id == currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Cannot demote your own account"))
	}

	user, err := s.userService.SetAdmin(c.UserContext(), id, false)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}
