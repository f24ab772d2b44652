package server

import (
	"github.com/gofiber/fiber/v2"

	"planhub/internal/models"
	"planhub/internal/service"
)

// CreateRequest submits a new document access request for the current user.
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	var input service.CreateRequestInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestService.Create(c.UserContext(), actor, input)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

// GetMyRequests lists the current user's requests, newest first.
func (s *Server) GetMyRequests(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	page := parsePagination(c, 20, 100)

	requests, err := s.requestService.ListForUser(c.UserContext(), actor, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GetRequest returns a single request. Requesters see only their own;
// admins see any.
func (s *Server) GetRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	request, err := s.requestService.GetByID(c.UserContext(), actor, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(request)
}

// CancelRequest withdraws the current user's own pending request.
func (s *Server) CancelRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	request, err := s.requestService.Cancel(c.UserContext(), actor, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(request)
}
