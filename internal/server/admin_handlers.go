package server

import (
	"github.com/gofiber/fiber/v2"

	"planhub/internal/models"
	"planhub/internal/service"
)

// ReviewRequest is the body for approve/reject decisions.
type ReviewRequest struct {
	ReviewNotes string `json:"review_notes"`
}

// GetPendingRequests lists pending requests in submission order.
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	page := parsePagination(c, 20, 100)

	requests, err := s.requestService.ListPending(c.UserContext(), actor, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// ApproveRequest approves a pending request and mints its download token.
func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	var body ReviewRequest
	// Body is optional on approval.
	_ = c.BodyParser(&body)

	request, token, err := s.requestService.Approve(c.UserContext(), actor, id, body.ReviewNotes)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"request":      request,
		"token":        token,
		"download_url": "/api/downloads/" + token.Token,
	})
}

// RejectRequest rejects a pending request. Review notes are required so the
// requester learns why.
func (s *Server) RejectRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	var body ReviewRequest
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestService.Reject(c.UserContext(), actor, id, body.ReviewNotes)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(request)
}

// RegenerateDownloadLink issues a fresh token for an approved, unfulfilled
// request whose previous token expired. If an active token already exists it
// is returned unchanged.
func (s *Server) RegenerateDownloadLink(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	token, minted, err := s.requestService.RegenerateLink(c.UserContext(), actor, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusOK
	if minted {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"token":        token,
		"minted":       minted,
		"download_url": "/api/downloads/" + token.Token,
	})
}

// GetRequestAccessLog returns the audit trail of redemption attempts for one
// request, newest first.
func (s *Server) GetRequestAccessLog(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50, 200)

	entries, err := s.downloadService.History(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"entries": entries,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}

// CreateDocument registers a new restricted document in the catalog.
func (s *Server) CreateDocument(c *fiber.Ctx) error {
	var input service.CreateDocumentInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	document, err := s.documentService.Create(c.UserContext(), input)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(document)
}

// ArchiveDocument withdraws a document from the catalog. Existing approvals
// keep working unless redemption of archived documents is blocked by flag.
func (s *Server) ArchiveDocument(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.documentService.Archive(c.UserContext(), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Document archived"})
}

// RestoreDocument returns an archived document to the catalog.
func (s *Server) RestoreDocument(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.documentService.Restore(c.UserContext(), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Document restored"})
}
