package server

import "github.com/gofiber/fiber/v2"

// GetDocuments lists the active document catalog.
func (s *Server) GetDocuments(c *fiber.Ctx) error {
	page := parsePagination(c, 50, 200)

	documents, err := s.documentService.ListActive(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"documents": documents,
		"limit":     page.Limit,
		"offset":    page.Offset,
	})
}

// GetDocument returns one catalog entry by ID.
func (s *Server) GetDocument(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	document, err := s.documentService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(document)
}
