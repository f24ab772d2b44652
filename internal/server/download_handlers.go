package server

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"planhub/internal/models"
)

// DownloadDocument redeems a download token and streams the document file.
// The token in the path is the sole credential; no session is required.
func (s *Server) DownloadDocument(c *fiber.Ctx) error {
	tokenValue := strings.TrimSpace(c.Params("token"))
	if tokenValue == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Download token is required"))
	}

	download, err := s.downloadService.Redeem(c.UserContext(), tokenValue, c.IP())
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, download.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+download.FileName+`"`)
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(download.Size, 10))
	c.Set(fiber.HeaderCacheControl, "no-store")

	// fasthttp closes the stream after the response is written.
	return c.SendStream(download.Content, int(download.Size))
}
