package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/request"
)

type Handler struct {
	Issuer *Issuer
}

func NewHandler(issuer *Issuer) *Handler {
	return &Handler{Issuer: issuer}
}

type tokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// IssueToken handles POST /jwt.
func (h *Handler) IssueToken(c *fiber.Ctx) error {
	var body tokenRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}

	token, err := h.Issuer.Sign(strings.TrimSpace(body.Email), strings.TrimSpace(body.Name))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
	}
	return c.JSON(tokenResponse{Token: token})
}
