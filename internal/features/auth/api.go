package auth

import (
	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
}

func NewAuthApi(controller *AuthController) *AuthApi {
	return &AuthApi{controller: controller}
}

func (h *AuthApi) Setup(app *fiber.App) {
	grp := app.Group("/api/auth")

	grp.Post("/register", h.controller.Register)
	grp.Post("/login", h.controller.Login)
}
