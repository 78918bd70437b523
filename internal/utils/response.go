package utils

import "github.com/gofiber/fiber/v2"

// Response is the JSON envelope shared by every API endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SendSuccess writes a 200 envelope.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus writes a successful envelope with a custom status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{Success: true, Message: message, Data: data})
}

// SendError writes a failed envelope without payload.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail writes a failed envelope carrying optional details.
func Fail(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{Success: false, Message: message, Data: data})
}
