package testbackend

import "github.com/gofiber/fiber/v2"

type envelope struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data,omitempty"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
	Total      *int              `json:"total,omitempty"`
	Page       *int              `json:"page,omitempty"`
	Limit      *int              `json:"limit,omitempty"`
	TotalPages *int              `json:"totalPages,omitempty"`
}

func sendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return sendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

func sendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(envelope{Success: true, Data: data, Message: message})
}

func sendList(c *fiber.Ctx, data interface{}, total, page, limit int) error {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return c.Status(fiber.StatusOK).JSON(envelope{
		Success:    true,
		Data:       data,
		Message:    "success",
		Total:      &total,
		Page:       &page,
		Limit:      &limit,
		TotalPages: &totalPages,
	})
}

func sendError(c *fiber.Ctx, status int, message string, fields map[string]string) error {
	if message == "" {
		message = "error"
	}
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(envelope{Success: false, Message: message, Errors: fields})
}
