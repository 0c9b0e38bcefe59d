package handlers

import "github.com/gofiber/fiber/v2"

func WriteErrorForTest(c *fiber.Ctx, err error) error {
	return writeError(c, err, "Something went wrong")
}
