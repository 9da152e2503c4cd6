package helper

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateStruct menjalankan validator.v10 atas DTO dan merender 422 saat gagal.
// Return nil kalau valid; kalau tidak, response sudah ditulis.
func ValidateStruct(c *fiber.Ctx, in any) error {
	if err := validate.Struct(in); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return JsonError(c, fiber.StatusBadRequest, "invalid input")
		}
		fieldErrors := make(map[string][]string, len(ve))
		for _, fe := range ve {
			fieldErrors[fe.Field()] = append(fieldErrors[fe.Field()], fe.Tag())
		}
		return JsonValidationError(c, fieldErrors)
	}
	return nil
}
