package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yachtly/charter-service/internal/dtos"
	"github.com/yachtly/charter-service/internal/middleware"
	"github.com/yachtly/charter-service/internal/utils"
)

var validate = validator.New()

// decodeAndValidate fills dst from the JSON body and runs its validate tags.
// Failures come back as 400 AppErrors.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			details := formatValidationErrors(verrs)
			return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, details[0].Message, err)
		}
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", err)
	}
	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) []dtos.ValidationErrorDetail {
	details := make([]dtos.ValidationErrorDetail, 0, len(errs))
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", err.Field())
		case "min":
			message = fmt.Sprintf("Field '%s' must be at least %s in length", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("Field '%s' must not exceed %s in length", err.Field(), err.Param())
		case "numeric":
			message = fmt.Sprintf("Field '%s' must contain digits only", err.Field())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", err.Field(), err.Tag())
		}
		details = append(details, dtos.ValidationErrorDetail{
			Field:   err.Field(),
			Message: message,
			Code:    "validation_" + err.Tag(),
		})
	}
	return details
}

func getUserID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, utils.NewAppError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing userID in context", nil)
	}
	return id, nil
}
