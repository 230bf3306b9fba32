package service

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names in messages
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

func (s *Service) validateCreateOrder(input model.CreateOrderDTO) *model.APIError {
	if input.Data == nil {
		return &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrAmountRequiredMessage,
		}
	}

	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "amount" {
				return &model.APIError{
					Code:    http.StatusBadRequest,
					Message: model.ErrAmountRequiredMessage,
				}
			}
		}
	}

	return &model.APIError{
		Code:    http.StatusBadRequest,
		Message: validationMessage(err),
	}
}

// validationMessage names the first invalid field.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("%s: %s failed on %s", model.ErrInvalidRequestMessage, fe.Namespace(), fe.Tag())
	}

	return model.ErrInvalidRequestMessage
}
