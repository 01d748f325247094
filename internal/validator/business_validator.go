package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single field-level validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts go-playground validator errors into our type
func ToValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			result = append(result, ValidationError{
				Field:   fe.Field(),
				Message: messageForTag(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return result
	}

	return ValidationErrors{{Field: "", Message: err.Error()}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "rating_score":
		return "must be an integer between 1 and 5"
	case "room_name":
		return "must be between 1 and 200 characters"
	case "room_description":
		return "must be at most 2000 characters"
	case "room_price":
		return "must be zero or positive"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Validator bundles struct validation with business rule checks
type Validator struct {
	business *BusinessValidator
}

// New creates a Validator with all business rules registered
func New() *Validator {
	return &Validator{business: NewBusinessValidator()}
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateRoomCreate validates room creation business rules
func (bv *BusinessValidator) ValidateRoomCreate(req *RoomCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateRoomUpdate validates room update business rules
func (bv *BusinessValidator) ValidateRoomUpdate(req *RoomUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateRating validates a rating submission. Scores outside [1,5] are
// rejected here, before they reach the rating aggregator.
func (bv *BusinessValidator) ValidateRating(req *RateRoomRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateMessageCreate validates a message post
func (bv *BusinessValidator) ValidateMessageCreate(req *MessageCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Rating score validation (1-5, integer)
	bv.validate.RegisterValidation("rating_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 1 && score <= 5
	})

	// Room name validation (1-200 characters after trimming)
	bv.validate.RegisterValidation("room_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 200
	})

	// Room description validation (max 2000 characters)
	bv.validate.RegisterValidation("room_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 2000
	})

	// Room price validation (non-negative, two decimal places handled by the column)
	bv.validate.RegisterValidation("room_price", func(fl validator.FieldLevel) bool {
		price := fl.Field().Float()
		return price >= 0
	})
}
