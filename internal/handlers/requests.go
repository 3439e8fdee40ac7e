package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

var validate = newValidator()

// newValidator reports fields by their json/form names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// validateRequest runs struct validation and converts the first failure
// into a services.ValidationError.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &services.ValidationError{Field: fe.Field(), Reason: reason}
	}
	return &services.ValidationError{Field: "request", Reason: err.Error()}
}

type trackRequest struct {
	ItemID          string  `json:"itemId" validate:"required"`
	ItemType        string  `json:"itemType" validate:"required"`
	InteractionType string  `json:"interactionType" validate:"required"`
	Rating          *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Mood            *string `json:"mood"`
	Duration        *int    `json:"duration" validate:"omitempty,min=0"`
}

func (r trackRequest) input() services.TrackInput {
	return services.TrackInput{
		ItemID:   models.ID(strings.TrimSpace(r.ItemID)),
		ItemType: r.ItemType,
		Kind:     r.InteractionType,
		InteractionDetails: models.InteractionDetails{
			Rating:   r.Rating,
			Mood:     r.Mood,
			Duration: r.Duration,
		},
	}
}

type favoriteRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	ItemType string `json:"itemType" validate:"required"`
}

type hybridQuery struct {
	Mood  string `form:"mood" validate:"omitempty,max=64"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

type collaborativeQuery struct {
	K          int    `form:"k" validate:"omitempty,min=1,max=500"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=100"`
	MinOverlap int    `form:"minOverlap" validate:"omitempty,min=1,max=100"`
	Metric     string `form:"metric" validate:"omitempty,oneof=cosine jaccard"`
}
