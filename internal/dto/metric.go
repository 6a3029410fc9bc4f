package dto

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/HASKI-RAK/laac-api/internal/models"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		_, err := time.Parse(time.RFC3339, raw)
		return err == nil
	})
	return v
}

// ComputeMetricRequest carries the query-string filters of a metric
// computation request.
type ComputeMetricRequest struct {
	CourseID   string `form:"courseId" validate:"omitempty,max=256"`
	TopicID    string `form:"topicId" validate:"omitempty,max=256"`
	ElementID  string `form:"elementId" validate:"omitempty,max=2048"`
	UserID     string `form:"userId" validate:"omitempty,max=2048"`
	GroupID    string `form:"groupId" validate:"omitempty,max=256"`
	Since      string `form:"since" validate:"omitempty,rfc3339"`
	Until      string `form:"until" validate:"omitempty,rfc3339"`
	InstanceID string `form:"instanceId" validate:"omitempty,max=256"`
}

// ToParams validates the request and converts it into metric parameters,
// parsing the time window.
func (r *ComputeMetricRequest) ToParams() (models.MetricParams, error) {
	params := models.MetricParams{
		CourseID:   r.CourseID,
		TopicID:    r.TopicID,
		ElementID:  r.ElementID,
		UserID:     r.UserID,
		GroupID:    r.GroupID,
		InstanceID: r.InstanceID,
	}

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := fieldErrs[0]
			if field.Tag() == "rfc3339" {
				return params, appErrors.Clone(appErrors.ErrValidation,
					"invalid "+queryName(field.Field())+", expected RFC3339 timestamp")
			}
			return params, appErrors.Clone(appErrors.ErrValidation,
				"invalid "+queryName(field.Field()))
		}
		return params, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	if r.Since != "" {
		since, _ := time.Parse(time.RFC3339, r.Since)
		params.Since = &since
	}
	if r.Until != "" {
		until, _ := time.Parse(time.RFC3339, r.Until)
		params.Until = &until
	}

	return params, nil
}

// queryName maps the struct field name back to the query parameter name
// surfaced to clients.
func queryName(field string) string {
	switch field {
	case "CourseID":
		return "courseId"
	case "TopicID":
		return "topicId"
	case "ElementID":
		return "elementId"
	case "UserID":
		return "userId"
	case "GroupID":
		return "groupId"
	case "Since":
		return "since"
	case "Until":
		return "until"
	case "InstanceID":
		return "instanceId"
	default:
		return field
	}
}

// InvalidateResponse reports how many cache entries an invalidation
// removed.
type InvalidateResponse struct {
	MetricID    string `json:"metricId"`
	DeletedKeys int    `json:"deletedKeys"`
}
