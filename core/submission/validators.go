package submission

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/miradi/core"
)

var (
	reviewStatusTag  = "reviewstatus"
	reviewStatusText = "invalid review status"
)

func init() {
	_ = core.Validate.RegisterValidation(reviewStatusTag, reviewStatusValidation)
	core.RegisterCustomTranslation(reviewStatusTag, reviewStatusText)
}

// reviewStatusValidation checks that the status set by a review is one of
// ReviewStatuses. The stored enumeration alone is not trusted.
func reviewStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range ReviewStatuses {
		if status == s {
			return true
		}
	}
	return false
}
