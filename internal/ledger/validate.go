package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spendwise-dev/spendwise/internal/model"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ErrInvalid is wrapped by every error built from ValidationErrors.
var ErrInvalid = errors.New("validation failed")

// ValidateTransaction checks the fields a user can set on an expense.
func ValidateTransaction(t model.Transaction) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(t.Merchant) == "" {
		errs = append(errs, ValidationError{Field: "merchant", Description: "must not be empty"})
	}
	if t.Amount <= 0 {
		errs = append(errs, ValidationError{
			Field:       "amount",
			Description: fmt.Sprintf("must be positive, got %s", model.FormatCents(t.Amount)),
		})
	}
	if t.Date.IsZero() {
		errs = append(errs, ValidationError{Field: "date", Description: "must be set"})
	}
	if _, err := model.ParseCategory(string(t.Category)); err != nil {
		errs = append(errs, ValidationError{Field: "category", Description: err.Error()})
	}
	return errs
}

func joinValidation(verrs []ValidationError) error {
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
