// Package authz enforces record ownership.
package authz

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrForbidden is returned when the acting user does not own a record.
var ErrForbidden = errors.New("forbidden")

// CheckOwner returns an error wrapping ErrForbidden unless actor owns the record.
func CheckOwner(actor, owner uuid.UUID, what string) error {
	if actor == uuid.Nil || actor != owner {
		return fmt.Errorf("%s not owned by user %s: %w", what, actor, ErrForbidden)
	}
	return nil
}
