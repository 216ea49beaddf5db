package accounts

import (
	"context"

	"github.com/google/uuid"

	"github.com/spendwise-dev/spendwise/internal/model"
)

// DefaultNames are the accounts created for a new user.
var DefaultNames = []string{"Checking", "Credit Card"}

// CreateDefaults creates DefaultNames for actor, skipping names that exist.
func (s *Service) CreateDefaults(ctx context.Context, actor uuid.UUID) ([]model.Account, error) {
	var created []model.Account
	for _, name := range DefaultNames {
		if _, err := s.Lookup(ctx, actor, name); err == nil {
			continue
		}
		acct, err := s.Create(ctx, actor, name)
		if err != nil {
			return created, err
		}
		created = append(created, acct)
	}
	return created, nil
}
