package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spendwise-dev/spendwise/internal/authz"
	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
)

var (
	// ErrEmptyName is returned when an account name is blank.
	ErrEmptyName = errors.New("account name is empty")
	// ErrDuplicateName is returned when the user already has an account with that name.
	ErrDuplicateName = errors.New("account name already in use")
)

// Service manages a user's accounts.
type Service struct {
	store store.Store
}

// NewService creates a Service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Create adds an account owned by actor.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, name string) (model.Account, error) {
	if actor == uuid.Nil {
		return model.Account{}, fmt.Errorf("creating account: %w", authz.ErrForbidden)
	}
	name, err := s.checkName(ctx, actor, uuid.Nil, name)
	if err != nil {
		return model.Account{}, err
	}
	acct, err := s.store.CreateAccount(ctx, model.Account{OwnerID: actor, Name: name})
	if err != nil {
		return model.Account{}, fmt.Errorf("creating account: %w", err)
	}
	return acct, nil
}

// Get returns an account owned by actor.
func (s *Service) Get(ctx context.Context, actor, id uuid.UUID) (model.Account, error) {
	acct, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	if err := authz.CheckOwner(actor, acct.OwnerID, "account "+id.String()); err != nil {
		return model.Account{}, err
	}
	return acct, nil
}

// List returns actor's accounts in creation order.
func (s *Service) List(ctx context.Context, actor uuid.UUID) ([]model.Account, error) {
	accts, err := s.store.ListAccounts(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accts, nil
}

// Lookup resolves an account by id or, failing that, by case-insensitive name.
func (s *Service) Lookup(ctx context.Context, actor uuid.UUID, ref string) (model.Account, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.Get(ctx, actor, id)
	}
	accts, err := s.List(ctx, actor)
	if err != nil {
		return model.Account{}, err
	}
	for _, a := range accts {
		if strings.EqualFold(a.Name, strings.TrimSpace(ref)) {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %q: %w", ref, store.ErrNotFound)
}

// Rename changes an account's name.
func (s *Service) Rename(ctx context.Context, actor, id uuid.UUID, name string) (model.Account, error) {
	acct, err := s.Get(ctx, actor, id)
	if err != nil {
		return model.Account{}, err
	}
	name, err = s.checkName(ctx, actor, id, name)
	if err != nil {
		return model.Account{}, err
	}
	acct.Name = name
	if err := s.store.UpdateAccount(ctx, acct); err != nil {
		return model.Account{}, fmt.Errorf("renaming account: %w", err)
	}
	return acct, nil
}

// Delete removes an account and all of its transactions.
func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

func (s *Service) checkName(ctx context.Context, actor, self uuid.UUID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	accts, err := s.List(ctx, actor)
	if err != nil {
		return "", err
	}
	for _, a := range accts {
		if a.ID != self && strings.EqualFold(a.Name, name) {
			return "", fmt.Errorf("%q: %w", name, ErrDuplicateName)
		}
	}
	return name, nil
}
