package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
)

type AuthorityService struct {
	repo      domain.AuthorityRepository
	validator *Validator
}

func NewAuthorityService(repo domain.AuthorityRepository, validator *Validator) *AuthorityService {
	return &AuthorityService{repo: repo, validator: validator}
}

func (s *AuthorityService) List(ctx context.Context, filter domain.AuthorityFilter, page domain.PageRequest) (domain.Page[domain.Authority], error) {
	return s.repo.ListAuthorities(ctx, filter, page)
}

func (s *AuthorityService) Get(ctx context.Context, id uuid.UUID) (domain.Authority, error) {
	return s.repo.GetAuthority(ctx, id)
}

func (s *AuthorityService) Create(ctx context.Context, form AuthorityForm) (domain.Authority, error) {
	name, err := s.validate(ctx, form, nil)
	if err != nil {
		return domain.Authority{}, err
	}
	return s.repo.CreateAuthority(ctx, domain.Authority{Name: name})
}

func (s *AuthorityService) Update(ctx context.Context, id uuid.UUID, form AuthorityForm) (domain.Authority, error) {
	current, err := s.repo.GetAuthority(ctx, id)
	if err != nil {
		return domain.Authority{}, err
	}
	if isBuiltIn(current.Name) {
		return domain.Authority{}, fmt.Errorf("%w: authority %s is built in", domain.ErrConflict, current.Name)
	}
	name, err := s.validate(ctx, form, &current)
	if err != nil {
		return domain.Authority{}, err
	}
	return s.repo.UpdateAuthority(ctx, domain.Authority{ExternalID: id, Name: name})
}

// Delete removes the authority together with all of its grants.
func (s *AuthorityService) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.GetAuthority(ctx, id)
	if err != nil {
		return err
	}
	if isBuiltIn(current.Name) {
		return fmt.Errorf("%w: authority %s is built in", domain.ErrConflict, current.Name)
	}
	return s.repo.DeleteAuthority(ctx, id)
}

// EnsureDefaults creates the built-in authorities that are missing.
func (s *AuthorityService) EnsureDefaults(ctx context.Context) ([]domain.Authority, error) {
	out := make([]domain.Authority, 0, len(domain.DefaultAuthorities))
	for _, name := range domain.DefaultAuthorities {
		a, err := s.repo.CreateAuthorityIfMissing(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("ensure authority %s: %w", name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *AuthorityService) validate(ctx context.Context, form AuthorityForm, current *domain.Authority) (string, error) {
	violations, err := s.validator.Check("authority", form)
	if err != nil {
		return "", err
	}
	name := strings.ToUpper(strings.TrimSpace(form.Name))
	if !violations.Has("name") && (current == nil || current.Name != name) {
		_, err := s.repo.GetAuthorityByName(ctx, name)
		switch {
		case err == nil:
			violations.Add("name", "authority.errors.name-is-taken")
		case !errors.Is(err, domain.ErrNotFound):
			return "", err
		}
	}
	return name, violations.Err()
}

func isBuiltIn(name string) bool {
	return slices.Contains(domain.DefaultAuthorities, name)
}
