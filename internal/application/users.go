package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users       domain.UserRepository
	authorities domain.AuthorityRepository
	validator   *Validator
}

func NewUserService(users domain.UserRepository, authorities domain.AuthorityRepository, validator *Validator) *UserService {
	return &UserService{users: users, authorities: authorities, validator: validator}
}

func (s *UserService) List(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) (domain.Page[domain.User], error) {
	return s.users.ListUsers(ctx, filter, page)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *UserService) Create(ctx context.Context, form UserForm) (domain.User, error) {
	form.normalize()
	violations, err := s.validator.Check("user", form)
	if err != nil {
		return domain.User{}, err
	}
	s.validator.CheckValue(violations, "user", "password", form.Password, "notblank,bcryptmax")

	grants, err := s.resolveGrants(ctx, form.Roles, violations)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.checkEmail(ctx, form.Email, nil, violations); err != nil {
		return domain.User{}, err
	}
	if err := violations.Err(); err != nil {
		return domain.User{}, err
	}

	hash, err := hashPassword(form.Password)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.CreateUser(ctx, domain.User{
		Name:     form.Name,
		Email:    form.Email,
		Password: hash,
		Active:   form.Active,
		Grants:   grants,
	})
}

// Update replaces name, email, active flag and roles. Passwords only change
// through ChangePassword.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, form UserForm) (domain.User, error) {
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return domain.User{}, err
	}

	form.normalize()
	violations, err := s.validator.Check("user", form)
	if err != nil {
		return domain.User{}, err
	}
	grants, err := s.resolveGrants(ctx, form.Roles, violations)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.checkEmail(ctx, form.Email, &id, violations); err != nil {
		return domain.User{}, err
	}
	if err := violations.Err(); err != nil {
		return domain.User{}, err
	}

	return s.users.UpdateUser(ctx, domain.User{
		ExternalID: id,
		Name:       form.Name,
		Email:      form.Email,
		Active:     form.Active,
		Grants:     grants,
	})
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, form PasswordForm) error {
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return err
	}
	violations, err := s.validator.Check("user", form)
	if err != nil {
		return err
	}
	if err := violations.Err(); err != nil {
		return err
	}

	hash, err := hashPassword(form.Password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.DeleteUser(ctx, id)
}

func (s *UserService) ListGrants(ctx context.Context, id uuid.UUID) ([]domain.Grant, error) {
	return s.users.ListGrants(ctx, id)
}

func (s *UserService) Grant(ctx context.Context, id uuid.UUID, form GrantForm) (domain.Grant, error) {
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return domain.Grant{}, err
	}
	violations, err := s.validator.Check("grant", form)
	if err != nil {
		return domain.Grant{}, err
	}
	if err := violations.Err(); err != nil {
		return domain.Grant{}, err
	}

	authority, err := s.authorities.GetAuthorityByName(ctx, strings.ToUpper(strings.TrimSpace(form.Authority)))
	if errors.Is(err, domain.ErrNotFound) {
		violations.Add("authority", "grant.errors.authority-is-unknown")
		return domain.Grant{}, violations
	}
	if err != nil {
		return domain.Grant{}, err
	}
	return s.users.GrantAuthority(ctx, id, authority.ID)
}

func (s *UserService) Revoke(ctx context.Context, id uuid.UUID, authorityName string) error {
	authority, err := s.authorities.GetAuthorityByName(ctx, strings.ToUpper(strings.TrimSpace(authorityName)))
	if err != nil {
		return err
	}
	return s.users.RevokeAuthority(ctx, id, authority.ID)
}

func (s *UserService) resolveGrants(ctx context.Context, roles []string, violations *domain.ValidationError) ([]domain.Grant, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	found, err := s.authorities.FindAuthoritiesByName(ctx, roles)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]domain.Authority, len(found))
	for _, a := range found {
		byName[a.Name] = a
	}
	grants := make([]domain.Grant, 0, len(roles))
	for _, name := range roles {
		a, ok := byName[name]
		if !ok {
			if !violations.Has("roles") {
				violations.Add("roles", "user.errors.roles-is-unknown")
			}
			continue
		}
		grants = append(grants, domain.Grant{Authority: a})
	}
	return grants, nil
}

func (s *UserService) checkEmail(ctx context.Context, email string, except *uuid.UUID, violations *domain.ValidationError) error {
	if violations.Has("email") {
		return nil
	}
	taken, err := s.users.EmailTaken(ctx, email, except)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		violations.Add("email", "user.errors.email-is-taken")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
