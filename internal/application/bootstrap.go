package application

import (
	"context"
	"errors"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
)

type Bootstrapper struct {
	users       domain.UserRepository
	authorities *AuthorityService
	audit       *AuditService
}

func NewBootstrapper(users domain.UserRepository, authorities *AuthorityService, audit *AuditService) *Bootstrapper {
	return &Bootstrapper{users: users, authorities: authorities, audit: audit}
}

// BootstrapAdmin seeds the built-in authorities and, on an empty users
// table, an active administrator holding all of them.
func (b *Bootstrapper) BootstrapAdmin(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return errors.New("bootstrap admin email and password are required")
	}

	authorities, err := b.authorities.EnsureDefaults(ctx)
	if err != nil {
		return err
	}

	count, err := b.users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	grants := make([]domain.Grant, 0, len(authorities))
	for _, a := range authorities {
		grants = append(grants, domain.Grant{Authority: a})
	}

	u, err := b.users.CreateUser(ctx, domain.User{
		Name:     defaultString(name, "Administrador"),
		Email:    email,
		Password: hash,
		Active:   true,
		Grants:   grants,
	})
	if err != nil {
		return err
	}

	b.audit.WriteAudit(ctx, &u.ID, "auth.bootstrap_admin", "user", u.ExternalID.String(), "initial admin created")
	return nil
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
