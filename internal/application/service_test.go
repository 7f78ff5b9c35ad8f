package application

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/db/gormdb"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServices struct {
	repo        *gormdb.Repository
	costCenters *CostCenterService
	users       *UserService
	authorities *AuthorityService
	auth        *AuthService
	bootstrap   *Bootstrapper
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	ctx := context.Background()

	db, err := gormdb.Open(gormdb.DriverSQLite, filepath.Join(t.TempDir(), "webbudget_test.db"), nil)
	require.NoError(t, err)
	require.NoError(t, gormdb.RunMigrations(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := gormdb.NewRepository(db)
	v := NewValidator()
	audit := NewAuditService(repo, nil)
	authorities := NewAuthorityService(repo, v)
	auth, err := NewAuthService(repo, audit, TokenConfig{Secret: []byte("test-secret"), Issuer: "webbudget-test", TTL: time.Hour})
	require.NoError(t, err)

	s := testServices{
		repo:        repo,
		costCenters: NewCostCenterService(repo, v),
		users:       NewUserService(repo, repo, v),
		authorities: authorities,
		auth:        auth,
		bootstrap:   NewBootstrapper(repo, authorities, audit),
	}
	require.NoError(t, s.bootstrap.BootstrapAdmin(ctx, "", "admin@webbudget.com.br", "admin"))
	return s
}

func violationProperties(t *testing.T, err error) []string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	props := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		props = append(props, v.Property)
	}
	return props
}

func boolPtr(v bool) *bool { return &v }

func TestCostCenterCreateDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	created, err := s.costCenters.Create(ctx, CostCenterForm{Description: "  Travel "})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, "Travel", created.Description)

	inactive, err := s.costCenters.Create(ctx, CostCenterForm{Description: "Old", Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, inactive.Active)
}

func TestCostCenterBlankDescriptionIsViolation(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.costCenters.Create(ctx, CostCenterForm{Description: "   "})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, domain.Violation{Property: "description", Message: "cost-center.errors.description-is-blank"}, verr.Violations[0])
}

func TestCostCenterUpdateUnknownReportsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.costCenters.Update(ctx, uuid.New(), CostCenterForm{Description: ""})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err := s.costCenters.List(ctx, domain.CostCenterFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements)
}

func TestUserCreateMissingFields(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.users.Create(ctx, UserForm{})
	assert.ElementsMatch(t, []string{"name", "email", "password", "roles"}, violationProperties(t, err))
}

func TestUserCreateHashesPasswordAndResolvesRoles(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	u, err := s.users.Create(ctx, UserForm{
		Name:     "User",
		Email:    "User@WebBudget.com.br",
		Password: "user",
		Roles:    []string{"registration", "REGISTRATION"},
	})
	require.NoError(t, err)
	assert.Equal(t, "user@webbudget.com.br", u.Email)
	assert.False(t, u.Active)
	assert.Equal(t, []string{domain.AuthorityRegistration}, u.AuthorityNames())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("user")))

	_, err = s.users.Create(ctx, UserForm{Name: "Other", Email: "user@webbudget.com.br", Password: "x", Authorities: []string{"FINANCIAL"}})
	assert.Equal(t, []string{"email"}, violationProperties(t, err))

	_, err = s.users.Create(ctx, UserForm{Name: "Other", Email: "other@webbudget.com.br", Password: "x", Roles: []string{"ROOT"}})
	assert.Equal(t, []string{"roles"}, violationProperties(t, err))
}

func TestUserUpdateKeepsOwnEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	u, err := s.users.Create(ctx, UserForm{Name: "Ana", Email: "ana@example.com", Password: "pw", Roles: []string{"FINANCIAL"}})
	require.NoError(t, err)

	updated, err := s.users.Update(ctx, u.ExternalID, UserForm{Name: "Ana Maria", Email: "ana@example.com", Active: true, Roles: []string{"DASHBOARDS"}})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, []string{domain.AuthorityDashboards}, updated.AuthorityNames())

	_, err = s.users.Update(ctx, u.ExternalID, UserForm{Name: "Ana", Email: "admin@webbudget.com.br", Roles: []string{"DASHBOARDS"}})
	assert.Equal(t, []string{"email"}, violationProperties(t, err))

	_, err = s.users.Update(ctx, uuid.New(), UserForm{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserGrantAndRevoke(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	u, err := s.users.Create(ctx, UserForm{Name: "Rui", Email: "rui@example.com", Password: "pw", Roles: []string{"FINANCIAL"}})
	require.NoError(t, err)

	g, err := s.users.Grant(ctx, u.ExternalID, GrantForm{Authority: "dashboards"})
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorityDashboards, g.Authority.Name)

	_, err = s.users.Grant(ctx, u.ExternalID, GrantForm{Authority: "nope"})
	assert.Equal(t, []string{"authority"}, violationProperties(t, err))

	require.NoError(t, s.users.Revoke(ctx, u.ExternalID, "DASHBOARDS"))
	grants, err := s.users.ListGrants(ctx, u.ExternalID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, domain.AuthorityFinancial, grants[0].Authority.Name)

	assert.ErrorIs(t, s.users.Revoke(ctx, u.ExternalID, "nope"), domain.ErrNotFound)
}

func TestAuthorityServiceProtectsBuiltIns(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	admin, err := s.repo.GetAuthorityByName(ctx, domain.AuthorityAdministration)
	require.NoError(t, err)
	assert.ErrorIs(t, s.authorities.Delete(ctx, admin.ExternalID), domain.ErrConflict)

	created, err := s.authorities.Create(ctx, AuthorityForm{Name: " reports "})
	require.NoError(t, err)
	assert.Equal(t, "REPORTS", created.Name)

	_, err = s.authorities.Create(ctx, AuthorityForm{Name: "Reports"})
	assert.Equal(t, []string{"name"}, violationProperties(t, err))

	renamed, err := s.authorities.Update(ctx, created.ExternalID, AuthorityForm{Name: "REPORTS"})
	require.NoError(t, err)
	assert.Equal(t, "REPORTS", renamed.Name)

	require.NoError(t, s.authorities.Delete(ctx, created.ExternalID))
}

func TestBootstrapAdminRunsOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	require.NoError(t, s.bootstrap.BootstrapAdmin(ctx, "", "second@webbudget.com.br", "admin"))
	count, err := s.repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	admin, err := s.repo.GetUserByEmail(ctx, "admin@webbudget.com.br")
	require.NoError(t, err)
	assert.True(t, admin.Active)
	assert.ElementsMatch(t, domain.DefaultAuthorities, admin.AuthorityNames())
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.auth.Login(ctx, Credential{Username: "admin@webbudget.com.br", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	res, err := s.auth.Login(ctx, Credential{Email: "ADMIN@webbudget.com.br", Password: "admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	identity, err := s.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@webbudget.com.br", identity.User.Email)
	assert.True(t, identity.Has(domain.AuthorityRegistration))

	_, err = s.auth.Authenticate(ctx, res.Token+"x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticateRejectsInactiveAndExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	u, err := s.users.Create(ctx, UserForm{Name: "Leo", Email: "leo@example.com", Password: "pw", Active: true, Roles: []string{"REGISTRATION"}})
	require.NoError(t, err)

	res, err := s.auth.Login(ctx, Credential{Username: "leo@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = s.users.Update(ctx, u.ExternalID, UserForm{Name: "Leo", Email: "leo@example.com", Active: false, Roles: []string{"REGISTRATION"}})
	require.NoError(t, err)
	_, err = s.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.auth.Login(ctx, Credential{Username: "leo@example.com", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	admin, err := s.auth.Login(ctx, Credential{Username: "admin@webbudget.com.br", Password: "admin"})
	require.NoError(t, err)
	s.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.auth.Authenticate(ctx, admin.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
