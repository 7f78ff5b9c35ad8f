package gormdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "webbudget_test.db")

	db, err := Open(DriverSQLite, dbPath, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewRepository(db)
}

func TestCostCenterCreateAssignsExternalID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	created, err := repo.CreateCostCenter(ctx, domain.CostCenter{Description: "Travel", Active: true})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ExternalID)
	assert.NotZero(t, created.ID)

	got, err := repo.GetCostCenter(ctx, created.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, "Travel", got.Description)
	assert.True(t, got.Active)

	inactive, err := repo.CreateCostCenter(ctx, domain.CostCenter{Description: "Old rent", Active: false})
	require.NoError(t, err)
	got, err = repo.GetCostCenter(ctx, inactive.ExternalID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestCostCenterFilterSemantics(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, cc := range []domain.CostCenter{
		{Description: "Travel Expenses", Active: true},
		{Description: "travel insurance", Active: false},
		{Description: "Groceries", Active: true},
		{Description: "100% fun_money", Active: true},
	} {
		_, err := repo.CreateCostCenter(ctx, cc)
		require.NoError(t, err)
	}

	list := func(filter string, status domain.StatusFilter) []string {
		page, err := repo.ListCostCenters(ctx, domain.CostCenterFilter{Filter: filter, Status: status}, domain.PageRequest{})
		require.NoError(t, err)
		out := make([]string, 0, len(page.Content))
		for _, c := range page.Content {
			out = append(out, c.Description)
		}
		return out
	}

	assert.Equal(t, []string{"Travel Expenses", "travel insurance"}, list("TRAVEL", domain.StatusAll))
	assert.Equal(t, []string{"Travel Expenses"}, list("travel", domain.StatusActive))
	assert.Equal(t, []string{"travel insurance"}, list("travel", domain.StatusInactive))
	assert.Len(t, list("", domain.StatusAll), 4)
	assert.Len(t, list("   ", domain.StatusActive), 3)
	assert.Equal(t, []string{"100% fun_money"}, list("0%", domain.StatusAll))
	assert.Equal(t, []string{"100% fun_money"}, list("n_m", domain.StatusAll))
	assert.Empty(t, list("%", domain.StatusInactive))
}

func TestCostCenterPagingAndSorting(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, d := range []string{"C", "A", "B"} {
		_, err := repo.CreateCostCenter(ctx, domain.CostCenter{Description: d, Active: true})
		require.NoError(t, err)
	}

	page, err := repo.ListCostCenters(ctx, domain.CostCenterFilter{}, domain.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.Last)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "B", page.Content[0].Description)

	sorted, err := repo.ListCostCenters(ctx, domain.CostCenterFilter{}, domain.PageRequest{Sort: []domain.Sort{{Property: "description", Descending: true}}})
	require.NoError(t, err)
	require.Len(t, sorted.Content, 3)
	assert.Equal(t, "C", sorted.Content[0].Description)
	assert.Equal(t, "A", sorted.Content[2].Description)

	_, err = repo.ListCostCenters(ctx, domain.CostCenterFilter{}, domain.PageRequest{Sort: []domain.Sort{{Property: "password"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCostCenterUpdateAndDeleteUnknown(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.UpdateCostCenter(ctx, domain.CostCenter{ExternalID: uuid.New(), Description: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteCostCenter(ctx, uuid.New()), domain.ErrNotFound)

	page, err := repo.ListCostCenters(ctx, domain.CostCenterFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements)

	created, err := repo.CreateCostCenter(ctx, domain.CostCenter{Description: "Rent", Active: true})
	require.NoError(t, err)
	updated, err := repo.UpdateCostCenter(ctx, domain.CostCenter{ExternalID: created.ExternalID, Description: "Housing", Active: false})
	require.NoError(t, err)
	assert.Equal(t, created.ExternalID, updated.ExternalID)
	assert.Equal(t, "Housing", updated.Description)
	assert.False(t, updated.Active)

	require.NoError(t, repo.DeleteCostCenter(ctx, created.ExternalID))
	_, err = repo.GetCostCenter(ctx, created.ExternalID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func seedAuthorities(t *testing.T, repo *Repository) map[string]domain.Authority {
	t.Helper()
	out := make(map[string]domain.Authority)
	for _, name := range domain.DefaultAuthorities {
		a, err := repo.CreateAuthorityIfMissing(context.Background(), name)
		require.NoError(t, err)
		out[name] = a
	}
	return out
}

func TestUserGrantsCascadeOnDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	auth := seedAuthorities(t, repo)

	user, err := repo.CreateUser(ctx, domain.User{
		Name:     "Maria",
		Email:    " Maria@Example.com ",
		Password: "hash",
		Grants: []domain.Grant{
			{Authority: auth[domain.AuthorityRegistration]},
			{Authority: auth[domain.AuthorityFinancial]},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, []string{domain.AuthorityRegistration, domain.AuthorityFinancial}, user.AuthorityNames())

	byEmail, err := repo.GetUserByEmail(ctx, "MARIA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ExternalID, byEmail.ExternalID)

	require.NoError(t, repo.DeleteUser(ctx, user.ExternalID))

	var grantCount int64
	require.NoError(t, repo.DB().Model(&GrantModel{}).Count(&grantCount).Error)
	assert.Zero(t, grantCount)

	_, err = repo.GetUser(ctx, user.ExternalID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteUser(ctx, user.ExternalID), domain.ErrNotFound)
}

func TestUpdateUserReplacesGrantsAndKeepsPassword(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	auth := seedAuthorities(t, repo)

	user, err := repo.CreateUser(ctx, domain.User{
		Name: "Joao", Email: "joao@example.com", Password: "hash",
		Grants: []domain.Grant{{Authority: auth[domain.AuthorityRegistration]}},
	})
	require.NoError(t, err)

	updated, err := repo.UpdateUser(ctx, domain.User{
		ExternalID: user.ExternalID,
		Name:       "Joao Silva",
		Email:      "joao@example.com",
		Active:     true,
		Grants:     []domain.Grant{{Authority: auth[domain.AuthorityDashboards]}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Joao Silva", updated.Name)
	assert.True(t, updated.Active)
	assert.Equal(t, "hash", updated.Password)
	assert.Equal(t, []string{domain.AuthorityDashboards}, updated.AuthorityNames())

	require.NoError(t, repo.UpdatePassword(ctx, user.ExternalID, "new-hash"))
	reloaded, err := repo.GetUser(ctx, user.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.Password)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.New(), "x"), domain.ErrNotFound)
}

func TestUserFilterMatchesNameOrEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.CreateUser(ctx, domain.User{Name: "Ana", Email: "ana@home.org", Password: "h", Active: true})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, domain.User{Name: "Bruno", Email: "bruno@work.org", Password: "h"})
	require.NoError(t, err)

	page, err := repo.ListUsers(ctx, domain.UserFilter{Filter: "WORK"}, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Bruno", page.Content[0].Name)

	page, err = repo.ListUsers(ctx, domain.UserFilter{Status: domain.StatusActive}, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Ana", page.Content[0].Name)

	taken, err := repo.EmailTaken(ctx, "ANA@home.org", nil)
	require.NoError(t, err)
	assert.True(t, taken)

	ana := page.Content[0].ExternalID
	taken, err = repo.EmailTaken(ctx, "ana@home.org", &ana)
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = repo.CreateUser(ctx, domain.User{Name: "Dup", Email: "ana@home.org", Password: "h"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGrantAndRevokeAuthority(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	auth := seedAuthorities(t, repo)

	user, err := repo.CreateUser(ctx, domain.User{Name: "Caio", Email: "caio@example.com", Password: "h"})
	require.NoError(t, err)

	g1, err := repo.GrantAuthority(ctx, user.ExternalID, auth[domain.AuthorityFinancial].ID)
	require.NoError(t, err)
	g2, err := repo.GrantAuthority(ctx, user.ExternalID, auth[domain.AuthorityFinancial].ID)
	require.NoError(t, err)
	assert.Equal(t, g1.ID, g2.ID)
	assert.Equal(t, domain.AuthorityFinancial, g2.Authority.Name)

	grants, err := repo.ListGrants(ctx, user.ExternalID)
	require.NoError(t, err)
	assert.Len(t, grants, 1)

	require.NoError(t, repo.RevokeAuthority(ctx, user.ExternalID, auth[domain.AuthorityFinancial].ID))
	assert.ErrorIs(t, repo.RevokeAuthority(ctx, user.ExternalID, auth[domain.AuthorityFinancial].ID), domain.ErrNotFound)

	_, err = repo.ListGrants(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteAuthorityRemovesGrants(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	auth := seedAuthorities(t, repo)

	user, err := repo.CreateUser(ctx, domain.User{
		Name: "Dora", Email: "dora@example.com", Password: "h",
		Grants: []domain.Grant{{Authority: auth[domain.AuthorityDashboards]}, {Authority: auth[domain.AuthorityRegistration]}},
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAuthority(ctx, auth[domain.AuthorityDashboards].ExternalID))

	reloaded, err := repo.GetUser(ctx, user.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.AuthorityRegistration}, reloaded.AuthorityNames())

	found, err := repo.FindAuthoritiesByName(ctx, []string{domain.AuthorityDashboards, domain.AuthorityRegistration})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.AuthorityRegistration, found[0].Name)

	assert.ErrorIs(t, repo.DeleteAuthority(ctx, auth[domain.AuthorityDashboards].ExternalID), domain.ErrNotFound)
}

func TestCreateAuthorityIfMissingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	a1, err := repo.CreateAuthorityIfMissing(ctx, "AUDIT")
	require.NoError(t, err)
	a2, err := repo.CreateAuthorityIfMissing(ctx, "AUDIT")
	require.NoError(t, err)
	assert.Equal(t, a1.ExternalID, a2.ExternalID)

	_, err = repo.CreateAuthority(ctx, domain.Authority{Name: "AUDIT"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	page, err := repo.ListAuthorities(ctx, domain.AuthorityFilter{Filter: "aud"}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
}

func TestAuditLogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	user, err := repo.CreateUser(ctx, domain.User{Name: "Eva", Email: "eva@example.com", Password: "h"})
	require.NoError(t, err)

	require.NoError(t, repo.CreateAuditLog(ctx, domain.AuditLog{ActorUserID: &user.ID, Action: "cost_center.create", TargetType: "cost_center", TargetID: "a"}))
	require.NoError(t, repo.CreateAuditLog(ctx, domain.AuditLog{Action: "auth.bootstrap_admin", TargetType: "user"}))

	logs, err := repo.ListAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "auth.bootstrap_admin", logs[0].Action)
	assert.Empty(t, logs[0].ActorEmail)
	assert.Equal(t, "eva@example.com", logs[1].ActorEmail)
}
