package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atvirokodosprendimai/webbudget/internal/adapters/db/gormdb"
	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/obs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router http.Handler
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := gormdb.Open(gormdb.DriverSQLite, filepath.Join(t.TempDir(), "webbudget_http.db"), nil)
	require.NoError(t, err)
	require.NoError(t, gormdb.RunMigrations(ctx, db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := gormdb.NewRepository(db)
	v := application.NewValidator()
	audit := application.NewAuditService(repo, nil)
	authorities := application.NewAuthorityService(repo, v)
	auth, err := application.NewAuthService(repo, audit, application.TokenConfig{
		Secret: []byte("http-test-secret"),
		Issuer: "webbudget-test",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, application.NewBootstrapper(repo, authorities, audit).
		BootstrapAdmin(ctx, "Admin", "admin@webbudget.com.br", "admin"))

	s := &testServer{router: NewRouter(Deps{
		CostCenters:  application.NewCostCenterService(repo, v),
		Users:        application.NewUserService(repo, repo, v),
		Authorities:  authorities,
		Auth:         auth,
		Audit:        audit,
		Metrics:      obs.NewMetrics(),
		Ready:        &ReadyProbe{DB: sqlDB},
		LoginLimiter: NewLoginLimiter(100, 100),
	})}
	s.token = s.login(t, "admin@webbudget.com.br", "admin")
	return s
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/authentication/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type pageBody[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

type violationsBody struct {
	Violations []struct {
		Property string `json:"property"`
		Message  string `json:"message"`
	} `json:"violations"`
}

func TestAPIRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/registration/cost-centers", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/registration/cost-centers", "garbage", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/authentication/login", "",
		map[string]string{"username": "admin@webbudget.com.br", "password": "wrong"}).Code)

	me := decode[view.User](t, s.do(t, http.MethodGet, "/authentication/me", s.token, nil))
	assert.Equal(t, "admin@webbudget.com.br", me.Email)
	assert.Contains(t, me.Authorities, "ADMINISTRATION")
}

func TestCostCenterLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/registration/cost-centers", s.token, map[string]any{"description": "Groceries"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/api/registration/cost-centers/"), location)

	got := decode[view.CostCenter](t, s.do(t, http.MethodGet, location, s.token, nil))
	assert.Equal(t, "Groceries", got.Description)
	assert.True(t, got.Active)

	rec = s.do(t, http.MethodPut, location, s.token, map[string]any{"description": "Food", "active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[view.CostCenter](t, rec)
	assert.Equal(t, got.ID, updated.ID)
	assert.False(t, updated.Active)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, location, s.token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, location, s.token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, location, s.token, nil).Code)
}

func TestCostCenterValidationAndUnknownIDs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/registration/cost-centers", s.token, map[string]any{"description": "   "})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[violationsBody](t, rec)
	require.Len(t, body.Violations, 1)
	assert.Equal(t, "description", body.Violations[0].Property)
	assert.Equal(t, "cost-center.errors.description-is-blank", body.Violations[0].Message)

	unknown := "/api/registration/cost-centers/1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, unknown, s.token, map[string]any{"description": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/registration/cost-centers/not-a-uuid", s.token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/registration/cost-centers", s.token, "{").Code)
}

func TestCostCenterListingFiltersAndPages(t *testing.T) {
	s := newTestServer(t)
	for _, d := range []string{"Rent", "Car insurance", "Home insurance", "100% fun"} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/registration/cost-centers", s.token, map[string]any{"description": d}).Code)
	}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/registration/cost-centers", s.token,
		map[string]any{"description": "Old insurance", "active": false}).Code)

	page := decode[pageBody[view.CostCenter]](t, s.do(t, http.MethodGet, "/api/registration/cost-centers?filter=INSURANCE&status=active", s.token, nil))
	assert.EqualValues(t, 2, page.TotalElements)

	page = decode[pageBody[view.CostCenter]](t, s.do(t, http.MethodGet, "/api/registration/cost-centers?filter=%25", s.token, nil))
	require.Len(t, page.Content, 1)
	assert.Equal(t, "100% fun", page.Content[0].Description)

	page = decode[pageBody[view.CostCenter]](t, s.do(t, http.MethodGet, "/api/registration/cost-centers?page=1&size=2&sort=description,desc", s.token, nil))
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.First)
	assert.False(t, page.Last)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "Home insurance", page.Content[0].Description)

	for _, q := range []string{"status=maybe", "page=-1", "size=0", "page=x", "sort=description,sideways", "sort=password", "page=9223372036854775807&size=2"} {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/registration/cost-centers?"+q, s.token, nil).Code, q)
	}
}

func TestAuthorityChecks(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/administration/users", s.token, map[string]any{
		"name": "Viewer", "email": "Viewer@Example.com", "password": "secret", "active": true, "roles": []string{"dashboards"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	viewer := s.login(t, "viewer@example.com", "secret")
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/registration/cost-centers", viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/administration/users", viewer, nil).Code)

	location := rec.Header().Get("Location")
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, location+"/grants", s.token, map[string]string{"authority": "registration"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/registration/cost-centers", viewer, nil).Code)

	grants := decode[[]view.Grant](t, s.do(t, http.MethodGet, location+"/grants", s.token, nil))
	assert.Len(t, grants, 2)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, location+"/grants/REGISTRATION", s.token, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/registration/cost-centers", viewer, nil).Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, location, s.token, map[string]any{
		"name": "Viewer", "email": "viewer@example.com", "active": false, "authorities": []string{"DASHBOARDS"},
	}).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/authentication/me", viewer, nil).Code)
}

func TestUserValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/administration/users", s.token, map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	props := map[string]bool{}
	for _, v := range decode[violationsBody](t, rec).Violations {
		props[v.Property] = true
	}
	assert.Equal(t, map[string]bool{"name": true, "email": true, "password": true, "roles": true}, props)

	rec = s.do(t, http.MethodPost, "/api/administration/users", s.token, map[string]any{
		"name": "Dup", "email": "ADMIN@webbudget.com.br", "password": "x", "roles": []string{"FINANCIAL"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[violationsBody](t, rec)
	require.Len(t, body.Violations, 1)
	assert.Equal(t, "email", body.Violations[0].Property)
}

func TestUserPasswordChange(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/administration/users", s.token, map[string]any{
		"name": "Clerk", "email": "clerk@example.com", "password": "first", "active": true, "roles": []string{"FINANCIAL"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	location := rec.Header().Get("Location")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, location+"/password", s.token, map[string]string{"password": "second"}).Code)
	s.login(t, "clerk@example.com", "second")
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/authentication/login", "",
		map[string]string{"email": "clerk@example.com", "password": "first"}).Code)
}

func TestUserPasswordLimitCountsBytes(t *testing.T) {
	s := newTestServer(t)
	multibyte := strings.Repeat("é", 60)

	rec := s.do(t, http.MethodPost, "/api/administration/users", s.token, map[string]any{
		"name": "Accent", "email": "accent@example.com", "password": multibyte, "roles": []string{"FINANCIAL"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	body := decode[violationsBody](t, rec)
	require.Len(t, body.Violations, 1)
	assert.Equal(t, "password", body.Violations[0].Property)
	assert.Equal(t, "user.errors.password-is-too-long", body.Violations[0].Message)

	rec = s.do(t, http.MethodPost, "/api/administration/users", s.token, map[string]any{
		"name": "Accent", "email": "accent@example.com", "password": strings.Repeat("é", 36), "roles": []string{"FINANCIAL"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")

	rec = s.do(t, http.MethodPatch, location+"/password", s.token, map[string]string{"password": multibyte})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "password", decode[violationsBody](t, rec).Violations[0].Property)
}

func TestAuthoritiesAndAudit(t *testing.T) {
	s := newTestServer(t)

	page := decode[pageBody[view.Authority]](t, s.do(t, http.MethodGet, "/api/administration/authorities?filter=ation", s.token, nil))
	assert.EqualValues(t, 2, page.TotalElements)

	admin := decode[pageBody[view.Authority]](t, s.do(t, http.MethodGet, "/api/administration/authorities?filter=administration", s.token, nil))
	require.Len(t, admin.Content, 1)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, "/api/administration/authorities/"+admin.Content[0].ID.String(), s.token, nil).Code)

	rec := s.do(t, http.MethodPost, "/api/administration/authorities", s.token, map[string]string{"name": "reports"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[view.Authority](t, s.do(t, http.MethodGet, rec.Header().Get("Location"), s.token, nil))
	assert.Equal(t, "REPORTS", created.Name)

	rec = s.do(t, http.MethodGet, "/api/administration/audit-logs?limit=2", s.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]map[string]any](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "authority.create", entries[0]["action"])
}

func TestLoginRateLimit(t *testing.T) {
	limited := NewRouter(Deps{LoginLimiter: NewLoginLimiter(0.001, 1)})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/authentication/login", strings.NewReader("{"))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "", nil).Code)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/healthz"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestReadyProbeReportsDatabaseFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	router := NewRouter(Deps{Ready: &ReadyProbe{DB: db}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
