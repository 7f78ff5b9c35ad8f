package rpcjson

import (
	"context"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
)

type listParams struct {
	Token  string   `json:"token"`
	Filter string   `json:"filter"`
	Status string   `json:"status"`
	Page   int      `json:"page"`
	Size   int      `json:"size"`
	Sort   []string `json:"sort"`
}

func (p listParams) pageRequest() (domain.PageRequest, error) {
	sorts, err := domain.ParseSort(p.Sort)
	if err != nil {
		return domain.PageRequest{}, err
	}
	req := domain.PageRequest{Page: p.Page, Size: p.Size, Sort: sorts}.Normalize()
	return req, req.Validate()
}

type idParams struct {
	Token string    `json:"token"`
	ID    uuid.UUID `json:"id"`
}

func (s *Server) routes() map[string]method {
	return map[string]method{
		"auth.login":  s.authLogin,
		"auth.whoami": s.authWhoAmI,

		"cost_centers.list":   s.costCentersList,
		"cost_centers.get":    s.costCentersGet,
		"cost_centers.create": s.costCentersCreate,
		"cost_centers.update": s.costCentersUpdate,
		"cost_centers.delete": s.costCentersDelete,

		"users.list":     s.usersList,
		"users.get":      s.usersGet,
		"users.create":   s.usersCreate,
		"users.update":   s.usersUpdate,
		"users.delete":   s.usersDelete,
		"users.password": s.usersPassword,
		"users.grants":   s.usersGrants,
		"users.grant":    s.usersGrant,
		"users.revoke":   s.usersRevoke,

		"authorities.list":   s.authoritiesList,
		"authorities.get":    s.authoritiesGet,
		"authorities.create": s.authoritiesCreate,
		"authorities.update": s.authoritiesUpdate,
		"authorities.delete": s.authoritiesDelete,

		"audit.list": s.auditList,
	}
}

func (s *Server) authLogin(ctx context.Context, req request) response {
	var p application.Credential
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Auth.Login(ctx, p)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		User      view.User `json:"user"`
	}{out.Token, out.ExpiresAt, view.UserOf(out.User)})
}

func (s *Server) authWhoAmI(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, "")
	if !ok {
		return resp
	}
	return result(req.ID, view.UserOf(identity.User))
}

func (s *Server) costCentersList(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityRegistration); !ok {
		return resp
	}
	var p listParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	page, err := p.pageRequest()
	if err != nil {
		return s.appError(req.ID, err)
	}
	status, err := domain.ParseStatusFilter(p.Status)
	if err != nil {
		return s.appError(req.ID, err)
	}
	out, err := s.svc.CostCenters.List(ctx, domain.CostCenterFilter{Filter: p.Filter, Status: status}, page)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, domain.MapPage(out, view.CostCenterOf))
}

func (s *Server) costCentersGet(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityRegistration); !ok {
		return resp
	}
	var p idParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.CostCenters.Get(ctx, p.ID)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, view.CostCenterOf(out))
}

func (s *Server) costCentersCreate(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityRegistration)
	if !ok {
		return resp
	}
	var p application.CostCenterForm
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.CostCenters.Create(ctx, p)
	if err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "cost_center.create", "cost_center", out.ExternalID.String())
	return result(req.ID, view.CostCenterOf(out))
}

func (s *Server) costCentersUpdate(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityRegistration)
	if !ok {
		return resp
	}
	var p struct {
		idParams
		application.CostCenterForm
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.CostCenters.Update(ctx, p.ID, p.CostCenterForm)
	if err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "cost_center.update", "cost_center", out.ExternalID.String())
	return result(req.ID, view.CostCenterOf(out))
}

func (s *Server) costCentersDelete(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityRegistration)
	if !ok {
		return resp
	}
	var p idParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	if err := s.svc.CostCenters.Delete(ctx, p.ID); err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "cost_center.delete", "cost_center", p.ID.String())
	return result(req.ID, map[string]any{"ok": true})
}

func (s *Server) usersList(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration); !ok {
		return resp
	}
	var p listParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	page, err := p.pageRequest()
	if err != nil {
		return s.appError(req.ID, err)
	}
	status, err := domain.ParseStatusFilter(p.Status)
	if err != nil {
		return s.appError(req.ID, err)
	}
	out, err := s.svc.Users.List(ctx, domain.UserFilter{Filter: p.Filter, Status: status}, page)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, domain.MapPage(out, view.UserOf))
}

func (s *Server) usersGet(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration); !ok {
		return resp
	}
	var p idParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Users.Get(ctx, p.ID)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, view.UserOf(out))
}

func (s *Server) usersCreate(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p application.UserForm
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Users.Create(ctx, p)
	if err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "user.create", "user", out.ExternalID.String())
	return result(req.ID, view.UserOf(out))
}

func (s *Server) usersUpdate(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p struct {
		idParams
		application.UserForm
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Users.Update(ctx, p.ID, p.UserForm)
	if err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "user.update", "user", out.ExternalID.String())
	return result(req.ID, view.UserOf(out))
}

func (s *Server) usersDelete(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p idParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	if err := s.svc.Users.Delete(ctx, p.ID); err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "user.delete", "user", p.ID.String())
	return result(req.ID, map[string]any{"ok": true})
}

func (s *Server) usersPassword(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p struct {
		idParams
		application.PasswordForm
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	if err := s.svc.Users.ChangePassword(ctx, p.ID, p.PasswordForm); err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "user.password", "user", p.ID.String())
	return result(req.ID, map[string]any{"ok": true})
}

func (s *Server) usersGrants(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration); !ok {
		return resp
	}
	var p idParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Users.ListGrants(ctx, p.ID)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, view.Grants(out))
}

func (s *Server) usersGrant(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p struct {
		idParams
		application.GrantForm
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Users.Grant(ctx, p.ID, p.GrantForm)
	if err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "user.grant", "user", p.ID.String())
	return result(req.ID, view.GrantOf(out))
}

func (s *Server) usersRevoke(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p struct {
		idParams
		Authority string `json:"authority"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	if err := s.svc.Users.Revoke(ctx, p.ID, p.Authority); err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "user.revoke", "user", p.ID.String()+"/"+p.Authority)
	return result(req.ID, map[string]any{"ok": true})
}

func (s *Server) authoritiesList(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration); !ok {
		return resp
	}
	var p listParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	page, err := p.pageRequest()
	if err != nil {
		return s.appError(req.ID, err)
	}
	out, err := s.svc.Authorities.List(ctx, domain.AuthorityFilter{Filter: p.Filter}, page)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, domain.MapPage(out, view.AuthorityOf))
}

func (s *Server) authoritiesGet(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration); !ok {
		return resp
	}
	var p idParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Authorities.Get(ctx, p.ID)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, view.AuthorityOf(out))
}

func (s *Server) authoritiesCreate(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p application.AuthorityForm
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Authorities.Create(ctx, p)
	if err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "authority.create", "authority", out.ExternalID.String())
	return result(req.ID, view.AuthorityOf(out))
}

func (s *Server) authoritiesUpdate(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p struct {
		idParams
		application.AuthorityForm
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Authorities.Update(ctx, p.ID, p.AuthorityForm)
	if err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "authority.update", "authority", out.ExternalID.String())
	return result(req.ID, view.AuthorityOf(out))
}

func (s *Server) authoritiesDelete(ctx context.Context, req request) response {
	identity, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration)
	if !ok {
		return resp
	}
	var p idParams
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	if err := s.svc.Authorities.Delete(ctx, p.ID); err != nil {
		return s.appError(req.ID, err)
	}
	s.audit(ctx, identity, "authority.delete", "authority", p.ID.String())
	return result(req.ID, map[string]any{"ok": true})
}

func (s *Server) auditList(ctx context.Context, req request) response {
	if _, resp, ok := s.authz(ctx, req, domain.AuthorityAdministration); !ok {
		return resp
	}
	var p struct {
		Token string `json:"token"`
		Limit int    `json:"limit"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	out, err := s.svc.Audit.ListAuditLogs(ctx, p.Limit)
	if err != nil {
		return s.appError(req.ID, err)
	}
	return result(req.ID, out)
}
