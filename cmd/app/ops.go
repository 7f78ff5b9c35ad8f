package main

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type listOptions struct {
	Filter string
	Status string
	Page   int
	Size   int
	Sort   []string
}

func (o listOptions) params() map[string]any {
	return map[string]any{"filter": o.Filter, "status": o.Status, "page": o.Page, "size": o.Size, "sort": o.Sort}
}

func (o listOptions) query() string {
	q := url.Values{}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		q.Set("size", strconv.Itoa(o.Size))
	}
	for _, s := range o.Sort {
		q.Add("sort", s)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

const (
	costCentersPath = "/api/registration/cost-centers"
	usersPath       = "/api/administration/users"
	authoritiesPath = "/api/administration/authorities"
	auditPath       = "/api/administration/audit-logs"
)

func doLogin(ctx context.Context, cfg cliConfig, username, password string, out any) error {
	in := map[string]any{"username": username, "password": password}
	if cfg.useRPC() {
		return newRPCClient(cliConfig{Socket: cfg.Socket}).call(ctx, "auth.login", in, out)
	}
	_, err := newAPIClient(cliConfig{Server: cfg.Server}).request(ctx, http.MethodPost, "/authentication/login", in, out)
	return err
}

func doWhoAmI(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, "auth.whoami", nil, out)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodGet, "/authentication/me", nil, out)
	return err
}

// list, get, create, update and delete share one shape per resource: an
// rpc prefix such as "cost_centers" and an HTTP collection path.
type resource struct {
	rpc  string
	path string
}

var (
	costCenters = resource{rpc: "cost_centers", path: costCentersPath}
	users       = resource{rpc: "users", path: usersPath}
	authorities = resource{rpc: "authorities", path: authoritiesPath}
)

func (r resource) list(ctx context.Context, cfg cliConfig, opts listOptions, out any) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, r.rpc+".list", opts.params(), out)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodGet, r.path+opts.query(), nil, out)
	return err
}

func (r resource) get(ctx context.Context, cfg cliConfig, id string, out any) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, r.rpc+".get", map[string]any{"id": id}, out)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, out)
	return err
}

func (r resource) create(ctx context.Context, cfg cliConfig, in map[string]any, out any) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, r.rpc+".create", in, out)
	}
	return newAPIClient(cfg).create(ctx, r.path, in, out)
}

func (r resource) update(ctx context.Context, cfg cliConfig, id string, in map[string]any, out any) error {
	if cfg.useRPC() {
		params := map[string]any{"id": id}
		for k, v := range in {
			params[k] = v
		}
		return newRPCClient(cfg).call(ctx, r.rpc+".update", params, out)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), in, out)
	return err
}

func (r resource) delete(ctx context.Context, cfg cliConfig, id string) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, r.rpc+".delete", map[string]any{"id": id}, nil)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil)
	return err
}

func doChangePassword(ctx context.Context, cfg cliConfig, id, password string) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, "users.password", map[string]any{"id": id, "password": password}, nil)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodPatch, usersPath+"/"+url.PathEscape(id)+"/password",
		map[string]any{"password": password}, nil)
	return err
}

func doListGrants(ctx context.Context, cfg cliConfig, id string, out any) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, "users.grants", map[string]any{"id": id}, out)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodGet, usersPath+"/"+url.PathEscape(id)+"/grants", nil, out)
	return err
}

func doGrant(ctx context.Context, cfg cliConfig, id, authority string) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, "users.grant", map[string]any{"id": id, "authority": authority}, nil)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodPost, usersPath+"/"+url.PathEscape(id)+"/grants",
		map[string]any{"authority": authority}, nil)
	return err
}

func doRevoke(ctx context.Context, cfg cliConfig, id, authority string) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, "users.revoke", map[string]any{"id": id, "authority": authority}, nil)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodDelete,
		usersPath+"/"+url.PathEscape(id)+"/grants/"+url.PathEscape(authority), nil, nil)
	return err
}

func doAuditList(ctx context.Context, cfg cliConfig, limit int, out any) error {
	if cfg.useRPC() {
		return newRPCClient(cfg).call(ctx, "audit.list", map[string]any{"limit": limit}, out)
	}
	path := auditPath
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	_, err := newAPIClient(cfg).request(ctx, http.MethodGet, path, nil, out)
	return err
}
