package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"go.uber.org/zap"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602

	codeBadInput     = 40000
	codeUnauthorized = 40100
	codeForbidden    = 40300
	codeNotFound     = 40400
	codeConflict     = 40900
	codeValidation   = 42200
	codeInternal     = 50000
)

// Services are the application services exposed over the socket.
type Services struct {
	CostCenters *application.CostCenterService
	Users       *application.UserService
	Authorities *application.AuthorityService
	Auth        *application.AuthService
	Audit       *application.AuditService
}

type Server struct {
	svc      Services
	log      *zap.SugaredLogger
	listener net.Listener
	path     string
	methods  map[string]method

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type method func(ctx context.Context, req request) response

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Start listens on a unix socket readable only by the owner.
func Start(path string, svc Services, log *zap.SugaredLogger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{svc: svc, log: log, listener: ln, path: path, ctx: ctx, cancel: cancel}
	s.methods = s.routes()
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) Path() string {
	return s.path
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops accepting connections and waits for open ones to finish
// their current request.
func (s *Server) Close() error {
	s.cancel()
	err := s.listener.Close()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	stop := context.AfterFunc(s.ctx, func() { _ = conn.Close() })
	defer stop()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || s.ctx.Err() != nil {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}})
			return
		}
		if err := enc.Encode(s.dispatch(s.ctx, req)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return errorResponse(req.ID, codeInvalidRequest, "invalid request", nil)
	}
	m, ok := s.methods[req.Method]
	if !ok {
		return errorResponse(req.ID, codeMethodNotFound, "method not found", nil)
	}
	return m(ctx, req)
}

// authz authenticates the token carried in params and checks authority.
// An empty authority only requires a valid token.
func (s *Server) authz(ctx context.Context, req request, authority string) (domain.Identity, response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if !decodeParams(req.Params, &p) {
		return domain.Identity{}, invalidParams(req.ID), false
	}
	identity, err := s.svc.Auth.Authenticate(ctx, p.Token)
	if err != nil {
		return domain.Identity{}, s.appError(req.ID, err), false
	}
	if authority != "" && !identity.Has(authority) {
		return domain.Identity{}, s.appError(req.ID, domain.ErrForbidden), false
	}
	return identity, response{}, true
}

func (s *Server) audit(ctx context.Context, identity domain.Identity, action, targetType, targetID string) {
	if s.svc.Audit == nil {
		return
	}
	s.svc.Audit.WriteAudit(ctx, &identity.User.ID, action, targetType, targetID, "rpc")
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func result(id any, v any) response {
	return response{JSONRPC: "2.0", Result: v, ID: id}
}

func errorResponse(id any, code int, message string, data any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: message, Data: data}, ID: id}
}

func invalidParams(id any) response {
	return errorResponse(id, codeInvalidParams, "invalid params", nil)
}

func (s *Server) appError(id any, err error) response {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorResponse(id, codeValidation, "validation failed", verr.Violations)
	case errors.Is(err, domain.ErrNotFound):
		return errorResponse(id, codeNotFound, "not found", nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return errorResponse(id, codeUnauthorized, "unauthorized", nil)
	case errors.Is(err, domain.ErrForbidden):
		return errorResponse(id, codeForbidden, "forbidden", nil)
	case errors.Is(err, domain.ErrConflict):
		return errorResponse(id, codeConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidInput):
		return errorResponse(id, codeBadInput, err.Error(), nil)
	}
	s.log.Errorw("rpc call failed", "id", id, "error", err)
	return errorResponse(id, codeInternal, "internal error", nil)
}
