package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
	"github.com/shandysiswandi/accountd/internal/pkg/uid"
	"github.com/shandysiswandi/accountd/internal/pkg/validator"
)

// envelope is the shape of every response body.
type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Timestamp  string            `json:"timestamp"`
	Data       any               `json:"data,omitempty"`
	Meta       map[string]any    `json:"meta,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func failure(msg string, code int, errs map[string]string, at time.Time) envelope {
	return envelope{
		Success:    false,
		Message:    msg,
		StatusCode: code,
		Timestamp:  at.UTC().Format(time.RFC3339),
		Errors:     errs,
	}
}

// Handler is the application-style handler used by this router.
//
// It returns a response payload (that will be JSON encoded) or an error.
// A payload may implement StatusCode() int, Message() string and
// Meta() map[string]any to shape the envelope.
type Handler func(r *Request) (any, error)

type clocker interface {
	Now() time.Time
}

// Config holds dependencies required to build a Router.
type Config struct {
	// Config provides runtime configuration values.
	Config config.Config
	// UUID generates request correlation IDs.
	UUID uid.StringID
	// JWT validates access tokens on authenticated routes.
	JWT jwt.JWT
	// Instrument provides tracing and metrics helpers.
	Instrument instrument.Instrumentation
	// Clock stamps response envelopes.
	Clock clocker
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr          *httprouter.Router
	now         func() time.Time
	mws         []Middleware
	auth        Middleware
	maintenance *maintenance
}

// NewRouter builds the default application router with standard middleware.
func NewRouter(cfg Config) *Router {
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock.Now
	}
	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, failure("Endpoint not found", http.StatusNotFound, nil, now()))
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, failure("Method not allowed", http.StatusMethodNotAllowed, nil, now()))
		}),
		PanicHandler: func(w http.ResponseWriter, r *http.Request, rvr any) {
			slog.ErrorContext(r.Context(), "panic outside middleware chain", "because", rvr)
			writeEnvelope(w, failure("Internal server error", http.StatusInternalServerError, nil, now()))
		},
	}

	mt := newMaintenance(cfg.Config)
	ro := &Router{
		hr:          hr,
		now:         now,
		maintenance: mt,
		auth:        middlewareAuthentication(cfg.JWT, now),
		mws: []Middleware{
			middlewareRecoverer(now),
			middlewareIP(newTrustedProxies(cfg.Config)),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, ins),
			middlewareMaintenance(mt, now),
		},
	}

	ro.GET("/health", func(*Request) (any, error) {
		return health{Status: "ok", Timestamp: now().UTC().Format(time.RFC3339)}, nil
	})

	return ro
}

type health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (health) Message() string { return "Service is healthy" }

// Authenticated returns the middleware that requires a valid access token
// and stores its claims in the request context.
func (r *Router) Authenticated() Middleware {
	return r.auth
}

// SetMaintenance toggles maintenance mode at runtime.
func (r *Router) SetMaintenance(enabled bool) {
	r.maintenance.enabled.Store(enabled)
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// PUT registers a PUT endpoint using the application Handler signature.
func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPut, path, h, mws...)
}

// DELETE registers a DELETE endpoint using the application Handler signature.
func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			r.errorCodec(re.Context(), w, err)
			return
		}
		r.encoder(w, resp)
	}), append(append([]Middleware{}, r.mws...), mws...)...))
}

func (r *Router) errorCodec(ctx context.Context, w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(ctx, "unhandled error reached router", "error", err)
		writeEnvelope(w, failure("Internal server error", http.StatusInternalServerError, nil, r.now()))
		return
	}

	msg := gerr.Msg()
	if msg == "" {
		msg = gerr.Error()
	}

	var fields map[string]string
	var errValidate validator.V10ValidationError
	if errors.As(err, &errValidate) {
		fields = errValidate.Values()
	} else if len(gerr.Fields()) > 0 {
		fields = gerr.Fields()
	}

	writeEnvelope(w, failure(msg, gerr.StatusCode(), fields, r.now()))
}

func (r *Router) encoder(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface {
		StatusCode() int
	}); ok {
		code = sc.StatusCode()
	}

	msg := "Request has been successfully processed"
	if m, ok := resp.(interface {
		Message() string
	}); ok {
		msg = m.Message()
	}

	var meta map[string]any
	if m, ok := resp.(interface {
		Meta() map[string]any
	}); ok {
		meta = m.Meta()
	}

	writeEnvelope(w, envelope{
		Success:    true,
		Message:    msg,
		StatusCode: code,
		Timestamp:  r.now().UTC().Format(time.RFC3339),
		Data:       resp,
		Meta:       meta,
	})
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func writeEnvelope(w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}
