package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/external"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/internal/identity/token"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/identity/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps are the services the handlers are built on.
type Deps struct {
	HomeURL     string
	AuthBaseURL string

	Meta       *session.Meta
	Flow       *external.Flow
	Identities *service.IdentityService
	Tokens     *token.Generator
	Store      store.Store

	// Registry receives the HTTP metrics and is served on /metrics. Nil
	// disables both.
	Registry *prometheus.Registry

	BuildVersion string
	Logger       *slog.Logger
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	deps      Deps
	basePath  string
	pages     *pages
	metrics   *httpx.RequestMetrics
	startTime time.Time
}

func NewRouter(deps Deps) (*Router, error) {
	p, err := newPages(deps.HomeURL, deps.Meta)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(deps.AuthBaseURL)
	if err != nil {
		return nil, err
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		deps:      deps,
		basePath:  strings.TrimRight(base.Path, "/"),
		pages:     p,
		startTime: time.Now(),
	}
	if deps.Registry != nil {
		r.metrics = httpx.NewRequestMetrics(deps.Registry)
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(deps.Logger, "/livez", "/readyz", "/metrics"),
	}
	return r, nil
}

func (r *Router) ApplyRoutes() {
	r.registerExternal()
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Identity Service API
//	@version		0.1.0
//	@description	Federated sign in through external OAuth2 and OpenID Connect providers.
//	@description
//	@description	The session is carried in three signed and encrypted cookies; the browser facing endpoints answer with 303 redirects.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/identity
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern, instrumented with the pattern as the
// metrics label.
func (r *Router) handle(pattern string, h http.Handler) {
	if r.metrics != nil {
		h = httpx.Chain(h, r.metrics.Instrument(pattern))
	}
	r.Mux.Handle(pattern, h)
}

func (r *Router) auth(method, path string) string {
	return method + " " + r.basePath + "/auth" + path
}

func (r *Router) registerExternal() {
	h := &ExternalLoginHandler{Flow: r.deps.Flow, Meta: r.deps.Meta, pages: r.pages}

	r.handle(r.auth(http.MethodGet, "/{provider}/login"), http.HandlerFunc(h.HandleLogin))
	r.handle(r.auth(http.MethodGet, "/{provider}/link"), http.HandlerFunc(h.HandleLink))
	r.handle(r.auth(http.MethodGet, "/{provider}/auth"), http.HandlerFunc(h.HandleCallback))
	r.handle(r.auth(http.MethodGet, "/providers"), ProvidersHandler(r.deps.Flow.Registry()))
}

func (r *Router) registerSession() {
	h := &SessionHandler{
		Identities: r.deps.Identities,
		Tokens:     r.deps.Tokens,
		Meta:       r.deps.Meta,
		pages:      r.pages,
	}
	r.handle(r.auth(http.MethodGet, "/token/login"), http.HandlerFunc(h.HandleTokenLogin))
	r.handle(r.auth(http.MethodGet, "/logout"), http.HandlerFunc(h.HandleLogout))
	r.handle(r.auth(http.MethodGet, "/delete"), http.HandlerFunc(h.HandleDelete))

	r.handle(r.auth(http.MethodGet, "/userinfo"), &UserInfoHandler{
		Identities: r.deps.Identities,
		Meta:       r.deps.Meta,
		pages:      r.pages,
	})
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.deps.BuildVersion))
	r.Mux.Handle("GET /readyz",
		ReadyzHandler(r.startTime, r.deps.BuildVersion, r.deps.Store, r.deps.Flow.Registry()))

	if r.deps.Registry != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.deps.Registry, promhttp.HandlerOpts{}))
	}
}
