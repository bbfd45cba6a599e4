package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-vendorgate/assistant"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/credentials"
	"github.com/goliatone/go-vendorgate/datacenter"
	"github.com/goliatone/go-vendorgate/drive"
	"github.com/goliatone/go-vendorgate/oauth"
	"github.com/goliatone/go-vendorgate/search"
	"github.com/goliatone/go-vendorgate/transport"
)

// Dependencies are the services behind the HTTP surface. Records, Search and
// Assistant are optional; their routes answer 500 when unset.
type Dependencies struct {
	Config      core.Config
	Credentials *credentials.Store
	Proxy       *transport.Proxy
	Drive       *drive.Service
	OAuth       *oauth.Manager
	Search      *search.Service
	Assistant   *assistant.Service
	Leads       core.LeadStore
	Companies   core.CompanyStore
	Activity    core.ActivityLog
	Logger      core.Logger
}

type Server struct {
	deps         Dependencies
	maxBodyBytes int64
	ops          core.OperationLogger
}

func NewServer(deps Dependencies) (*Server, error) {
	if deps.Proxy == nil {
		return nil, fmt.Errorf("httpapi: proxy is required")
	}
	if deps.Drive == nil {
		return nil, fmt.Errorf("httpapi: drive service is required")
	}
	if deps.OAuth == nil {
		return nil, fmt.Errorf("httpapi: oauth manager is required")
	}
	if deps.Credentials == nil {
		deps.Credentials = credentials.NewStore(deps.Config)
	}
	maxBody := deps.Config.HTTP.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = core.DefaultMaxBodyBytes
	}
	return &Server{
		deps:         deps,
		maxBodyBytes: maxBody,
		ops:          core.NewOperationLogger(core.ResolveLogger("vendorgate.http", nil, deps.Logger)),
	}, nil
}

// Handler mounts every route on a chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.health)
	r.Post("/proxy", s.proxy)

	r.Route("/drive", func(r chi.Router) {
		r.Post("/upload", s.driveUpload)
		r.Get("/download", s.driveDownload)
		r.Get("/files", s.driveFiles)
	})

	r.Post("/token", s.token)
	r.Get("/oauth/authorize-url", s.authorizeURL)

	r.Route("/search", func(r chi.Router) {
		r.Post("/people", s.searchPeople)
		r.Post("/organizations", s.searchOrganizations)
	})

	r.Route("/leads", func(r chi.Router) {
		r.Get("/", s.listLeads)
		r.Post("/", s.saveLead)
		r.Get("/{id}", s.getLead)
		r.Delete("/{id}", s.deleteLead)
	})
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", s.listCompanies)
		r.Post("/", s.saveCompany)
		r.Get("/{id}", s.getCompany)
		r.Delete("/{id}", s.deleteCompany)
	})
	r.Get("/activity", s.listActivity)

	r.Post("/assistant/chat", s.assistantChat)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, core.NotFoundError("route not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Error:    "method not allowed",
			TextCode: core.ErrorBadRequest,
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"service":    s.deps.Config.ServiceName,
		"datacenter": string(s.deps.Credentials.Datacenter()),
	})
}

// requestLogger writes one line per request. Query strings are left out
// because download links may carry a token.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var err error
		if status >= http.StatusInternalServerError {
			err = core.InternalError(fmt.Sprintf("request failed with status %d", status), nil)
		}
		s.ops.Observe(r.Context(), startedAt, "http request", err, map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": status,
			"bytes":       ww.BytesWritten(),
			"request_id":  chimw.GetReqID(r.Context()),
		})
	})
}

// datacenterFrom reads ?dc=, falling back to the configured datacenter.
func (s *Server) datacenterFrom(r *http.Request) core.Datacenter {
	code := strings.TrimSpace(r.URL.Query().Get("dc"))
	if code == "" {
		return s.deps.Credentials.Datacenter()
	}
	return datacenter.Normalize(code)
}
