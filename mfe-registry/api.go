package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
	"github.com/mosaic-labs/mosaic-go/internal/service/deploy"
	"github.com/mosaic-labs/mosaic-go/internal/service/health"
	"github.com/mosaic-labs/mosaic-go/internal/service/publisher"
	releasesvc "github.com/mosaic-labs/mosaic-go/internal/service/release"
	"github.com/mosaic-labs/mosaic-go/internal/service/resolver"
)

type registryAPI struct {
	logger         *slog.Logger
	modules        repo.ModuleRepository
	releases       *releasesvc.Service
	deployer       *deploy.Service
	resolver       *resolver.Service
	prober         *health.Prober
	publisher      *publisher.Service
	cacheTTL       time.Duration
	requestTimeout time.Duration
}

func newRegistryAPI(logger *slog.Logger, modules repo.ModuleRepository, releases *releasesvc.Service, deployer *deploy.Service, res *resolver.Service, prober *health.Prober, pub *publisher.Service, cacheTTL, requestTimeout time.Duration) *registryAPI {
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	return &registryAPI{
		logger:         logger,
		modules:        modules,
		releases:       releases,
		deployer:       deployer,
		resolver:       res,
		prober:         prober,
		publisher:      pub,
		cacheTTL:       cacheTTL,
		requestTimeout: requestTimeout,
	}
}

func (api *registryAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /registry", api.handleGetRegistry)
	mux.HandleFunc("POST /registry", api.handleSetActive)

	mux.HandleFunc("GET /releases", api.handleListReleases)
	mux.HandleFunc("POST /releases", api.handleReleases)

	mux.HandleFunc("GET /routes", api.handleResolveRoute)
	mux.HandleFunc("POST /routes", api.handleRegisterRoute)

	mux.HandleFunc("POST /publish", api.handlePublish)
	mux.HandleFunc("GET /health", api.handleHealth)
}

type moduleEntry struct {
	Source      string           `json:"source"`
	Integrity   string           `json:"integrity,omitempty"`
	Version     string           `json:"version,omitempty"`
	Variables   domain.Variables `json:"variables"`
	Description string           `json:"description,omitempty"`
}

func moduleToEntry(m domain.Module) moduleEntry {
	variables := m.Variables
	if variables == nil {
		variables = domain.Variables{}
	}
	return moduleEntry{
		Source:      m.Source,
		Integrity:   m.Integrity,
		Version:     m.Version,
		Variables:   variables,
		Description: m.Description,
	}
}

// handleGetRegistry serves the active module map. Responses are cacheable
// at the edge; the TTL is the documented staleness window between a deploy
// and full cache convergence.
func (api *registryAPI) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))

	out := map[string]moduleEntry{}
	if name != "" {
		module, err := api.modules.GetByName(r.Context(), name)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				api.writeError(w, r, http.StatusNotFound, "module_not_found")
				return
			}
			api.internalError(w, r, "get module", err)
			return
		}
		if !module.Active {
			api.writeError(w, r, http.StatusNotFound, "module_not_found")
			return
		}
		out[module.Name] = moduleToEntry(module)
	} else {
		modules, err := api.modules.ListActive(r.Context())
		if err != nil {
			api.internalError(w, r, "list modules", err)
			return
		}
		for _, module := range modules {
			out[module.Name] = moduleToEntry(module)
		}
	}

	api.setCacheHeader(w)
	api.writeJSON(w, http.StatusOK, out)
}

type setActiveRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

func (api *registryAPI) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		api.writeError(w, r, http.StatusBadRequest, "name_required")
		return
	}
	if req.Active == nil {
		api.writeError(w, r, http.StatusBadRequest, "active_required")
		return
	}

	ctx, cancel := api.boundedContext(r)
	defer cancel()
	if err := api.modules.SetActive(ctx, name, *req.Active); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "module_not_found")
			return
		}
		api.internalError(w, r, "set module active", err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{
		"name":   name,
		"active": *req.Active,
	})
}

type createReleaseRequest struct {
	Version     string                   `json:"version"`
	Description string                   `json:"description,omitempty"`
	Artifacts   []domain.ReleaseArtifact `json:"artifacts"`
}

type releaseResponse struct {
	ID          string                   `json:"id"`
	Version     string                   `json:"version"`
	Description string                   `json:"description,omitempty"`
	Artifacts   []domain.ReleaseArtifact `json:"artifacts"`
	Status      string                   `json:"status"`
	CreatedAt   time.Time                `json:"createdAt"`
}

func releaseToResponse(rel domain.Release) releaseResponse {
	return releaseResponse{
		ID:          rel.ID,
		Version:     rel.Version,
		Description: rel.Description,
		Artifacts:   rel.Artifacts,
		Status:      string(rel.Status),
		CreatedAt:   rel.CreatedAt,
	}
}

// handleReleases dispatches on the action query parameter: a bare POST
// creates a draft release, action=deploy activates one.
func (api *registryAPI) handleReleases(w http.ResponseWriter, r *http.Request) {
	switch action := strings.TrimSpace(r.URL.Query().Get("action")); action {
	case "":
		api.handleCreateRelease(w, r)
	case "deploy":
		api.handleDeployRelease(w, r)
	default:
		api.writeError(w, r, http.StatusBadRequest, "unknown_action")
	}
}

func (api *registryAPI) handleCreateRelease(w http.ResponseWriter, r *http.Request) {
	var req createReleaseRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if strings.TrimSpace(req.Version) == "" {
		api.writeError(w, r, http.StatusBadRequest, "version_required")
		return
	}
	if len(req.Artifacts) == 0 {
		api.writeError(w, r, http.StatusBadRequest, "artifacts_required")
		return
	}

	ctx, cancel := api.boundedContext(r)
	defer cancel()
	rel, err := api.releases.Create(ctx, req.Version, req.Description, req.Artifacts, releasesvc.AuditContext{
		Actor:     actorFrom(r),
		RequestID: r.Header.Get("X-Request-Id"),
		Path:      r.URL.Path,
	})
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			api.writeMessageError(w, r, http.StatusBadRequest, "invalid_release", vErr.Msg)
			return
		}
		api.internalError(w, r, "create release", err)
		return
	}
	api.writeJSON(w, http.StatusCreated, releaseToResponse(rel))
}

type deployRequest struct {
	ID string `json:"id"`
}

func (api *registryAPI) handleDeployRelease(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		api.writeError(w, r, http.StatusBadRequest, "id_required")
		return
	}

	ctx, cancel := api.boundedContext(r)
	defer cancel()
	rel, err := api.deployer.Deploy(ctx, req.ID, deploy.AuditContext{
		Actor:     actorFrom(r),
		RequestID: r.Header.Get("X-Request-Id"),
		Path:      r.URL.Path,
	})
	if err != nil {
		var paErr *deploy.PartialApplyError
		switch {
		case errors.Is(err, repo.ErrNotFound):
			api.writeError(w, r, http.StatusNotFound, "release_not_found")
		case errors.Is(err, deploy.ErrReleaseArchived):
			api.writeError(w, r, http.StatusConflict, "release_archived")
		case errors.As(err, &paErr):
			api.logger.Error("release deploy aborted", "release_id", paErr.ReleaseID, "failed_modules", paErr.Failed, "error", paErr.Err)
			api.writeJSON(w, http.StatusConflict, map[string]any{
				"error":         "partial_apply",
				"message":       "deploy aborted, registry unchanged",
				"failedModules": paErr.Failed,
				"request_id":    r.Header.Get("X-Request-Id"),
			})
		default:
			api.internalError(w, r, "deploy release", err)
		}
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("release %s deployed", rel.Version),
		"release": releaseToResponse(rel),
	})
}

func (api *registryAPI) handleListReleases(w http.ResponseWriter, r *http.Request) {
	releases, err := api.releases.List(r.Context())
	if err != nil {
		api.internalError(w, r, "list releases", err)
		return
	}
	out := make([]releaseResponse, 0, len(releases))
	for _, rel := range releases {
		out = append(out, releaseToResponse(rel))
	}
	api.writeJSON(w, http.StatusOK, out)
}

type resolvedMfe struct {
	Name      string           `json:"name"`
	Source    string           `json:"source"`
	Integrity string           `json:"integrity,omitempty"`
	Variables domain.Variables `json:"variables"`
	Version   string           `json:"version,omitempty"`
}

func (api *registryAPI) handleResolveRoute(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if strings.TrimSpace(path) == "" {
		api.writeError(w, r, http.StatusBadRequest, "path_required")
		return
	}

	route, err := api.resolver.Resolve(r.Context(), path)
	if err != nil {
		var nfErr *resolver.NotFoundError
		if errors.As(err, &nfErr) {
			api.writeJSON(w, http.StatusNotFound, map[string]any{
				"error":         "no_module_for_path",
				"path":          nfErr.Path,
				"availableMfes": nfErr.Available,
			})
			return
		}
		api.internalError(w, r, "resolve route", err)
		return
	}

	api.setCacheHeader(w)
	api.writeJSON(w, http.StatusOK, map[string]any{
		"route": path,
		"mfe": resolvedMfe{
			Name:      route.ModuleName,
			Source:    route.Source,
			Integrity: route.Integrity,
			Variables: route.Variables,
			Version:   route.Version,
		},
	})
}

type registerRouteRequest struct {
	Pattern string `json:"pattern"`
	Source  string `json:"source"`
}

// handleRegisterRoute acknowledges route registrations from external
// tooling. Routing itself derives from the registry; the pattern is not
// stored.
func (api *registryAPI) handleRegisterRoute(w http.ResponseWriter, r *http.Request) {
	var req registerRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if strings.TrimSpace(req.Pattern) == "" {
		api.writeError(w, r, http.StatusBadRequest, "pattern_required")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		api.writeError(w, r, http.StatusBadRequest, "source_required")
		return
	}
	api.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "route acknowledged",
		"pattern": req.Pattern,
		"source":  req.Source,
	})
}

type publishRequest struct {
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Route       string           `json:"route"`
	Version     string           `json:"version,omitempty"`
	Description string           `json:"description,omitempty"`
	Variables   domain.Variables `json:"variables,omitempty"`
}

func (api *registryAPI) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		api.writeError(w, r, http.StatusBadRequest, "name_required")
		return
	}
	if req.Code == "" {
		api.writeError(w, r, http.StatusBadRequest, "code_required")
		return
	}
	if strings.TrimSpace(req.Route) == "" {
		api.writeError(w, r, http.StatusBadRequest, "route_required")
		return
	}

	ctx, cancel := api.boundedContext(r)
	defer cancel()
	result, err := api.publisher.Publish(ctx, publisher.Input{
		Name:        req.Name,
		Code:        req.Code,
		Route:       req.Route,
		Version:     req.Version,
		Description: req.Description,
		Variables:   req.Variables,
	}, publisher.AuditContext{
		Actor:     actorFrom(r),
		RequestID: r.Header.Get("X-Request-Id"),
		Path:      r.URL.Path,
	})
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			api.writeMessageError(w, r, http.StatusBadRequest, "invalid_publish", vErr.Msg)
			return
		}
		api.internalError(w, r, "publish module", err)
		return
	}

	api.writeJSON(w, http.StatusCreated, map[string]any{
		"route":      result.Route,
		"modulePath": result.ModulePath,
		"previewUrl": result.PreviewURL,
		"integrity":  result.Module.Integrity,
	})
}

func (api *registryAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("mfe"))

	var (
		report health.Report
		err    error
	)
	if name != "" {
		report, err = api.prober.Check(r.Context(), name)
	} else {
		report, err = api.prober.CheckAll(r.Context())
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "module_not_found")
			return
		}
		api.internalError(w, r, "health check", err)
		return
	}

	status := http.StatusOK
	if report.Status != health.StatusOK {
		status = http.StatusServiceUnavailable
	}
	api.writeJSON(w, status, report)
}

func (api *registryAPI) boundedContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), api.requestTimeout)
}

func (api *registryAPI) setCacheHeader(w http.ResponseWriter) {
	if api.cacheTTL <= 0 {
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(api.cacheTTL.Seconds())))
}

func actorFrom(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get("X-Actor")); actor != "" {
		return actor
	}
	return "anonymous"
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *registryAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *registryAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func (api *registryAPI) writeMessageError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"message":    message,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

// internalError logs the cause with detail and returns a sanitized body:
// no paths, no driver messages, no stack.
func (api *registryAPI) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	api.logger.Error(op, "error", err, "request_id", r.Header.Get("X-Request-Id"))
	api.writeError(w, r, http.StatusInternalServerError, "internal_error")
}
