package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthCheck checks one dependency. A nil check means the dependency is not configured.
type HealthCheck func(ctx context.Context) error

const (
	checkOK       = "ok"
	checkDisabled = "not configured"
)

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 5 * time.Second}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Root answers the service banner.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"message": "API de Ayuda Técnica funcionando"})
}

// Health runs every configured check concurrently. Unconfigured optional
// dependencies are reported but do not degrade the status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		res = healthResponse{Status: "healthy", Checks: make(map[string]string, len(h.checks))}
	)

	g, gctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		if check == nil {
			mu.Lock()
			res.Checks[name] = checkDisabled
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			status := checkOK
			if err := check(gctx); err != nil {
				status = "error: " + err.Error()
			}
			mu.Lock()
			res.Checks[name] = status
			if status != checkOK {
				res.Status = "degraded"
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	renderJSON(w, http.StatusOK, res)
}
