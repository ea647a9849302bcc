package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	redis     Pinger
	startTime time.Time
}

func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, startTime: time.Now()}
}

type healthReport struct {
	Status    string `json:"status"`
	Time      string `json:"time"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
}

// Health reports "degraded" with 503 when a dependency fails its 500ms
// probe. The whole check is bounded at two seconds.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	report := healthReport{
		Status:    "ok",
		Time:      time.Now().Format(time.RFC3339),
		Database:  probe(ctx, h.db),
		Redis:     probe(ctx, h.redis),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		GoVersion: runtime.Version(),
	}

	status := http.StatusOK
	if report.Database == "error" || report.Redis == "error" {
		report.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return "error"
	}
	return "connected"
}
