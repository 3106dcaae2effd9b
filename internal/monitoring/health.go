package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// DefaultErrorWindow is how long a recorded error keeps the checker degraded
const DefaultErrorWindow = 5 * time.Minute

type healthError struct {
	at      time.Time
	message string
}

// HealthChecker reports whether the ledger store is reachable and recent
// transitions succeeded.
type HealthChecker struct {
	mu        sync.RWMutex
	lastTrade time.Time
	lastSave  time.Time
	storeOK   bool
	errors    []healthError
	maxErrors int
	window    time.Duration
	now       func() time.Time
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastTrade time.Time `json:"last_trade,omitempty"`
	LastSave  time.Time `json:"last_save,omitempty"`
	StoreOK   bool      `json:"store_ok"`
	Uptime    string    `json:"uptime"`
	Errors    []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		storeOK:   true,
		errors:    make([]healthError, 0),
		maxErrors: 20,
		window:    DefaultErrorWindow,
		now:       time.Now,
	}
}

func (h *HealthChecker) RecordTrade() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTrade = h.now()
}

// RecordSave marks a successful save and clears the store error flag
func (h *HealthChecker) RecordSave() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSave = h.now()
	h.storeOK = true
}

func (h *HealthChecker) SetStoreStatus(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.storeOK = ok
}

// SetErrorWindow changes how long recorded errors count against health
func (h *HealthChecker) SetErrorWindow(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = d
}

// RecordError keeps the most recent errors for the health report
func (h *HealthChecker) RecordError(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, healthError{at: h.now(), message: err.Error()})
	if len(h.errors) > h.maxErrors {
		h.errors = h.errors[len(h.errors)-h.maxErrors:]
	}
}

func (h *HealthChecker) ClearErrors() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = h.errors[:0]
}

// Status reports unhealthy while the store is down and degraded while errors
// recorded inside the error window remain.
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	errs := make([]string, 0, len(h.errors))
	for _, e := range h.errors {
		if h.window <= 0 || now.Sub(e.at) < h.window {
			errs = append(errs, e.message)
		}
	}

	status := "healthy"
	switch {
	case !h.storeOK:
		status = "unhealthy"
	case len(errs) > 0:
		status = "degraded"
	}

	return HealthStatus{
		Status:    status,
		Timestamp: now,
		LastTrade: h.lastTrade,
		LastSave:  h.lastSave,
		StoreOK:   h.storeOK,
		Uptime:    time.Since(startTime).String(),
		Errors:    errs,
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	code := http.StatusOK
	switch health.Status {
	case "degraded":
		code = http.StatusServiceUnavailable
	case "unhealthy":
		code = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}
