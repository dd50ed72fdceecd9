package httpx

import (
	"io"
	"net/http"
)

const healthResponse = `{"status":"ok","service":"postanos"}`

// healthHandler answers readiness/liveness probes. It never touches the
// database or Redis; a healthy process is enough to accept a trigger request.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	// Ignore write errors; the probe connection may already be gone.
	_, _ = io.WriteString(w, healthResponse)
}
