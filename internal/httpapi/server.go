// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package httpapi exposes a rack's own diagnostics over HTTP: a health
// check an operator or orchestrator can poll, and a Prometheus scrape
// endpoint. It is deliberately small — the cluster protocol (C14) is the
// driver's real control plane, this is just the side channel a human (or
// a liveness probe) uses when the cluster link itself is down.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldbridge/driver/pkg/health"
	"github.com/fieldbridge/driver/pkg/log"
)

var tasksRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "driver_tasks_running",
	Help: "Number of tasks currently running on this rack.",
})

// SetTasksRunning updates the driver_tasks_running gauge. The task manager
// calls this after every task_set/task_delete so /metrics stays current.
func SetTasksRunning(n int) {
	tasksRunning.Set(float64(n))
}

// NewServer builds the diagnostics HTTP server, routed with gorilla/mux:
// GET /healthz reports pkg/health's capability probe, GET /metrics serves
// the process's Prometheus registry.
func NewServer(addr string) *http.Server {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return &http.Server{Addr: addr, Handler: r}
}

// requestIDMiddleware tags every request with a fresh correlation id
// (logged, not trusted from the client) so a rack's httpapi log lines
// can be grepped per-request.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		log.Debugf("httpapi: %s %s [%s]", r.Method, r.URL.Path, id)
		next.ServeHTTP(w, r)
	})
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	report := health.Probe()
	w.Header().Set("Content-Type", "application/json")
	if !report.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(reportPayload(report))
}

type statusPayload struct {
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
	Permitted bool   `json:"permitted"`
	Advice    string `json:"advice,omitempty"`
}

func reportPayload(r health.Report) []statusPayload {
	out := make([]statusPayload, len(r.Statuses))
	for i, s := range r.Statuses {
		out[i] = statusPayload{Name: s.Name, Supported: s.Supported, Permitted: s.Permitted, Advice: s.Advice()}
	}
	return out
}
