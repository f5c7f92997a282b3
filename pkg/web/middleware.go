// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
)

// responseTime records each request's handling duration against the request
// path, method and status code, for the response-time metric the monitor
// backend scrapes.
func responseTime(monitor monitoring.MonitorInterface, logger logging.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			metric, err := monitor.GetResponseTimeMetric(map[string]string{
				"path":   r.URL.Path,
				"method": r.Method,
				"status": strconv.Itoa(rw.status),
			})
			if err != nil {
				logger.Errorf("unable to record response time metric, %s", err)
				return
			}
			metric.Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
