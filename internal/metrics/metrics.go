// Package metrics collects and exposes the agent's runtime observability
// data through a Prometheus registry (see prometheus.go), served by
// PrometheusHandler. The control plane does not mount that handler, and
// its /apis/overview endpoint does not include these metrics.
package metrics

import (
	"sync"
	"time"
)

var (
	startTime     time.Time
	startTimeOnce sync.Once
)

func init() {
	startTimeOnce.Do(func() {
		startTime = time.Now()
	})
}

// StartTime returns when this process' metrics subsystem was initialized,
// used to compute the uptime gauge.
func StartTime() time.Time {
	return startTime
}
