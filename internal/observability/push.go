package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name for pipeline runs.
const PushJob = "ocean_health_etl"

// Push sends the gathered metrics to a Prometheus Pushgateway. A batch job
// exits before a scraper can reach it, so this is how run metrics survive.
func Push(ctx context.Context, url string, g prometheus.Gatherer) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, PushJob).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
