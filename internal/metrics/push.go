package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name used for command activity.
const PushJob = "habitd"

// Push sends the activity counters of this process to a Pushgateway.
// Series are grouped by instance, so each push replaces the previous one
// from the same host.
func Push(ctx context.Context, url, instance string) error {
	pusher := push.New(url, PushJob).Grouping("instance", instance)
	for _, c := range activityCollectors {
		pusher = pusher.Collector(c)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
