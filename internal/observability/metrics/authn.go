package metrics

import (
	"time"

	obserrors "github.com/target/gatekeeper/internal/observability/errors"
	"github.com/target/gatekeeper/internal/observability/statsd"
)

// Metric names emitted by the authentication pipeline.
const (
	MetricAuthnDecision = "authn.decision"
	MetricAuthnLookup   = "authn.lookup"
)

// Result constants for lookup tagging.
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// DecisionMetric describes one authentication decision.
type DecisionMetric struct {
	Outcome string
	Method  string
}

// EmitDecision counts an authentication decision tagged by outcome and method.
func EmitDecision(sink statsd.Sink, in DecisionMetric) {
	if sink == nil {
		return
	}
	sink.Count(MetricAuthnDecision, 1, map[string]string{
		"outcome": in.Outcome,
		"method":  in.Method,
	})
}

// LookupMetric describes one identity store round trip.
type LookupMetric struct {
	Result   string
	Duration time.Duration
	Err      error
}

// EmitLookup records identity lookup latency.
func EmitLookup(sink statsd.Sink, in LookupMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Timing(MetricAuthnLookup, in.Duration, tags)
}
