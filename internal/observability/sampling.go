package observability

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newSampler maps an OTEL_TRACES_SAMPLER name to a Sampler. ratio is used by the traceidratio variants and is
// clamped to [0, 1]. Empty or unknown names fall back to parentbased_always_on, the SDK default.
func newSampler(name string, ratio float64) sdktrace.Sampler {
	ratio = min(max(ratio, 0), 1)

	switch name {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio)
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}
