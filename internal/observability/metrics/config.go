package metrics

import "go.opentelemetry.io/otel/attribute"

// Config identifies the emitting service on every instrument.
type Config struct {
	ServiceName string
	Environment string
}

// FilterAttributes drops attributes with empty values to keep cardinality low.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Value.Emit() == "" {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
