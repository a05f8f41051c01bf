package base

import "time"

// Client is what the merge reports through. Tags are flattened into the provider's own format.
type Client interface {
	Timing(name string, value time.Duration, tags map[string]string)
	Incr(name string, tags map[string]string)
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	GaugeWithSample(name string, value float64, tags map[string]string, sample float64)
}
