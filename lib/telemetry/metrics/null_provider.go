package metrics

import "time"

type NullMetricsProvider struct{}

func (NullMetricsProvider) Gauge(string, float64, map[string]string) {}

func (NullMetricsProvider) GaugeWithSample(string, float64, map[string]string, float64) {}

func (NullMetricsProvider) Count(string, int64, map[string]string) {}

func (NullMetricsProvider) Timing(string, time.Duration, map[string]string) {}

func (NullMetricsProvider) Incr(string, map[string]string) {}
