package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsRunsAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "outbox-retention"
	metrics.ObserveDuration(job, 120*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	success, err := fetchCounterValue(mfs, "cron_job_runs_total", map[string]string{"job": job, "result": "success"})
	if err != nil {
		t.Fatalf("fetch success: %v", err)
	}
	if success != 1 {
		t.Fatalf("expected success=1, got %f", success)
	}

	failure, err := fetchCounterValue(mfs, "cron_job_runs_total", map[string]string{"job": job, "result": "failure"})
	if err != nil {
		t.Fatalf("fetch failure: %v", err)
	}
	if failure != 1 {
		t.Fatalf("expected failure=1, got %f", failure)
	}

	sum, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", map[string]string{"job": job})
	if err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
	if sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestCronJobMetricsNormalizesEmptyJobLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	metrics.IncSuccess("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "cron_job_runs_total", map[string]string{"job": "unknown", "result": "success"})
	if err != nil {
		t.Fatalf("fetch success: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected success=1 for unknown label, got %f", got)
	}
}

func TestCronJobMetricsNilRegistererIsInert(t *testing.T) {
	metrics := NewCronJobMetrics(nil)
	metrics.ObserveDuration("any", time.Second)
	metrics.IncSuccess("any")
	metrics.IncFailure("any")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	seen := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		seen[pair.GetName()] = pair.GetValue()
	}
	for name, value := range want {
		if seen[name] != value {
			return false
		}
	}
	return true
}
