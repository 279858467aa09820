package metrics

import (
	"math"
	"sort"
)

// Summary aggregates a set of metrics.
type Summary struct {
	Count        int `json:"count" yaml:"count"`
	SuccessCount int `json:"success_count" yaml:"success_count"`
	ErrorCount   int `json:"error_count" yaml:"error_count"`

	TotalPromptTokens     int     `json:"total_prompt_tokens" yaml:"total_prompt_tokens"`
	TotalCompletionTokens int     `json:"total_completion_tokens" yaml:"total_completion_tokens"`
	TotalTokens           int     `json:"total_tokens" yaml:"total_tokens"`
	AvgTokens             float64 `json:"avg_tokens" yaml:"avg_tokens"`

	// Latency in seconds
	TotalSeconds float64 `json:"total_seconds" yaml:"total_seconds"`
	LatencyAvg   float64 `json:"latency_avg" yaml:"latency_avg"`
	LatencyP50   float64 `json:"latency_p50" yaml:"latency_p50"`
	LatencyP95   float64 `json:"latency_p95" yaml:"latency_p95"`
	LatencyMax   float64 `json:"latency_max" yaml:"latency_max"`
}

// Summarize aggregates ms.
func Summarize(ms []Metric) Summary {
	s := Summary{Count: len(ms)}
	if len(ms) == 0 {
		return s
	}

	latencies := make([]float64, 0, len(ms))
	for _, m := range ms {
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
		s.TotalPromptTokens += m.PromptTokens
		s.TotalCompletionTokens += m.CompletionTokens
		s.TotalTokens += m.TotalTokens
		s.TotalSeconds += m.ExecutionSeconds
		latencies = append(latencies, m.ExecutionSeconds)
	}

	sort.Float64s(latencies)
	s.AvgTokens = float64(s.TotalTokens) / float64(s.Count)
	s.LatencyAvg = s.TotalSeconds / float64(s.Count)
	s.LatencyP50 = percentile(latencies, 50)
	s.LatencyP95 = percentile(latencies, 95)
	s.LatencyMax = latencies[len(latencies)-1]
	return s
}

// percentile uses nearest-rank on sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// Summary aggregates the metrics matching f.
func (r *Recorder) Summary(f Filter) Summary {
	return Summarize(r.List(f, 0))
}
