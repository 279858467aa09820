package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/metrics"
	"github.com/jackzampolin/perceive/internal/svcctx"
)

const defaultMetricsLimit = 100

// ListMetricsResponse is the response for GET /api/metrics.
type ListMetricsResponse struct {
	Metrics []metrics.Metric `json:"metrics" yaml:"metrics"`
	Total   int              `json:"total" yaml:"total"`
}

// MetricsSummaryResponse is the response for GET /api/metrics/summary.
type MetricsSummaryResponse struct {
	Summary    metrics.Summary            `json:"summary" yaml:"summary"`
	ByProvider map[string]metrics.Summary `json:"by_provider" yaml:"by_provider"`
	ByModel    map[string]metrics.Summary `json:"by_model" yaml:"by_model"`
	ByOp       map[string]metrics.Summary `json:"by_op" yaml:"by_op"`
}

// metricsFlags binds the filter flags shared by the metrics commands.
type metricsFlags struct {
	cmd      *cobra.Command
	op       string
	provider string
	model    string
	success  bool
}

func (f *metricsFlags) bind(cmd *cobra.Command) {
	f.cmd = cmd
	cmd.Flags().StringVar(&f.op, "op", "", "Filter by operation (analyze, caption, detect, ocr)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Filter by provider")
	cmd.Flags().StringVar(&f.model, "model", "", "Filter by model")
	cmd.Flags().BoolVar(&f.success, "success", false, "Filter by outcome (--success=false for errors only)")
}

func (f *metricsFlags) filter() metrics.Filter {
	mf := metrics.Filter{Op: f.op, Provider: f.provider, Model: f.model}
	if f.cmd != nil && f.cmd.Flags().Changed("success") {
		mf.Success = &f.success
	}
	return mf
}

// ListMetricsEndpoint handles GET /api/metrics.
type ListMetricsEndpoint struct{}

func (e *ListMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics", e.handler
}

func (e *ListMetricsEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		List recent vision calls
//	@Description	Token usage, latency and outcome of recent provider calls, newest first
//	@Tags			metrics
//	@Produce		json
//	@Param			op			query		string	false	"Filter by operation"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			model		query		string	false	"Filter by model"
//	@Param			success		query		bool	false	"Filter by outcome"
//	@Param			limit		query		int		false	"Maximum results (default 100)"
//	@Success		200			{object}	ListMetricsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/api/metrics [get]
func (e *ListMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := metrics.ParseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := defaultMetricsLimit
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	rec := svcctx.MetricsFrom(r.Context())
	list := rec.List(filter, limit)
	if list == nil {
		list = []metrics.Metric{}
	}
	writeJSON(w, http.StatusOK, ListMetricsResponse{Metrics: list, Total: rec.Total()})
}

func (e *ListMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		f     metricsFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List recent vision calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := f.filter().Values()
			q.Set("limit", strconv.Itoa(limit))

			client := api.NewClient(getServerURL())
			var resp ListMetricsResponse
			if err := client.Get(cmd.Context(), "/api/metrics?"+q.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	f.bind(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultMetricsLimit, "Maximum results (0 for all)")
	return cmd
}

// MetricsSummaryEndpoint handles GET /api/metrics/summary.
type MetricsSummaryEndpoint struct{}

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		Summarize vision calls
//	@Description	Aggregate counts, tokens and latency percentiles, overall and per provider and operation
//	@Tags			metrics
//	@Produce		json
//	@Param			op			query		string	false	"Filter by operation"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Success		200			{object}	MetricsSummaryResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/api/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	filter, err := metrics.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := svcctx.MetricsFrom(r.Context())
	writeJSON(w, http.StatusOK, MetricsSummaryResponse{
		Summary:    rec.Summary(filter),
		ByProvider: rec.ByProvider(filter),
		ByModel:    rec.ByModel(filter),
		ByOp:       rec.ByOp(filter),
	})
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var f metricsFlags
	cmd := &cobra.Command{
		Use:   "metrics-summary",
		Short: "Summarize recent vision calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/metrics/summary"
			if q := f.filter().Values(); len(q) > 0 {
				path += "?" + q.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp MetricsSummaryResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	f.bind(cmd)
	return cmd
}
