package metrics

// Breakdown groups metrics matching f by key and summarizes each group.
func (r *Recorder) Breakdown(f Filter, key func(Metric) string) map[string]Summary {
	groups := make(map[string][]Metric)
	for _, m := range r.List(f, 0) {
		k := key(m)
		groups[k] = append(groups[k], m)
	}

	result := make(map[string]Summary, len(groups))
	for k, ms := range groups {
		result[k] = Summarize(ms)
	}
	return result
}

// ByProvider summarizes metrics per provider.
func (r *Recorder) ByProvider(f Filter) map[string]Summary {
	return r.Breakdown(f, func(m Metric) string { return m.Provider })
}

// ByModel summarizes metrics per model.
func (r *Recorder) ByModel(f Filter) map[string]Summary {
	return r.Breakdown(f, func(m Metric) string { return m.Model })
}

// ByOp summarizes metrics per operation.
func (r *Recorder) ByOp(f Filter) map[string]Summary {
	return r.Breakdown(f, func(m Metric) string { return m.Op })
}
