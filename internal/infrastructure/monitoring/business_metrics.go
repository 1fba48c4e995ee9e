package monitoring

// Helpers so callers outside this package never touch prometheus
// types directly.

func RecordCartMutation(operation string) {
	CartMutationsTotal.WithLabelValues(operation).Inc()
}

func RecordClampHit() {
	CartClampHitsTotal.Inc()
}

func RecordReconciliation() {
	CartReconciliationsTotal.Inc()
}

func RecordStaleReconciliation() {
	CartStaleReconciliationsTotal.Inc()
}

func RecordCartMerge(success bool) {
	CartMergesTotal.WithLabelValues(resultLabel(success)).Inc()
}

func RecordServerCartFetch(success bool) {
	ServerCartFetchesTotal.WithLabelValues(resultLabel(success)).Inc()
}

func RecordCartDrift() {
	CartDriftTotal.Inc()
}

func RecordDriftRepair(lines int) {
	CartDriftRepairsTotal.Add(float64(lines))
}

func SetActiveSessions(count int) {
	ActiveSessions.Set(float64(count))
}

func RecordCatalogCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CatalogCacheHitsTotal.WithLabelValues(outcome).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
