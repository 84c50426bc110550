package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.NewsCreated()
	m.NewsCreated()
	m.NewsDeleted()
	m.UploadStored()
	m.UploadRejected("too_large")
	m.ListCache("hit")
	m.ObserveHTTP("GET", "/api/news", "200", 15*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.newsCreated))
	require.Equal(t, 1.0, testutil.ToFloat64(m.newsDeleted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.uploadsStored))
	require.Equal(t, 1.0, testutil.ToFloat64(m.uploadsRejected.WithLabelValues("too_large")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.listCache.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/news", "200")))
}

// TestMetrics_NilSafe — вызовы на nil не паникуют.
func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.NewsCreated()
		m.NewsDeleted()
		m.UploadStored()
		m.UploadRejected("no_file")
		m.ListCache("miss")
		m.ObserveHTTP("GET", "/", "200", time.Second)
	})
}
