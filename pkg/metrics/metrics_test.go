package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SearchQueriesTotal.WithLabelValues("ranked", "hit").Inc()
	m.BuildDocuments.WithLabelValues("lemmas", "skipped").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("ranked", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BuildDocuments.WithLabelValues("lemmas", "skipped")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// a second registry accepts a fresh set without duplicate-registration panics
	assert.NotPanics(t, func() { NewNop() })
}
