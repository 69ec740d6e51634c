// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.WithLabelValues(labels...))
}

func TestRecordSnackbar_CountsPerVariant(t *testing.T) {
	successBefore := getCounterVecValue(t, snackbarsEmitted, "success")
	errorBefore := getCounterVecValue(t, snackbarsEmitted, "error")

	RecordSnackbar("success")
	RecordSnackbar("error")
	RecordSnackbar("error")

	assert.Equal(t, successBefore+1, getCounterVecValue(t, snackbarsEmitted, "success"))
	assert.Equal(t, errorBefore+2, getCounterVecValue(t, snackbarsEmitted, "error"))
}

func TestRecordQueryCacheLookup_SplitsHitsAndMisses(t *testing.T) {
	hitBefore := getCounterVecValue(t, queryCacheLookups, "GetThing", "hit")
	missBefore := getCounterVecValue(t, queryCacheLookups, "GetThing", "miss")

	RecordQueryCacheLookup("GetThing", true)
	RecordQueryCacheLookup("GetThing", false)
	RecordQueryCacheLookup("GetThing", false)

	assert.Equal(t, hitBefore+1, getCounterVecValue(t, queryCacheLookups, "GetThing", "hit"))
	assert.Equal(t, missBefore+2, getCounterVecValue(t, queryCacheLookups, "GetThing", "miss"))
}
