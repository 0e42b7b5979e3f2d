package library

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordRegistryEvents(t *testing.T) {
	promReg := prometheus.NewRegistry()
	metrics, err := NewMetrics(promReg)
	require.NoError(t, err)

	reg := NewRegistry(WithRecorder(metrics))
	m := reg.RegisterMember(NewMember("John", "Doe", "john@example.com"))
	reg.AddItem(NewBook("B", 2000, "x", "x", "isbn"))
	reg.AddItem(NewVideo("V", 2000, "x", "DVD", 90))

	_, _ = reg.CheckoutBook("isbn", m.ID)
	_, _ = reg.CheckoutBook("isbn", m.ID)
	_, _ = reg.CheckoutBook("missing", m.ID)
	_, _ = reg.CheckoutVideo("VID0001", m.ID)
	_, _ = reg.ReturnVideo("VID0001", m.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.registered))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.added.WithLabelValues("Book")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("checkout", "Book", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("checkout", "Book", "already_checked_out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("checkout", "Book", "item_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("return", "Video", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.onLoan.WithLabelValues("Book")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.onLoan.WithLabelValues("Video")))

	metrics.SyncOnLoan(reg.Snapshot())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.onLoan.WithLabelValues("Book")))
}

func TestNewMetricsRejectsDoubleRegistration(t *testing.T) {
	promReg := prometheus.NewRegistry()
	_, err := NewMetrics(promReg)
	require.NoError(t, err)
	_, err = NewMetrics(promReg)
	assert.Error(t, err)
}
