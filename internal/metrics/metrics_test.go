package metrics

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretconf/pkg/secretfile"
)

func TestCollectorObserveFetch(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.ObserveFetch("aws.secretsmanager", secretfile.OutcomeFound, 20*time.Millisecond)
	c.ObserveFetch("aws.secretsmanager", secretfile.OutcomeFound, 30*time.Millisecond)
	c.ObserveFetch("aws.secretsmanager", secretfile.OutcomeNotFound, time.Millisecond)
	c.ObserveFetch("gcp.secretmanager", secretfile.OutcomeError, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.fetchTotal.WithLabelValues("aws.secretsmanager", "found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetchTotal.WithLabelValues("aws.secretsmanager", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetchTotal.WithLabelValues("gcp.secretmanager", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.fetchDuration))
}

func TestCollectorObserveBuild(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.ObserveBuild(nil)
	c.ObserveBuild(errors.New("boom"))
	c.ObserveBuild(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.buildTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.buildTotal.WithLabelValues("failure")))
}

func TestCollectorWriteText(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.ObserveFetch("azure.keyvault", secretfile.OutcomeFound, 10*time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "# TYPE secretconf_secret_fetch_total counter")
	assert.Contains(t, out, `secretconf_secret_fetch_total{outcome="found",store="azure.keyvault"} 1`)
	assert.Contains(t, out, "secretconf_secret_fetch_duration_seconds_count")
}

func TestCollectorsAreIndependent(t *testing.T) {
	t.Parallel()

	a, b := NewCollector(), NewCollector()
	a.ObserveBuild(nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.buildTotal.WithLabelValues("success")))
	assert.NotSame(t, a.Registry(), b.Registry())
}
