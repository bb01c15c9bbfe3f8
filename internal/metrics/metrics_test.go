package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Extractions.WithLabelValues("ok"))
	Extractions.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Extractions.WithLabelValues("ok")))
}

func TestWriteTextfile(t *testing.T) {
	CacheHits.WithLabelValues("graph").Inc()

	path := filepath.Join(t.TempDir(), "routemap.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "routemap_cache_hits_total")
}

func TestWriteTextfile_MissingDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "nope", "routemap.prom"))
	assert.Error(t, err)
}
