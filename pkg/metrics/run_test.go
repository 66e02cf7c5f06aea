package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRun_Counters(t *testing.T) {
	r := NewRun("campites")
	r.RowsRead("registrations", 5)
	r.Skipped("unresolvable user", 1)
	r.Skipped("unresolvable user", 1)
	r.UsersSynthesized(2)
	r.RecordsWritten("campites", 3)

	mfs, err := r.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			labels := labelsToMap(m)
			require.Equal(t, "campites", labels["command"])
			if m.GetCounter() != nil {
				values[mf.GetName()+"/"+labels["stage"]+labels["reason"]+labels["artifact"]] = m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(5), values["campseed_rows_total/registrations"])
	require.Equal(t, float64(2), values["campseed_skipped_total/unresolvable user"])
	require.Equal(t, float64(2), values["campseed_users_synthesized_total/"])
	require.Equal(t, float64(3), values["campseed_records_written_total/campites"])
}

func TestRun_WriteTextfile(t *testing.T) {
	r := NewRun("seed")
	r.RecordsWritten("sql", 10)
	start := time.Unix(1700000000, 0)
	r.Succeeded(start, start.Add(1500*time.Millisecond))

	path := filepath.Join(t.TempDir(), "campseed.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	require.True(t, strings.Contains(out, `campseed_records_written_total{artifact="sql",command="seed"} 10`), out)
	require.True(t, strings.Contains(out, `campseed_run_duration_seconds{command="seed"} 1.5`), out)
}

func labelsToMap(m *dto.Metric) map[string]string {
	out := map[string]string{}
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}
