package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
			found++
		}
	}
	return found == len(labels)
}

func TestRecordMove(t *testing.T) {
	before := counterValue(t, "tictactoe_game_moves_total", map[string]string{"result": "NOT_YOUR_TURN"})
	RecordMove("NOT_YOUR_TURN")
	RecordMove("NOT_YOUR_TURN")
	after := counterValue(t, "tictactoe_game_moves_total", map[string]string{"result": "NOT_YOUR_TURN"})
	assert.Equal(t, before+2, after)
}

func TestRecordCacheLookup(t *testing.T) {
	hits := counterValue(t, "tictactoe_cache_lookups_total", map[string]string{"result": "hit"})
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	assert.Equal(t, hits+1, counterValue(t, "tictactoe_cache_lookups_total", map[string]string{"result": "hit"}))
}

func TestRequestStarted(t *testing.T) {
	done := RequestStarted()
	done("GET", "/games/:gameId", 200)
	v := counterValue(t, "tictactoe_http_requests_total", map[string]string{"route": "/games/:gameId", "status": "200"})
	assert.GreaterOrEqual(t, v, 1.0)
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordTransition("active", "join")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tictactoe_game_transitions_total"))
}
