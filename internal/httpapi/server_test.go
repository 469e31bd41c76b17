package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/iou-ledger/internal/client"
	"github.com/sheikh-saqib/iou-ledger/internal/common"
	"github.com/sheikh-saqib/iou-ledger/internal/ledger"
	"github.com/sheikh-saqib/iou-ledger/internal/metrics"
	"github.com/sheikh-saqib/iou-ledger/internal/models"
	"github.com/sheikh-saqib/iou-ledger/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()
	reg := prometheus.NewRegistry()
	l := ledger.NewLedger(memory.NewMemoryIOUStore(),
		ledger.WithLogger(common.NewTestEntry(t, "ledger")),
		ledger.WithMetrics(metrics.New(reg)))
	c := client.New(l, common.NewTestEntry(t, "client"))
	srv := httptest.NewServer(NewServer(l, c, reg, common.NewTestEntry(t, "http")).Handler())
	t.Cleanup(srv.Close)
	return srv, l
}

func postIOU(t *testing.T, srv *httptest.Server, caller, key, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/ious", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(CallerHeader, caller)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, srv *httptest.Server, path string, v any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]string
	getJSON(t, srv, "/health", &body)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_AddIOUNetsCycle(t *testing.T) {
	srv, l := newTestServer(t)

	resp := postIOU(t, srv, "0xA", "", `{"debtor":"0xA","creditor":"0xB","amount":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = postIOU(t, srv, "0xb", "", `{"debtor":"0xB","creditor":"0xC","amount":"20"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postIOU(t, srv, "0xc", "", `{"debtor":"0xc","creditor":"0xa","amount":30}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out addIOUResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "10", out.Settled.String())
	assert.Equal(t, []string{"0xc", "0xa", "0xb", "0xc"}, out.Cycle)

	assert.Zero(t, l.AmountOwed("0xa", "0xb"))
	assert.EqualValues(t, 10, l.AmountOwed("0xb", "0xc"))
	assert.EqualValues(t, 20, l.AmountOwed("0xc", "0xa"))

	var lookup struct {
		Amount models.Amount `json:"amount"`
	}
	getJSON(t, srv, "/ious/lookup?debtor=0xC&creditor=0xA", &lookup)
	assert.EqualValues(t, 20, lookup.Amount)

	var total struct {
		TotalOwed uint64 `json:"total_owed"`
	}
	getJSON(t, srv, "/users/0xb/total-owed", &total)
	assert.EqualValues(t, 10, total.TotalOwed)

	var users []string
	getJSON(t, srv, "/users", &users)
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, users)
}

func TestServer_ExplicitPath(t *testing.T) {
	srv, l := newTestServer(t)

	postIOU(t, srv, "a", "", `{"debtor":"a","creditor":"b","amount":10}`)
	resp := postIOU(t, srv, "b", "", `{"debtor":"b","creditor":"a","amount":3,"path":["a","b"]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 7, l.AmountOwed("a", "b"))
}

func TestServer_Rejections(t *testing.T) {
	srv, l := newTestServer(t)

	cases := []struct {
		name   string
		caller string
		body   string
		status int
	}{
		{"bad json", "a", `{`, http.StatusBadRequest},
		{"not the debtor", "b", `{"debtor":"a","creditor":"b","amount":1}`, http.StatusForbidden},
		{"no caller", "", `{"debtor":"a","creditor":"b","amount":1}`, http.StatusForbidden},
		{"negative", "a", `{"debtor":"a","creditor":"b","amount":-10}`, http.StatusBadRequest},
		{"fractional", "a", `{"debtor":"a","creditor":"b","amount":1.5}`, http.StatusBadRequest},
		{"too wide", "a", `{"debtor":"a","creditor":"b","amount":4294967296}`, http.StatusBadRequest},
		{"self debt", "a", `{"debtor":"a","creditor":"A","amount":1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postIOU(t, srv, tc.caller, "", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
	assert.Empty(t, l.Participants())
}

func TestServer_Idempotent(t *testing.T) {
	srv, l := newTestServer(t)

	first := postIOU(t, srv, "a", "key-1", `{"debtor":"a","creditor":"b","amount":5}`)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	again := postIOU(t, srv, "a", "key-1", `{"debtor":"a","creditor":"b","amount":5}`)
	require.Equal(t, http.StatusOK, again.StatusCode)

	var out addIOUResponse
	require.NoError(t, json.NewDecoder(again.Body).Decode(&out))
	assert.True(t, out.Duplicate)
	assert.EqualValues(t, 5, l.AmountOwed("a", "b"))
}

func TestServer_QueriesForUnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)

	var last struct {
		LastActive *int64 `json:"last_active"`
	}
	getJSON(t, srv, "/users/nobody/last-active", &last)
	assert.Nil(t, last.LastActive)

	var creditors []models.Edge
	getJSON(t, srv, "/users/nobody/creditors", &creditors)
	assert.Empty(t, creditors)

	var path struct {
		Path []string `json:"path"`
	}
	getJSON(t, srv, "/path?from=a&to=b", &path)
	assert.Nil(t, path.Path)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)
	postIOU(t, srv, "a", "", `{"debtor":"a","creditor":"b","amount":5}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "iou_ledger_ious_recorded_total 1")
}
