package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsync/internal/engine"
	"gridsync/internal/grid"
	"gridsync/internal/pool"
	"gridsync/internal/service"
	"gridsync/internal/testutil"
)

const gridLocator = "__gridsync_ctid__"

// newTestServer wires the full stack over a mock connection: executor,
// query service, loader, runner, and registry behind the chi router.
func newTestServer(t *testing.T, conn *testutil.MockConn) (*httptest.Server, *testutil.MockHistoryRepo) {
	t.Helper()

	provider := &testutil.MockProvider{
		CheckoutFn: func(context.Context) (pool.Conn, error) { return conn, nil },
	}
	history := &testutil.MockHistoryRepo{}
	querySvc := service.NewQueryService(engine.NewExecutor(provider, 100, nil), history, nil)
	registry := grid.NewRegistry(grid.NewLoader(provider, nil), grid.NewRunner(provider, nil), nil)

	r := chi.NewRouter()
	r.Route("/v1", NewHandler(querySvc, registry, 200, nil).Routes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, history
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRunQueryEndpoint(t *testing.T) {
	t.Parallel()

	conn := &testutil.MockConn{
		QueryFn: func(context.Context, string, ...interface{}) (*pool.Result, error) {
			return &pool.Result{
				Columns:  []string{"n"},
				Rows:     [][]interface{}{{float64(1)}},
				Affected: 1,
			}, nil
		},
	}
	srv, history := newTestServer(t, conn)

	resp := postJSON(t, srv.URL+"/v1/query", map[string]string{"sql": "SELECT 1 AS n"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID     string `json:"id"`
		Result struct {
			Rows      []map[string]interface{} `json:"rows"`
			RowCount  int                      `json:"rowCount"`
			Truncated bool                     `json:"truncated"`
			Cancelled bool                     `json:"cancelled"`
		} `json:"result"`
	}
	decode(t, resp, &body)

	assert.NotEmpty(t, body.ID)
	assert.Equal(t, 1, body.Result.RowCount)
	require.Len(t, body.Result.Rows, 1)
	assert.Equal(t, float64(1), body.Result.Rows[0]["n"])
	assert.Len(t, history.Entries, 1)
}

func TestRunQueryServerErrorStaysHTTP200(t *testing.T) {
	t.Parallel()

	conn := &testutil.MockConn{
		QueryFn: func(context.Context, string, ...interface{}) (*pool.Result, error) {
			return nil, &pgconn.PgError{Message: "division by zero", Code: "22012"}
		},
	}
	srv, _ := newTestServer(t, conn)

	resp := postJSON(t, srv.URL+"/v1/query", map[string]string{"sql": "SELECT 1/0"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "server-side SQL failures ride inside the result")

	var body struct {
		Result struct {
			Error *struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		} `json:"result"`
	}
	decode(t, resp, &body)
	require.NotNil(t, body.Result.Error)
	assert.Equal(t, "22012", body.Result.Error.Code)
}

func TestRunQueryEmptySQLIs400(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &testutil.MockConn{})

	resp := postJSON(t, srv.URL+"/v1/query", map[string]string{"sql": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelUnknownQuery(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &testutil.MockConn{})

	resp := postJSON(t, srv.URL+"/v1/query/nope/cancel", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Dispatched bool `json:"dispatched"`
	}
	decode(t, resp, &body)
	assert.False(t, body.Dispatched)
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	conn := &testutil.MockConn{
		QueryFn: func(_ context.Context, _ string, args ...interface{}) (*pool.Result, error) {
			return &pool.Result{
				Columns: []string{gridLocator, "id", "name"},
				Rows: [][]interface{}{
					{"(0,1)", "1", "alice"},
				},
			}, nil
		},
	}
	srv, _ := newTestServer(t, conn)

	// Open.
	resp := postJSON(t, srv.URL+"/v1/sessions", map[string]interface{}{"table": "people", "pageSize": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var opened struct {
		ID    string `json:"id"`
		State struct {
			Table string `json:"table"`
			Rows  []struct {
				Cells []struct {
					Value string `json:"value"`
				} `json:"cells"`
			} `json:"rows"`
		} `json:"state"`
	}
	decode(t, resp, &opened)
	require.NotEmpty(t, opened.ID)
	assert.Equal(t, "people", opened.State.Table)
	require.Len(t, opened.State.Rows, 1)

	// Edit a cell.
	req, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/v1/sessions/%s/cells", srv.URL, opened.ID),
		bytes.NewReader([]byte(`{"row":0,"col":1,"value":"alicia"}`)))
	require.NoError(t, err)
	editResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var state struct {
		Dirty bool `json:"dirty"`
	}
	decode(t, editResp, &state)
	assert.True(t, state.Dirty)

	// Read it back.
	getResp, err := http.Get(fmt.Sprintf("%s/v1/sessions/%s", srv.URL, opened.ID))
	require.NoError(t, err)
	decode(t, getResp, &state)
	assert.True(t, state.Dirty)

	// Discard via the cancel command.
	cmdResp := postJSON(t, fmt.Sprintf("%s/v1/sessions/%s/command", srv.URL, opened.ID),
		map[string]string{"command": "cancel"})
	require.Equal(t, http.StatusOK, cmdResp.StatusCode)
	var cmdBody struct {
		State struct {
			Dirty bool `json:"dirty"`
		} `json:"state"`
	}
	decode(t, cmdResp, &cmdBody)
	assert.False(t, cmdBody.State.Dirty)

	// Close.
	req, err = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", srv.URL, opened.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	getResp, err = http.Get(fmt.Sprintf("%s/v1/sessions/%s", srv.URL, opened.ID))
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestSessionAddRow(t *testing.T) {
	t.Parallel()

	conn := &testutil.MockConn{
		QueryFn: func(context.Context, string, ...interface{}) (*pool.Result, error) {
			return &pool.Result{
				Columns: []string{gridLocator, "id"},
				Rows:    [][]interface{}{{"(0,1)", "1"}},
			}, nil
		},
	}
	srv, _ := newTestServer(t, conn)

	resp := postJSON(t, srv.URL+"/v1/sessions", map[string]interface{}{"table": "people"})
	var opened struct {
		ID string `json:"id"`
	}
	decode(t, resp, &opened)

	rowResp := postJSON(t, fmt.Sprintf("%s/v1/sessions/%s/rows", srv.URL, opened.ID), struct{}{})
	require.Equal(t, http.StatusOK, rowResp.StatusCode)
	var rowBody struct {
		Row int `json:"row"`
	}
	decode(t, rowResp, &rowBody)
	assert.Equal(t, 1, rowBody.Row)
}

func TestSessionCommandValidation(t *testing.T) {
	t.Parallel()

	conn := &testutil.MockConn{
		QueryFn: func(context.Context, string, ...interface{}) (*pool.Result, error) {
			return &pool.Result{Columns: []string{gridLocator, "id"}}, nil
		},
	}
	srv, _ := newTestServer(t, conn)

	resp := postJSON(t, srv.URL+"/v1/sessions", map[string]interface{}{"table": "people"})
	var opened struct {
		ID string `json:"id"`
	}
	decode(t, resp, &opened)

	cmdResp := postJSON(t, fmt.Sprintf("%s/v1/sessions/%s/command", srv.URL, opened.ID),
		map[string]string{"command": "explode"})
	cmdResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, cmdResp.StatusCode)
}

func TestUnknownSessionIs404(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &testutil.MockConn{})

	resp, err := http.Get(srv.URL + "/v1/sessions/ffffffff-0000-0000-0000-000000000000")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOpenSessionEmptyTableIs400(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &testutil.MockConn{})

	resp := postJSON(t, srv.URL+"/v1/sessions", map[string]interface{}{"table": ""})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()

	conn := &testutil.MockConn{
		QueryFn: func(context.Context, string, ...interface{}) (*pool.Result, error) {
			return &pool.Result{Columns: []string{"n"}, Rows: [][]interface{}{{int64(1)}}, Affected: 1}, nil
		},
	}
	srv, _ := newTestServer(t, conn)

	postJSON(t, srv.URL+"/v1/query", map[string]string{"sql": "SELECT 1"}).Body.Close()

	resp, err := http.Get(srv.URL + "/v1/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Entries []struct {
			SQL       string `json:"sql"`
			Status    string `json:"status"`
			CreatedAt string `json:"createdAt"`
		} `json:"entries"`
		Total int64 `json:"total"`
	}
	decode(t, resp, &body)

	assert.EqualValues(t, 1, body.Total)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "SELECT 1", body.Entries[0].SQL)
	assert.Equal(t, "OK", body.Entries[0].Status)
}

func TestHistoryEndpointRejectsBadMaxResults(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &testutil.MockConn{})

	resp, err := http.Get(srv.URL + "/v1/history?maxResults=lots")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
