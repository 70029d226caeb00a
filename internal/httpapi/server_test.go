package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maemo32/tomasulo/engine"
	"github.com/maemo32/tomasulo/internal/httpapi"
)

func newTestServer() (*httpapi.Server, *httptest.Server) {
	s := httpapi.NewServer(engine.DefaultConfig())
	return s, httptest.NewServer(s.Router())
}

func createSimulation(t *testing.T, base string, programText string) string {
	t.Helper()
	body, err := json.Marshal(map[string]string{"program_text": programText})
	require.NoError(t, err)

	resp, err := http.Post(base+"/simulations", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func TestCreateRunAndReadCycles(t *testing.T) {
	_, srv := newTestServer()
	defer srv.Close()

	id := createSimulation(t, srv.URL, "ADD R1 R2 R3\n")

	resp, err := http.Post(srv.URL+"/simulations/"+id+"/run", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cyclesResp, err := http.Get(srv.URL + "/simulations/" + id + "/cycles")
	require.NoError(t, err)
	defer cyclesResp.Body.Close()
	assert.Equal(t, http.StatusOK, cyclesResp.StatusCode)

	var doc struct {
		Cycles  []json.RawMessage `json:"cycles"`
		Metrics struct {
			Committed int `json:"Committed"`
		} `json:"metrics"`
	}
	require.NoError(t, json.NewDecoder(cyclesResp.Body).Decode(&doc))
	assert.NotEmpty(t, doc.Cycles)
	assert.Equal(t, 1, doc.Metrics.Committed)
}

func TestStepThenStepBackRoundTrips(t *testing.T) {
	_, srv := newTestServer()
	defer srv.Close()

	id := createSimulation(t, srv.URL, "ADD R1 R2 R3\nADD R4 R1 R5\n")

	for i := 0; i < 3; i++ {
		resp, err := http.Post(srv.URL+"/simulations/"+id+"/step", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
	}

	stepResp, err := http.Post(srv.URL+"/simulations/"+id+"/step", "application/json", nil)
	require.NoError(t, err)
	var afterStep struct {
		Clock int `json:"clock"`
	}
	require.NoError(t, json.NewDecoder(stepResp.Body).Decode(&afterStep))
	stepResp.Body.Close()

	backResp, err := http.Post(srv.URL+"/simulations/"+id+"/step-back", "application/json", nil)
	require.NoError(t, err)
	defer backResp.Body.Close()
	assert.Equal(t, http.StatusOK, backResp.StatusCode)

	var afterBack struct {
		Clock int `json:"clock"`
	}
	require.NoError(t, json.NewDecoder(backResp.Body).Decode(&afterBack))
	assert.Equal(t, afterStep.Clock-1, afterBack.Clock)
}

func TestCreateRejectsMalformedProgram(t *testing.T) {
	_, srv := newTestServer()
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"program_text": "BOGUS R1 R2 R3\n"})
	resp, err := http.Post(srv.URL+"/simulations", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSimulationIDIsNotFound(t *testing.T) {
	_, srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/simulations/00000000-0000-0000-0000-000000000000/cycles")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
