package control_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/control"
	"github.com/ravennakit-go/aoipcore/netio"
	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/sender"
	"github.com/ravennakit-go/aoipcore/socketslot"
)

func newTestRouter(t *testing.T) *control.Router {
	t.Helper()
	pool := socketslot.NewPool()
	return control.NewRouter(control.Params{
		Readers: receiver.NewTable(pool),
		Writers: sender.NewTable(),
		Stats:   netio.NewStatsHub(),
	})
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return env
}

func TestListReadersEmpty(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/readers/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	require.Empty(t, env["data"])
}

func addReaderBody() string {
	return `{
		"id": 1,
		"audio_format": {"byte_order":0,"encoding":1,"ordering":0,"sample_rate_hz":48000,"num_channels":2},
		"primary": {"session":{"connection_address":"127.0.0.1","rtp_port":16000,"rtcp_port":16001},"packet_time_frames":48}
	}`
}

func TestAddReaderThenGetThenRemove(t *testing.T) {
	router := newTestRouter(t)

	addReq := httptest.NewRequest(http.MethodPost, "/v1/readers/", bytes.NewBufferString(addReaderBody()))
	addRec := httptest.NewRecorder()
	router.ServeHTTP(addRec, addReq)
	require.Equal(t, http.StatusCreated, addRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/v1/readers/1", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	data := decodeEnvelope(t, getRec.Body)["data"].(map[string]any)
	require.Equal(t, float64(1), data["id"])

	delReq := httptest.NewRequest(http.MethodDelete, "/v1/readers/1", nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)
	require.Equal(t, http.StatusNoContent, delRec.Code)

	getAgainReq := httptest.NewRequest(http.MethodGet, "/v1/readers/1", nil)
	getAgainRec := httptest.NewRecorder()
	router.ServeHTTP(getAgainRec, getAgainReq)
	require.Equal(t, http.StatusNotFound, getAgainRec.Code)
}

func TestAddReaderDuplicateIDConflicts(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/readers/", bytes.NewBufferString(addReaderBody()))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusCreated, rec.Code)
		} else {
			require.Equal(t, http.StatusConflict, rec.Code)
		}
	}
}

func TestAddReaderInvalidBodyIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/readers/", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddWriterThenList(t *testing.T) {
	router := newTestRouter(t)

	body := `{
		"id": 9,
		"audio_format": {"byte_order":0,"encoding":1,"ordering":0,"sample_rate_hz":48000,"num_channels":2},
		"payload_type": 98,
		"ssrc": 12345,
		"packet_time_frames": 48,
		"primary": {"session":{"connection_address":"127.0.0.1","rtp_port":17000,"rtcp_port":17001},"ttl":15,"enabled":true}
	}`
	addReq := httptest.NewRequest(http.MethodPost, "/v1/writers/", bytes.NewBufferString(body))
	addRec := httptest.NewRecorder()
	router.ServeHTTP(addRec, addReq)
	require.Equal(t, http.StatusCreated, addRec.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/v1/writers/", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	data := decodeEnvelope(t, listRec.Body)["data"].([]any)
	require.Len(t, data, 1)
}

func TestRemoveReaderNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/v1/readers/404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
