package release

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, r *rig) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	NewHTTP(r.c).RegisterRoutes(router)
	return router
}

func doGet(router *mux.Router, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.7:51234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestReleaseEndpoint(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	router := newTestServer(t, r)

	rr := doGet(router, "/release/7")
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	waitIdle(t, r.c)
}

func TestReleaseEndpointUnknown(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	router := newTestServer(t, r)

	rr := doGet(router, "/release/99")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Empty(t, r.c.Active())
}

func TestReleaseEndpointConflict(t *testing.T) {
	r := newRig(t, reachable(), fastParams())
	router := newTestServer(t, r)

	rr := doGet(router, "/release/7")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doGet(router, "/release/7")
	assert.Equal(t, http.StatusConflict, rr.Code)

	waitIdle(t, r.c)
}

func TestPermissionEndpoint(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	r.c.now = func() time.Time { return schedAt.Add(time.Hour) }
	router := newTestServer(t, r)

	rr := doGet(router, "/permission/7")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success    bool     `json:"success"`
		PopupID    string   `json:"popup_id"`
		Permission Decision `json:"permission"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "7", resp.PopupID)
	assert.Equal(t, 1, resp.Permission.ReleaseFlag)
	assert.Equal(t, "surface", resp.Permission.ReleaseMode)
	assert.Equal(t, "6", resp.Permission.SleepHours)
	assert.Equal(t, "30", resp.Permission.SleepMinutes)
}

func TestPermissionEndpointNotFound(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	router := newTestServer(t, r)

	rr := doGet(router, "/permission/99")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTimeEndpoint(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	fixed := time.Date(2026, 8, 27, 9, 30, 15, 0, time.UTC)
	r.c.now = func() time.Time { return fixed }
	router := newTestServer(t, r)

	rr := doGet(router, "/time")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool `json:"success"`
		Year    int  `json:"year"`
		Month   int  `json:"month"`
		Day     int  `json:"day"`
		Hour    int  `json:"hour"`
		Minute  int  `json:"minute"`
		Second  int  `json:"second"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2026, resp.Year)
	assert.Equal(t, 8, resp.Month)
	assert.Equal(t, 27, resp.Day)
	assert.Equal(t, 9, resp.Hour)
	assert.Equal(t, 30, resp.Minute)
	assert.Equal(t, 15, resp.Second)
}

func TestSyncTimeEndpoint(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	router := newTestServer(t, r)

	rr := doGet(router, "/synctime/7")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(6), resp["synctime_h"])

	rr = doGet(router, "/synctime/99")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUploadEndpoint(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	require.NoError(t, r.fs.MkdirAll("ftp/PopUpBuoy", 0o755))
	require.NoError(t, afero.WriteFile(r.fs, "ftp/PopUpBuoy/data.csv", []byte("a"), 0o644))
	router := newTestServer(t, r)

	rr := doGet(router, "/upload/7")
	assert.Equal(t, http.StatusOK, rr.Code)

	ok, err := afero.Exists(r.fs, "ftp/PopUpBuoy_7/data.csv")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadEndpointMissingSource(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	router := newTestServer(t, r)

	rr := doGet(router, "/upload/7")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListBuoysEndpoint(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	require.NoError(t, r.c.Reconcile(schedAt.Add(-time.Hour)))
	router := newTestServer(t, r)

	rr := doGet(router, "/api/v1/buoys")
	require.Equal(t, http.StatusOK, rr.Code)

	var out []buoyView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "7", out[0].ID)
	assert.Equal(t, "init", out[0].State)
}

func TestListTasksEndpoint(t *testing.T) {
	r := newRig(t, unreachable(), fastParams())
	router := newTestServer(t, r)

	rr := doGet(router, "/api/v1/tasks")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Active []string `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Active)
}
