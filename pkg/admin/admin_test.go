package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	zinc "github.com/stonet-research/zinc-scheduler"
	"github.com/stonet-research/zinc-scheduler/internal/ztime"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/zone"
)

func newTestRouterAndScheduler(t *testing.T) *zinc.Scheduler {
	s := zinc.New(zinc.Options{
		Config:      config.Default(),
		ZoneManager: zone.NewMemory(1<<20, false),
		Clock:       ztime.NewManualClock(ztime.RealClock{}.Now()),
	})
	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestAdminConfigListAndGet(t *testing.T) {
	s := newTestRouterAndScheduler(t)
	r := NewRouter(s)
	base := "/devices/" + s.DeviceID().String()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", base+"/config", nil)
	r.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)

	var knobs []knobView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &knobs))
	require.NotEmpty(t, knobs)

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("GET", base+"/config/read_expire", nil)
	r.ServeHTTP(rec2, req2)
	require.Equal(t, 200, rec2.Code)

	var k knobView
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &k))
	require.Equal(t, "read_expire", k.Name)
	require.Equal(t, int64(500), k.Value)
}

func TestAdminConfigGetUnknownKnob(t *testing.T) {
	s := newTestRouterAndScheduler(t)
	r := NewRouter(s)
	base := "/devices/" + s.DeviceID().String()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", base+"/config/does_not_exist", nil)
	r.ServeHTTP(rec, req)
	require.Equal(t, 404, rec.Code)
}

func TestAdminConfigUnknownDevice(t *testing.T) {
	s := newTestRouterAndScheduler(t)
	r := NewRouter(s)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/devices/00000000-0000-0000-0000-000000000000/config", nil)
	r.ServeHTTP(rec, req)
	require.Equal(t, 404, rec.Code)
}

func TestAdminConfigSet(t *testing.T) {
	s := newTestRouterAndScheduler(t)
	r := NewRouter(s)
	base := "/devices/" + s.DeviceID().String()

	body, err := json.Marshal(map[string]int64{"value": 1234})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", base+"/config/read_expire", bytes.NewReader(body))
	r.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)

	var k knobView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &k))
	require.Equal(t, int64(1234), k.Value)
	require.Equal(t, int64(1234), s.Config().ReadExpireMs.Get())
}

func TestAdminStatsEndpoints(t *testing.T) {
	s := newTestRouterAndScheduler(t)
	r := NewRouter(s)
	base := "/devices/" + s.DeviceID().String()

	for _, path := range []string{"/stats/buckets", "/stats/gate", "/stats/dispatch"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", base+path, nil)
		r.ServeHTTP(rec, req)
		require.Equal(t, 200, rec.Code, "path %s", path)
	}
}
