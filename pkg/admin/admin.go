// Package admin exposes the scheduler's configuration and observability
// surface over HTTP, standing in for the sysfs/debugfs tree the source
// exposes per device (spec §6). Routes are grounded on the teacher's
// pkg/server mux registration style (one handler per resource,
// gorilla/mux path variables for per-knob reads/writes) and exported as
// a *mux.Router so a host can mount it under any prefix.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	zinc "github.com/stonet-research/zinc-scheduler"
	"github.com/stonet-research/zinc-scheduler/internal/zlog"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/gate"
)

// Scheduler is the subset of *zinc.Scheduler the admin surface depends
// on. Kept as an interface so tests can substitute a fake without
// constructing a full Scheduler.
type Scheduler interface {
	DeviceID() uuid.UUID
	Config() *config.Config
	Snapshot() []zinc.BucketSnapshot
	GateSnapshot() gate.Snapshot
	Batching() int
	Starved() int
}

// NewRouter builds the admin HTTP surface. Every route is scoped under
// /devices/{id}, matched against s.DeviceID() (spec §6; a single
// scheduler instance exists per attached device, so the path segment
// both names and validates the target). Every route is read-only except
// PUT /devices/{id}/config/{name}, which writes a single knob.
func NewRouter(s Scheduler) *mux.Router {
	r := mux.NewRouter()
	d := r.PathPrefix("/devices/{id}").Subrouter()
	d.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if mux.Vars(req)["id"] != s.DeviceID().String() {
				http.Error(w, "unknown device", http.StatusNotFound)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	d.HandleFunc("/config", func(w http.ResponseWriter, req *http.Request) {
		handleListConfig(w, req, s)
	}).Methods(http.MethodGet)
	d.HandleFunc("/config/{name}", func(w http.ResponseWriter, req *http.Request) {
		handleGetKnob(w, req, s)
	}).Methods(http.MethodGet)
	d.HandleFunc("/config/{name}", func(w http.ResponseWriter, req *http.Request) {
		handleSetKnob(w, req, s)
	}).Methods(http.MethodPut)
	d.HandleFunc("/stats/buckets", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, s.Snapshot())
	}).Methods(http.MethodGet)
	d.HandleFunc("/stats/gate", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, s.GateSnapshot())
	}).Methods(http.MethodGet)
	d.HandleFunc("/stats/dispatch", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, dispatchStats{Batching: s.Batching(), Starved: s.Starved()})
	}).Methods(http.MethodGet)
	return r
}

type dispatchStats struct {
	Batching int `json:"batching"`
	Starved  int `json:"starved"`
}

type knobView struct {
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Value int64  `json:"value"`
	Min   int64  `json:"min"`
	Max   int64  `json:"max"`
}

func handleListConfig(w http.ResponseWriter, req *http.Request, s Scheduler) {
	cfg := s.Config()
	names := cfg.Names()
	out := make([]knobView, 0, len(names))
	for _, name := range names {
		k, _ := cfg.Lookup(name)
		min, max := k.Bounds()
		out = append(out, knobView{Name: name, Unit: k.Unit(), Value: k.Get(), Min: min, Max: max})
	}
	writeJSON(w, out)
}

func handleGetKnob(w http.ResponseWriter, req *http.Request, s Scheduler) {
	name := mux.Vars(req)["name"]
	k, ok := s.Config().Lookup(name)
	if !ok {
		http.Error(w, "unknown knob: "+name, http.StatusNotFound)
		return
	}
	min, max := k.Bounds()
	writeJSON(w, knobView{Name: name, Unit: k.Unit(), Value: k.Get(), Min: min, Max: max})
}

func handleSetKnob(w http.ResponseWriter, req *http.Request, s Scheduler) {
	name := mux.Vars(req)["name"]
	k, ok := s.Config().Lookup(name)
	if !ok {
		http.Error(w, "unknown knob: "+name, http.StatusNotFound)
		return
	}
	var body struct {
		Value int64 `json:"value"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	k.Set(req.Context(), body.Value)
	zlog.Infof(context.Background(), "admin: %s set to %d", name, body.Value)

	min, max := k.Bounds()
	writeJSON(w, knobView{Name: name, Unit: k.Unit(), Value: k.Get(), Min: min, Max: max})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ParseKnobValue is a small helper for callers (e.g. cmd/zincadm) that
// need to parse a CLI-supplied string into the int64 a knob expects.
func ParseKnobValue(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
