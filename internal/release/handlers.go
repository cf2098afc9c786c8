package release

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"buoyd/internal/logs"
	"buoyd/internal/models"
	"buoyd/internal/sysctl"

	"github.com/gorilla/mux"
)

/*
Ручки, совместимые с прошивками буёв:

GET /release/{id}      — принять запрос на отстрел (исход асинхронный)
GET /permission/{id}   — разрешение на отстрел по расписанию
GET /synctime/{id}     — интервал синхронизации
GET /time              — текущее UTC-время календарными полями
GET /upload/{id}       — перенести входящие файлы в архив буя
GET /control/shutdown  — выключить контроллер
GET /control/reboot    — перезагрузить контроллер
*/

type HTTP struct{ ctrl *Controller }

func NewHTTP(c *Controller) *HTTP { return &HTTP{ctrl: c} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/release/{id}", h.release).Methods(http.MethodGet)
	r.HandleFunc("/permission/{id}", h.permission).Methods(http.MethodGet)
	r.HandleFunc("/synctime/{id}", h.syncTime).Methods(http.MethodGet)
	r.HandleFunc("/time", h.currentTime).Methods(http.MethodGet)
	r.HandleFunc("/upload/{id}", h.upload).Methods(http.MethodGet)
	r.HandleFunc("/control/shutdown", h.shutdown).Methods(http.MethodGet)
	r.HandleFunc("/control/reboot", h.reboot).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/buoys", h.listBuoys).Methods(http.MethodGet)
	api.HandleFunc("/tasks", h.listTasks).Methods(http.MethodGet)
}

func (h *HTTP) release(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	addr := clientAddr(r)
	logs.Logger.Infof("received release request from %s for buoy id=%s", addr, id)

	err := h.ctrl.Request(id, addr)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "success"})
	case errors.Is(err, ErrAlreadyReleasing):
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "release already in progress"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "pop-up release failed"})
	}
}

func (h *HTTP) permission(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := h.ctrl.Evaluate(id, h.ctrl.now())
	if err != nil {
		if errors.Is(err, ErrUnknownBuoy) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "popup_id " + id + " not found"})
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Store error", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"popup_id":   id,
		"permission": d,
	})
}

func (h *HTTP) syncTime(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	hours, err := h.ctrl.SyncHours(id)
	if err != nil {
		if errors.Is(err, ErrUnknownBuoy) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "popup_id " + id + " not found"})
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Store error", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "synctime_h": hours})
}

func (h *HTTP) currentTime(w http.ResponseWriter, _ *http.Request) {
	now := h.ctrl.now().UTC()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"year":    now.Year(),
		"month":   int(now.Month()),
		"day":     now.Day(),
		"hour":    now.Hour(),
		"minute":  now.Minute(),
		"second":  now.Second(),
	})
}

func (h *HTTP) upload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	logs.Logger.Infof("received upload request from %s for buoy id=%s", clientAddr(r), id)
	if err := h.ctrl.MoveInbound(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "files successfully uploaded and source folder cleared"})
}

func (h *HTTP) shutdown(w http.ResponseWriter, _ *http.Request) {
	logs.Logger.Info("received shutdown request, powering off")
	sysctl.Poweroff(5 * time.Second)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "success"})
}

func (h *HTTP) reboot(w http.ResponseWriter, _ *http.Request) {
	logs.Logger.Info("received reboot request")
	sysctl.Reboot(5 * time.Second)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "success"})
}

// ─────────────────────────── api/v1 (веб-интерфейс и диагностика) ───────────────────────────

type buoyView struct {
	ID          string `json:"id"`
	Pin         int    `json:"pin"`
	ReleaseAt   string `json:"release_at"`
	ReleaseMode string `json:"release_mode"`
	Released    bool   `json:"released"`
	State       string `json:"state,omitempty"`
	LastUpdate  string `json:"last_update,omitempty"`
}

func (h *HTTP) listBuoys(w http.ResponseWriter, _ *http.Request) {
	f, err := h.ctrl.fleet.Load()
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Store error", err.Error(), nil)
		return
	}
	out := make([]buoyView, 0, len(f.Buoys))
	for _, b := range f.Buoys {
		v := buoyView{
			ID:          b.ID,
			Pin:         b.Pin,
			ReleaseAt:   b.ReleaseAt.Format(time.RFC3339),
			ReleaseMode: b.ReleaseMode,
			Released:    b.Released,
		}
		if st, ok := h.ctrl.status.Get(b.ID); ok {
			v.State = st.State
			v.LastUpdate = st.LastUpdate.Format(time.RFC3339)
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) listTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active": h.ctrl.Active()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientAddr — адрес буя, по которому опрашивается присутствие.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
