package handlers

import "net/http"

// BrokerStatus reports the event broker connection state.
type BrokerStatus interface {
	IsConnected() bool
}

// Health reports liveness. It does not touch the database.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// NewHealth returns Health, extended with a broker field when one is configured.
// A lost broker does not fail liveness; events are dropped until it returns.
func NewHealth(broker BrokerStatus) http.HandlerFunc {
	if broker == nil {
		return Health
	}
	return func(w http.ResponseWriter, r *http.Request) {
		state := "down"
		if broker.IsConnected() {
			state = "up"
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "broker": state})
	}
}
