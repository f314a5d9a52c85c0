package http

import (
	"net/http"
)

// NewMux assembles the public surface: health check, JSON API, event socket and an optional
// static web client.
func NewMux(api *API, ws *WSHandler, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)
	mux.HandleFunc("/ws", ws.ServeWS)
	if staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}
