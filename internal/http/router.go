package httpserver

import "net/http"

// Routes groups handlers for the view surface.
type Routes struct {
	Ports      http.HandlerFunc
	PortStart  http.HandlerFunc
	PortStop   http.HandlerFunc
	Visibility http.HandlerFunc
	Health     http.HandlerFunc
	Metrics    http.Handler
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Ports != nil {
		mux.Handle("/ports", method(http.MethodGet, routes.Ports))
	}
	if routes.PortStart != nil {
		mux.Handle("/ports/start", method(http.MethodPost, routes.PortStart))
	}
	if routes.PortStop != nil {
		mux.Handle("/ports/stop", method(http.MethodPost, routes.PortStop))
	}
	if routes.Visibility != nil {
		mux.Handle("/visibility", method(http.MethodPost, routes.Visibility))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", routes.Metrics)
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
