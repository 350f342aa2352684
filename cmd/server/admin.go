package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"

	"polycube.ai/internal/persistence/indexdb"
	persistlog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/transport/ws"
)

func metricsHandler(srv *ws.Server, idx *indexdb.SQLiteIndex, sessLog *persistlog.SessionLogger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		st := srv.Stats()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP polycube_sessions_active Connected websocket sessions.\n")
		fmt.Fprintf(rw, "# TYPE polycube_sessions_active gauge\n")
		fmt.Fprintf(rw, "polycube_sessions_active %d\n", st.SessionsActive)

		fmt.Fprintf(rw, "# HELP polycube_sessions_total Websocket sessions accepted.\n")
		fmt.Fprintf(rw, "# TYPE polycube_sessions_total counter\n")
		fmt.Fprintf(rw, "polycube_sessions_total %d\n", st.SessionsTotal)

		fmt.Fprintf(rw, "# HELP polycube_games_total Games started.\n")
		fmt.Fprintf(rw, "# TYPE polycube_games_total counter\n")
		fmt.Fprintf(rw, "polycube_games_total %d\n", st.GamesTotal)

		fmt.Fprintf(rw, "# HELP polycube_actions_total Actions applied.\n")
		fmt.Fprintf(rw, "# TYPE polycube_actions_total counter\n")
		fmt.Fprintf(rw, "polycube_actions_total %d\n", st.ActionsTotal)

		fmt.Fprintf(rw, "# HELP polycube_errors_total Requests rejected with a protocol error.\n")
		fmt.Fprintf(rw, "# TYPE polycube_errors_total counter\n")
		fmt.Fprintf(rw, "polycube_errors_total %d\n", st.ErrorsTotal)

		if sessLog != nil {
			fmt.Fprintf(rw, "# HELP polycube_session_log_entries_total Entries appended to the session log.\n")
			fmt.Fprintf(rw, "# TYPE polycube_session_log_entries_total counter\n")
			fmt.Fprintf(rw, "polycube_session_log_entries_total %d\n", sessLog.Written())
		}

		if idx == nil {
			return
		}
		is := idx.Stats()
		fmt.Fprintf(rw, "# HELP polycube_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE polycube_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "polycube_index_queue_depth %d\n", is.QueueDepth)

		fmt.Fprintf(rw, "# HELP polycube_index_dropped_total Index records dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE polycube_index_dropped_total counter\n")
		fmt.Fprintf(rw, "polycube_index_dropped_total %d\n", is.DropTotal)
	}
}

// registerAdmin adds local-only read endpoints over the games index.
func registerAdmin(mux *http.ServeMux, srv *ws.Server, idx *indexdb.SQLiteIndex) {
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(srv.Stats())
	})
	mux.HandleFunc("/admin/v1/games", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if idx == nil {
			http.Error(rw, "index disabled", http.StatusServiceUnavailable)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := idx.RecentGames(r.Context(), limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		if rows == nil {
			rows = []indexdb.GameRow{}
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(rows)
	})
}

func registerPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
