package web

import (
	"embed"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pegfield/gauged/internal/logger"
	"github.com/pegfield/gauged/internal/registry"
	"github.com/pegfield/gauged/internal/state"
	"github.com/pegfield/gauged/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

//go:embed static/*
var staticFiles embed.FS

//go:embed static/index.html
var dashboardHTML []byte

// WebServer handles HTTP requests for gauge state visualization
type WebServer struct {
	router   *mux.Router
	registry *registry.Registry
	port     string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, reg *registry.Registry) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:   mux.NewRouter(),
		registry: reg,
		port:     port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Static files
	staticHandler := http.FileServer(http.FS(staticFiles))
	ws.router.PathPrefix("/static/").Handler(http.StripPrefix("/", staticHandler))

	// Dashboard routes
	ws.router.HandleFunc("/", ws.handleDashboard).Methods("GET")
	ws.router.HandleFunc("/dashboard", ws.handleDashboard).Methods("GET")

	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/gauges", ws.handleGetGauges).Methods("GET")
	api.HandleFunc("/gauges/{id}", ws.handleGetGauge).Methods("GET")
	api.HandleFunc("/gauges/{id}/history", ws.handleGetGaugeHistory).Methods("GET")
	api.HandleFunc("/seasons", ws.handleGetSeasons).Methods("GET")
	api.HandleFunc("/seasons/latest", ws.handleGetLatestSeason).Methods("GET")
	api.HandleFunc("/seasons/{season}", ws.handleGetSeason).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hasErrors := false

	// Latest season information
	seasonInfo := map[string]interface{}{
		"current_season":   0,
		"last_sweep_time":  nil,
		"last_sweep_state": "unknown",
	}
	if records, err := state.GetRecentSeasons(1); err == nil && len(records) > 0 {
		rec := records[0]
		sweepState := "committed"
		if !rec.Committed {
			sweepState = "preview_or_aborted"
		}
		seasonInfo = map[string]interface{}{
			"current_season":   rec.Season,
			"last_sweep_time":  rec.Timestamp,
			"last_sweep_state": sweepState,
		}
	} else {
		hasErrors = true
	}

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
		hasErrors = true
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if hasErrors {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "gauged-engine",
			"version": "1.0.0",
		},
		"engine_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"gauges_loaded":    len(ws.registry.IDs()),
			"season_info":      seasonInfo,
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleDashboard serves the main dashboard HTML
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(dashboardHTML)
}

// handleGetGauges returns every registered gauge's committed state
func (ws *WebServer) handleGetGauges(w http.ResponseWriter, r *http.Request) {
	gauges := ws.registry.Snapshot()

	response := map[string]interface{}{
		"gauges": gauges,
		"count":  len(gauges),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetGauge returns a specific gauge by ID
func (ws *WebServer) handleGetGauge(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := types.GaugeID(vars["id"])

	g, err := ws.registry.Get(id)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Gauge not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, g)
}

// handleGetGaugeHistory returns committed payload history for one gauge
func (ws *WebServer) handleGetGaugeHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := types.GaugeID(vars["id"])

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	history, err := state.GetGaugeHistory(id, limit)
	if err != nil {
		webLogger.Error().Err(err).Str("gauge", string(id)).Msg("Failed to get gauge history")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve gauge history")
		return
	}

	response := map[string]interface{}{
		"gauge_id": id,
		"history":  history,
		"count":    len(history),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetSeasons returns paginated season records
func (ws *WebServer) handleGetSeasons(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	records, err := state.GetRecentSeasons(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent seasons")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve seasons")
		return
	}

	response := map[string]interface{}{
		"seasons": records,
		"count":   len(records),
		"limit":   limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetLatestSeason returns the most recent season record
func (ws *WebServer) handleGetLatestSeason(w http.ResponseWriter, r *http.Request) {
	records, err := state.GetRecentSeasons(1)
	if err != nil || len(records) == 0 {
		webLogger.Error().Err(err).Msg("Failed to get latest season")
		ws.writeErrorResponse(w, http.StatusNotFound, "No seasons found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, records[0])
}

// handleGetSeason returns a specific season's record
func (ws *WebServer) handleGetSeason(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	season, err := strconv.ParseUint(vars["season"], 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid season number")
		return
	}

	rec, err := state.GetSeasonByNumber(season)
	if err != nil {
		webLogger.Error().Err(err).Uint64("season", season).Msg("Failed to get season")
		ws.writeErrorResponse(w, http.StatusNotFound, "Season not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, rec)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
