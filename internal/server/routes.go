package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Sync (trigger, rebuild, progress)
	mux.HandleFunc("/api/sync/trigger", s.app.SyncHandler.TriggerHandler)
	mux.HandleFunc("/api/sync/rebuild", s.app.SyncHandler.RebuildHandler)
	mux.HandleFunc("/api/sync/status", s.app.SyncHandler.StatusHandler)
	mux.HandleFunc("/api/scheduler/status", s.app.SchedulerHandler.StatusHandler)

	// API routes - Items
	mux.HandleFunc("/api/items", s.app.ItemHandler.ListHandler)
	mux.HandleFunc("/api/items/", s.app.ItemHandler.ItemRoutes) // GET/DELETE /{id}, POST /{id}/reindex, GET /{id}/stats

	// API routes - Source management
	mux.HandleFunc("/api/sources", s.handleSourcesRoute)  // GET (list), POST (create)
	mux.HandleFunc("/api/sources/", s.handleSourceRoutes) // GET/PUT/DELETE /{id}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/logs/files", s.app.SystemLogsHandler.ListLogFilesHandler)
	mux.HandleFunc("/api/logs/content", s.app.SystemLogsHandler.GetLogContentHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleSourcesRoute routes /api/sources requests (list and create)
func (s *Server) handleSourcesRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.SourceHandler.ListSourcesHandler,
		s.app.SourceHandler.CreateSourceHandler)
}

// handleSourceRoutes routes /api/sources/{id} requests
func (s *Server) handleSourceRoutes(w http.ResponseWriter, r *http.Request) {
	RouteResourceItem(w, r,
		s.app.SourceHandler.GetSourceHandler,
		s.app.SourceHandler.UpdateSourceHandler,
		s.app.SourceHandler.DeleteSourceHandler)
}
