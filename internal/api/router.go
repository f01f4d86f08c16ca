package api

import "net/http"

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, handler *Handler, db Pinger) {
	mux.HandleFunc("/api/chat", handler.ChatHandler)
	mux.HandleFunc("/api/portfolio", handler.GetPortfolioHandler)
	mux.HandleFunc("/api/portfolio/recommendations/refresh", handler.RefreshRecommendationsHandler)
	mux.HandleFunc("/health", handler.HealthHandler(db))
}
