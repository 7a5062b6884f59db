package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// CSV import
	api.HandleFunc("/import/transactions", handler.ImportTransactions).Methods("POST")
	api.HandleFunc("/import/positions", handler.ImportPositions).Methods("POST")

	// Trade ledger
	api.HandleFunc("/trades", handler.GetTrades).Methods("GET")
	api.HandleFunc("/trades/{id}", handler.GetTrade).Methods("GET")
	api.HandleFunc("/trades/{id}", handler.UpdateTrade).Methods("PATCH")
	api.HandleFunc("/trades/{id}", handler.DeleteTrade).Methods("DELETE")

	// Aggregates
	api.HandleFunc("/summary", handler.GetSummary).Methods("GET")
	api.HandleFunc("/groups", handler.GetGroups).Methods("GET")

	// Strategies and tags
	api.HandleFunc("/strategies", handler.GetStrategies).Methods("GET")
	api.HandleFunc("/strategies", handler.CreateStrategy).Methods("POST")
	api.HandleFunc("/strategies/{id}", handler.UpdateStrategy).Methods("PUT")
	api.HandleFunc("/strategies/{id}", handler.DeleteStrategy).Methods("DELETE")
	api.HandleFunc("/strategies/{id}/summary", handler.GetStrategySummary).Methods("GET")
	api.HandleFunc("/campaigns/{name}", handler.GetCampaign).Methods("GET")
	api.HandleFunc("/tags", handler.GetTags).Methods("GET")
	api.HandleFunc("/tags", handler.CreateTag).Methods("POST")
	api.HandleFunc("/tags/{id}", handler.DeleteTag).Methods("DELETE")

	// Benchmark prices
	api.HandleFunc("/benchmarks/sync", handler.SyncBenchmarkPrices).Methods("POST")
	api.HandleFunc("/benchmarks/{ticker}", handler.GetBenchmarkPrices).Methods("GET")

	return r
}
