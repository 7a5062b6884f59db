package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mlangford/wheeljournal/internal/analytics"
	"github.com/mlangford/wheeljournal/internal/broker"
	"github.com/mlangford/wheeljournal/internal/database"
	"github.com/mlangford/wheeljournal/internal/importer"
	"github.com/mlangford/wheeljournal/internal/kafka"
	"github.com/mlangford/wheeljournal/internal/models"
	"github.com/mlangford/wheeljournal/internal/pricesync"
	"github.com/mlangford/wheeljournal/internal/reconcile"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db       *database.DB
	producer *kafka.Producer
	syncer   *pricesync.Syncer
}

// NewHandler creates a new Handler. producer and syncer may be nil, in which
// case event publishing and benchmark syncing are disabled.
func NewHandler(db *database.DB, producer *kafka.Producer, syncer *pricesync.Syncer) *Handler {
	return &Handler{
		db:       db,
		producer: producer,
		syncer:   syncer,
	}
}

// userID reads the caller identity from the X-User-ID header. Every journal
// row is scoped to it.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		http.Error(w, "X-User-ID header is required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// ImportTransactions handles POST /import/transactions. The body is a broker
// transactions CSV; re-uploading the same file is a no-op.
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	summary, err := importer.ImportTransactions(h.db, user, r.Body)
	if err != nil {
		if errors.Is(err, broker.ErrNoValidRows) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.producer != nil {
		event := models.ImportEvent{
			UserID:     user,
			BatchID:    summary.BatchID,
			Parsed:     summary.Parsed,
			Inserted:   summary.Inserted,
			Duplicates: summary.Duplicates,
		}
		if err := h.producer.PublishImportCompleted(r.Context(), event); err != nil {
			logrus.WithError(err).Error("Failed to publish import event")
		}
	}

	respondJSON(w, http.StatusOK, summary)
}

// ImportPositions handles POST /import/positions. The body is a broker
// positions CSV, treated as a complete snapshot of the user's open positions.
func (h *Handler) ImportPositions(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	positions, err := broker.ParsePositions(r.Body)
	if err != nil {
		if errors.Is(err, broker.ErrNoValidRows) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	candidates, err := h.db.GetReconcilableTrades(user)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summary, err := reconcile.Run(h.db, user, candidates, positions)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.producer != nil {
		event := models.ReconcileEvent{
			UserID:  user,
			Matched: summary.Matched,
			Cleared: summary.Cleared,
			Failed:  summary.Failed,
		}
		if err := h.producer.PublishReconcileCompleted(r.Context(), event); err != nil {
			logrus.WithError(err).Error("Failed to publish reconcile event")
		}
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetTrades handles GET /trades
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	trades, err := h.db.GetTradesByUser(user)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, trades)
}

// GetTrade handles GET /trades/{id}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	trade, err := h.db.GetTradeByID(user, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

// UpdateTrade handles PATCH /trades/{id}. Only mutable journal fields can be
// changed; broker-sourced fields are immutable after import.
func (h *Handler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		MarkPrice  *decimal.Decimal `json:"mark_price"`
		ClearMark  bool             `json:"clear_mark"`
		StrategyID *int             `json:"strategy_id"`
		TagID      *int             `json:"tag_id"`
		PairID     *string          `json:"pair_id"`
		Hidden     *bool            `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	switch {
	case req.ClearMark:
		err = h.db.UpdateMarkPrice(user, id, nil, nil)
	case req.MarkPrice != nil:
		err = h.db.UpdateMarkPrice(user, id, req.MarkPrice, nil)
	}
	if err == nil && req.StrategyID != nil {
		// id 0 detaches the trade from its strategy
		err = h.db.UpdateTradeStrategy(user, id, zeroToNil(req.StrategyID))
	}
	if err == nil && req.TagID != nil {
		err = h.db.UpdateTradeTag(user, id, zeroToNil(req.TagID))
	}
	if err == nil && req.PairID != nil {
		pair := req.PairID
		if *pair == "" {
			pair = nil
		}
		err = h.db.UpdateTradePair(user, id, pair)
	}
	if err == nil && req.Hidden != nil {
		err = h.db.UpdateTradeHidden(user, id, *req.Hidden)
	}

	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	trade, err := h.db.GetTradeByID(user, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

func zeroToNil(id *int) *int {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

// DeleteTrade handles DELETE /trades/{id}
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteTrade(user, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSummary handles GET /summary: whole-portfolio aggregates.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	trades, err := h.db.GetTradesByUser(user)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, analytics.Summarize(trades))
}

// GetGroups handles GET /groups: position groups with per-group P&L.
func (h *Handler) GetGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	trades, err := h.db.GetTradesByUser(user)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	groups := analytics.GroupTrades(trades)
	respondJSON(w, http.StatusOK, analytics.BuildGroupViews(groups, time.Now()))
}

// CreateStrategy handles POST /strategies
func (h *Handler) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var strategy models.Strategy
	if err := json.NewDecoder(r.Body).Decode(&strategy); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strategy.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	strategy.UserID = user
	if strategy.Status == "" {
		strategy.Status = models.StrategyStatusActive
	}
	if err := h.db.CreateStrategy(&strategy); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, strategy)
}

// GetStrategies handles GET /strategies
func (h *Handler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	strategies, err := h.db.GetStrategiesByUser(user)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, strategies)
}

// UpdateStrategy handles PUT /strategies/{id}
func (h *Handler) UpdateStrategy(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var strategy models.Strategy
	if err := json.NewDecoder(r.Body).Decode(&strategy); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	strategy.ID = id
	strategy.UserID = user
	if err := h.db.UpdateStrategy(&strategy); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, strategy)
}

// DeleteStrategy handles DELETE /strategies/{id}
func (h *Handler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteStrategy(user, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStrategySummary handles GET /strategies/{id}/summary
func (h *Handler) GetStrategySummary(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	strategy, err := h.db.GetStrategyByID(user, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	trades, err := h.db.GetTradesByStrategy(user, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, analytics.SummarizeStrategy(strategy, trades))
}

// GetCampaign handles GET /campaigns/{name}: the cash-secured-put campaign
// view for the strategy with that name.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]

	strategy, err := h.db.GetStrategyByName(user, name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "no strategy named "+name, http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	trades, err := h.db.GetTradesByStrategy(user, strategy.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, analytics.BuildCampaignReport(strategy, trades, time.Now()))
}

// CreateTag handles POST /tags
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var tag models.Tag
	if err := json.NewDecoder(r.Body).Decode(&tag); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if tag.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	tag.UserID = user
	if err := h.db.CreateTag(&tag); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, tag)
}

// GetTags handles GET /tags
func (h *Handler) GetTags(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	tags, err := h.db.GetTagsByUser(user)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, tags)
}

// DeleteTag handles DELETE /tags/{id}
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteTag(user, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "tag not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetBenchmarkPrices handles GET /benchmarks/{ticker}?start=&end=
func (h *Handler) GetBenchmarkPrices(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	ticker := mux.Vars(r)["ticker"]

	start := time.Time{}
	end := time.Now()
	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "invalid start date", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	if s := r.URL.Query().Get("end"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "invalid end date", http.StatusBadRequest)
			return
		}
		end = parsed
	}

	prices, err := h.db.GetBenchmarkPrices(user, ticker, start, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, prices)
}

// SyncBenchmarkPrices handles POST /benchmarks/sync
func (h *Handler) SyncBenchmarkPrices(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if h.syncer == nil {
		http.Error(w, "benchmark price sync is not configured", http.StatusServiceUnavailable)
		return
	}

	var req pricesync.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Tickers) == 0 {
		http.Error(w, "tickers are required", http.StatusBadRequest)
		return
	}
	req.UserID = user

	written, err := h.syncer.Sync(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"written": written})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
