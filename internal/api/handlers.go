package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/models"
)

// UserStore checks user existence.
type UserStore interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// PortfolioStore loads holdings and persists recommendation labels.
type PortfolioStore interface {
	GetPortfolio(ctx context.Context, userID int64) (models.Portfolio, error)
	UpdateRecommendation(ctx context.Context, userID int64, ticker, recommendation string) error
}

// ChatStore persists and replays conversation turns.
type ChatStore interface {
	Append(ctx context.Context, userID int64, role models.ChatRole, content string) error
	History(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error)
}

// AdvisorService is the advisory pipeline as seen from the HTTP edge.
type AdvisorService interface {
	HandleQuery(ctx context.Context, userID int64, query string, portfolio models.Portfolio, history []models.ChatMessage) string
	Valuate(ctx context.Context, portfolio models.Portfolio) models.Valuation
	Recommend(ctx context.Context, ticker string) models.Recommendation
}

type Handler struct {
	advisor      AdvisorService
	users        UserStore
	portfolios   PortfolioStore
	chats        ChatStore
	historyLimit int
	logger       *slog.Logger
	startTime    time.Time
}

func NewHandler(advisor AdvisorService, users UserStore, portfolios PortfolioStore, chats ChatStore, historyLimit int, logger *slog.Logger) *Handler {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Handler{
		advisor:      advisor,
		users:        users,
		portfolios:   portfolios,
		chats:        chats,
		historyLimit: historyLimit,
		logger:       logger,
		startTime:    time.Now(),
	}
}

type chatRequest struct {
	UserID int64  `json:"user_id"`
	Query  string `json:"query"`
}

type chatResponse struct {
	Response    string `json:"response"`
	ContextUsed int    `json:"context_used"`
}

// ChatHandler handles POST /api/chat
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	exists, err := h.users.Exists(ctx, req.UserID)
	if err != nil {
		h.logger.Error("user lookup failed", "user_id", req.UserID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "User not found.", http.StatusNotFound)
		return
	}

	portfolio, err := h.portfolios.GetPortfolio(ctx, req.UserID)
	if err != nil {
		h.logger.Error("portfolio load failed", "user_id", req.UserID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if portfolio.IsEmpty() {
		http.Error(w, "No portfolio found for this user.", http.StatusNotFound)
		return
	}

	history, err := h.chats.History(ctx, req.UserID, h.historyLimit)
	if err != nil {
		// History is best-effort context; the question is still answerable.
		h.logger.Warn("history load failed", "user_id", req.UserID, "error", err)
		history = nil
	}

	answer := h.advisor.HandleQuery(ctx, req.UserID, req.Query, portfolio, history)

	if err := h.chats.Append(ctx, req.UserID, models.ChatRoleUser, req.Query); err != nil {
		h.logger.Error("failed to persist user turn", "user_id", req.UserID, "error", err)
	}
	if err := h.chats.Append(ctx, req.UserID, models.ChatRoleAssistant, answer); err != nil {
		h.logger.Error("failed to persist assistant turn", "user_id", req.UserID, "error", err)
	}

	writeJSON(w, h.logger, http.StatusOK, chatResponse{
		Response:    answer,
		ContextUsed: len(history),
	})
}

type portfolioHolding struct {
	StockName      string          `json:"stock_name"`
	Ticker         string          `json:"ticker"`
	Quantity       int             `json:"quantity"`
	Recommendation string          `json:"recommendation,omitempty"`
	Value          decimal.Decimal `json:"value"`
}

type portfolioResponse struct {
	UserID     int64              `json:"user_id"`
	Holdings   []portfolioHolding `json:"holdings"`
	TotalValue decimal.Decimal    `json:"total_value"`
	Unpriced   map[string]string  `json:"unpriced,omitempty"`
}

// GetPortfolioHandler handles GET /api/portfolio?user_id=N
func (h *Handler) GetPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	portfolio, err := h.portfolios.GetPortfolio(ctx, userID)
	if err != nil {
		h.logger.Error("portfolio load failed", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if portfolio.IsEmpty() {
		http.Error(w, "No portfolio found for this user.", http.StatusNotFound)
		return
	}

	valuation := h.advisor.Valuate(ctx, portfolio)

	holdings := make([]portfolioHolding, 0, len(portfolio))
	for _, holding := range portfolio {
		holdings = append(holdings, portfolioHolding{
			StockName:      holding.StockName,
			Ticker:         holding.Ticker,
			Quantity:       holding.Quantity,
			Recommendation: holding.Recommendation,
			Value:          valuation.Values[holding.NormalizedTicker()],
		})
	}

	writeJSON(w, h.logger, http.StatusOK, portfolioResponse{
		UserID:     userID,
		Holdings:   holdings,
		TotalValue: valuation.TotalValue,
		Unpriced:   valuation.Unpriced,
	})
}

type refreshRequest struct {
	UserID int64 `json:"user_id"`
}

type refreshResponse struct {
	UserID          int64             `json:"user_id"`
	Recommendations map[string]string `json:"recommendations"`
}

// RefreshRecommendationsHandler handles POST /api/portfolio/recommendations/refresh.
// It recomputes the label for every ticker in the user's portfolio and writes
// the results back. Error variants are persisted too so a later chat reflects
// the failed lookup.
func (h *Handler) RefreshRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	portfolio, err := h.portfolios.GetPortfolio(ctx, req.UserID)
	if err != nil {
		h.logger.Error("portfolio load failed", "user_id", req.UserID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if portfolio.IsEmpty() {
		http.Error(w, "No portfolio found for this user.", http.StatusNotFound)
		return
	}

	results := make(map[string]string)
	for _, holding := range portfolio {
		ticker := holding.NormalizedTicker()
		if ticker == "" {
			continue
		}
		if _, done := results[ticker]; done {
			continue
		}

		label := h.advisor.Recommend(ctx, ticker).String()
		results[ticker] = label

		if err := h.portfolios.UpdateRecommendation(ctx, req.UserID, ticker, label); err != nil {
			h.logger.Error("recommendation write-back failed", "user_id", req.UserID, "ticker", ticker, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, h.logger, http.StatusOK, refreshResponse{
		UserID:          req.UserID,
		Recommendations: results,
	})
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "user_id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
