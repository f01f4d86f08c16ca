package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/models"
)

// PortfolioRepository loads holdings and tax lots and writes back computed
// recommendations. Holdings themselves are written by the upload endpoint,
// which is outside this service.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new portfolio repository.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolio returns the user's holdings, most recently uploaded first.
// Tickers are normalized to uppercase; null columns become zero values.
func (r *PortfolioRepository) GetPortfolio(ctx context.Context, userID int64) (models.Portfolio, error) {
	query := `
		SELECT stock_name, ticker, quantity, recommendation, uploaded_at
		FROM portfolio
		WHERE user_id = $1
		ORDER BY uploaded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio for user %d: %w", userID, err)
	}
	defer rows.Close()

	var portfolio models.Portfolio
	for rows.Next() {
		var (
			stockName      sql.NullString
			ticker         sql.NullString
			quantity       sql.NullInt64
			recommendation sql.NullString
			uploadedAt     sql.NullTime
		)
		if err := rows.Scan(&stockName, &ticker, &quantity, &recommendation, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		holding := models.Holding{
			StockName:      stockName.String,
			Ticker:         strings.ToUpper(strings.TrimSpace(ticker.String)),
			Quantity:       int(quantity.Int64),
			Recommendation: recommendation.String,
			UploadedAt:     uploadedAt.Time,
		}
		portfolio = append(portfolio, holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}

	return portfolio, nil
}

// GetTaxLots returns the user's purchase records keyed by uppercased ticker.
// Null lot fields stay nil so the advisor can render them as missing.
func (r *PortfolioRepository) GetTaxLots(ctx context.Context, userID int64) (map[string]models.TaxLot, error) {
	query := `
		SELECT ticker, buy_price, quantity, holding_period_months
		FROM tax_lots
		WHERE user_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax lots for user %d: %w", userID, err)
	}
	defer rows.Close()

	lots := make(map[string]models.TaxLot)
	for rows.Next() {
		var (
			ticker        string
			buyPrice      sql.NullString
			quantity      sql.NullInt64
			holdingPeriod sql.NullInt64
		)
		if err := rows.Scan(&ticker, &buyPrice, &quantity, &holdingPeriod); err != nil {
			return nil, fmt.Errorf("failed to scan tax lot: %w", err)
		}

		lot := models.TaxLot{Ticker: strings.ToUpper(strings.TrimSpace(ticker))}
		if buyPrice.Valid {
			price, err := decimal.NewFromString(buyPrice.String)
			if err != nil {
				return nil, fmt.Errorf("invalid buy price %q for %s: %w", buyPrice.String, ticker, err)
			}
			lot.BuyPrice = &price
		}
		if quantity.Valid {
			qty := int(quantity.Int64)
			lot.Quantity = &qty
		}
		if holdingPeriod.Valid {
			months := int(holdingPeriod.Int64)
			lot.HoldingPeriodMonths = &months
		}

		lots[lot.Ticker] = lot
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tax lots: %w", err)
	}

	return lots, nil
}

// UpdateRecommendation persists a freshly computed recommendation for one of
// the user's holdings.
func (r *PortfolioRepository) UpdateRecommendation(ctx context.Context, userID int64, ticker, recommendation string) error {
	query := `
		UPDATE portfolio
		SET recommendation = $3
		WHERE user_id = $1 AND ticker = $2
	`

	if _, err := r.db.ExecContext(ctx, query, userID, ticker, recommendation); err != nil {
		return fmt.Errorf("failed to update recommendation for %s: %w", ticker, err)
	}
	return nil
}
