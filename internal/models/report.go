package models

// HoldingSummary aggregates the ledger for one symbol.
type HoldingSummary struct {
	Symbol      string  `json:"symbol"`
	NetQuantity float64 `json:"net_quantity"` // signed sum; 0 means the position is closed
	RealizedPL  float64 `json:"realized_pl"`
	Trades      int     `json:"trades"`
}

// PortfolioStats holds portfolio-level aggregates for the run report.
type PortfolioStats struct {
	TotalTrades     int              `json:"total_trades"`
	Symbols         int              `json:"symbols"`
	TotalRealizedPL float64          `json:"total_realized_pl"`
	TopGainers      []HoldingSummary `json:"top_gainers"` // by realized P/L, at most 5
	TopLosers       []HoldingSummary `json:"top_losers"`  // by realized P/L, at most 5

	// Distribution of converged annualized returns. Populated only
	// when RatesComputed > 0; std-dev needs at least two samples.
	RatesComputed int     `json:"rates_computed"`
	RateMean      float64 `json:"rate_mean,omitempty"`
	RateStdDev    float64 `json:"rate_std_dev,omitempty"`
}
