package domain

import "github.com/shopspring/decimal"

// TradingMode selects which exchange environment and credential set is used.
type TradingMode string

const (
	ModeTestnet    TradingMode = "testnet"
	ModeProduction TradingMode = "production"
)

// Valid reports whether m is a known mode.
func (m TradingMode) Valid() bool {
	return m == ModeTestnet || m == ModeProduction
}

// Settings is the fully populated, validated configuration for one invocation.
type Settings struct {
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	BuyThreshold         decimal.Decimal `json:"buyThreshold"`  // fraction, e.g. 0.005
	SellThreshold        decimal.Decimal `json:"sellThreshold"` // fraction, e.g. 0.005
	ShortPeriod          int             `json:"shortPeriod"`
	LongPeriod           int             `json:"longPeriod"`
	TradingEnabled       bool            `json:"tradingEnabled"`
	TradingMode          TradingMode     `json:"tradingMode"`
	TradeAmount          decimal.Decimal `json:"tradeAmount"`    // quote currency per BUY
	SellPercentage       decimal.Decimal `json:"sellPercentage"` // (0, 100]
}

// SettingsDocument is the raw persisted settings document. Nil fields were
// never set and are filled from defaults.
type SettingsDocument struct {
	NotificationsEnabled *bool            `json:"notifications_enabled,omitempty"`
	BuyThreshold         *decimal.Decimal `json:"buy_threshold,omitempty"`
	SellThreshold        *decimal.Decimal `json:"sell_threshold,omitempty"`
	ShortPeriod          *int             `json:"short_ma_period,omitempty"`
	LongPeriod           *int             `json:"long_ma_period,omitempty"`
	TradingEnabled       *bool            `json:"trading_enabled,omitempty"`
	TradingMode          *TradingMode     `json:"trading_mode,omitempty"`
	TradeAmount          *decimal.Decimal `json:"trade_amount_usdt,omitempty"`
	SellPercentage       *decimal.Decimal `json:"sell_percentage,omitempty"`
}
