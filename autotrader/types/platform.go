package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlatformOrder 交易平台（券商）侧的订单
type PlatformOrder struct {
	ID                string          `json:"id"`
	PseudoAccount     string          `json:"pseudoAccount"`
	TradingAccount    string          `json:"tradingAccount"`
	Platform          string          `json:"platform"`
	Exchange          string          `json:"exchange"`
	Symbol            string          `json:"symbol"`
	IndependentSymbol string          `json:"independentSymbol,omitempty"`
	TradeType         TradeType       `json:"tradeType"`
	OrderType         OrderType       `json:"orderType"`
	ProductType       ProductType     `json:"productType"`
	Variety           Variety         `json:"variety"`
	Validity          Validity        `json:"validity,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	DisclosedQuantity decimal.Decimal `json:"disclosedQuantity"`
	FilledQuantity    decimal.Decimal `json:"filledQuantity"`
	PendingQuantity   decimal.Decimal `json:"pendingQuantity"`
	Price             decimal.Decimal `json:"price"`
	TriggerPrice      decimal.Decimal `json:"triggerPrice"`
	AveragePrice      decimal.Decimal `json:"averagePrice"`
	Amo               bool            `json:"amo"`
	Status            string          `json:"status"`
	RawStatus         string          `json:"rawStatus,omitempty"`
	StatusMessage     string          `json:"statusMessage,omitempty"`
	ExchangeOrderID   string          `json:"exchangeOrderId,omitempty"`
	ParentOrderID     string          `json:"parentOrderId,omitempty"`
	PublisherID       string          `json:"publisherId,omitempty"`
	OrderTime         *time.Time      `json:"orderTimestamp,omitempty"`
}

// Open 订单是否仍在挂单中
func (o PlatformOrder) Open() bool {
	switch o.Status {
	case "OPEN", "TRIGGER_PENDING", "PENDING":
		return true
	}
	return false
}

// PlatformPosition 交易平台侧的持仓
type PlatformPosition struct {
	ID                  string           `json:"id"`
	PseudoAccount       string           `json:"pseudoAccount"`
	TradingAccount      string           `json:"tradingAccount"`
	Platform            string           `json:"platform"`
	Category            PositionCategory `json:"category"`
	Type                PositionType     `json:"type"`
	Exchange            string           `json:"exchange"`
	Symbol              string           `json:"symbol"`
	IndependentExchange string           `json:"independentExchange,omitempty"`
	IndependentSymbol   string           `json:"independentSymbol,omitempty"`
	BuyQuantity         decimal.Decimal  `json:"buyQuantity"`
	SellQuantity        decimal.Decimal  `json:"sellQuantity"`
	NetQuantity         decimal.Decimal  `json:"netQuantity"`
	OvernightQuantity   decimal.Decimal  `json:"overnightQuantity"`
	BuyValue            decimal.Decimal  `json:"buyValue"`
	SellValue           decimal.Decimal  `json:"sellValue"`
	NetValue            decimal.Decimal  `json:"netValue"`
	BuyAvgPrice         decimal.Decimal  `json:"buyAvgPrice"`
	SellAvgPrice        decimal.Decimal  `json:"sellAvgPrice"`
	RealisedPnl         decimal.Decimal  `json:"realisedPnl"`
	UnrealisedPnl       decimal.Decimal  `json:"unrealisedPnl"`
	Pnl                 decimal.Decimal  `json:"pnl"`
	Mtm                 decimal.Decimal  `json:"mtm"`
	Ltp                 decimal.Decimal  `json:"ltp"`
	Multiplier          decimal.Decimal  `json:"multiplier"`
}

// Flat 是否已无净持仓
func (p PlatformPosition) Flat() bool {
	return p.NetQuantity.IsZero()
}

// PlatformMargin 交易平台侧的资金/保证金
type PlatformMargin struct {
	PseudoAccount  string          `json:"pseudoAccount"`
	TradingAccount string          `json:"tradingAccount"`
	Platform       string          `json:"platform"`
	Category       string          `json:"category"`
	Funds          decimal.Decimal `json:"funds"`
	Utilized       decimal.Decimal `json:"utilized"`
	Available      decimal.Decimal `json:"available"`
	Total          decimal.Decimal `json:"total"`
	Net            decimal.Decimal `json:"net"`
	Span           decimal.Decimal `json:"span"`
	Exposure       decimal.Decimal `json:"exposure"`
	Collateral     decimal.Decimal `json:"collateral"`
	Payin          decimal.Decimal `json:"payin"`
	Payout         decimal.Decimal `json:"payout"`
	Adhoc          decimal.Decimal `json:"adhoc"`
	RealisedMtm    decimal.Decimal `json:"realisedMtm"`
	UnrealisedMtm  decimal.Decimal `json:"unrealisedMtm"`
}

// PlatformHolding 交易平台侧的持股
type PlatformHolding struct {
	PseudoAccount  string          `json:"pseudoAccount"`
	TradingAccount string          `json:"tradingAccount"`
	Platform       string          `json:"platform"`
	Exchange       string          `json:"exchange"`
	Symbol         string          `json:"symbol"`
	Isin           string          `json:"isin,omitempty"`
	Product        string          `json:"product,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	T1Quantity     decimal.Decimal `json:"t1Qty"`
	CollateralQty  decimal.Decimal `json:"collateralQty"`
	TotalQuantity  decimal.Decimal `json:"totalQty"`
	AvgPrice       decimal.Decimal `json:"avgPrice"`
	Ltp            decimal.Decimal `json:"ltp"`
	CurrentValue   decimal.Decimal `json:"currentValue"`
	Pnl            decimal.Decimal `json:"pnl"`
	Haircut        decimal.Decimal `json:"haircut"`
}

// MarketValue 按最新价计算的持股市值
func (h PlatformHolding) MarketValue() decimal.Decimal {
	if !h.CurrentValue.IsZero() {
		return h.CurrentValue
	}
	return h.Ltp.Mul(h.Quantity)
}
