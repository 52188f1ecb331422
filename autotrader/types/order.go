package types

// Order 以 JSON 整体提交的订单（placeOrder）
type Order struct {
	PseudoAccount     string      `json:"pseudoAccount"`
	Exchange          string      `json:"exchange"`
	Symbol            string      `json:"symbol"`
	TradeType         TradeType   `json:"tradeType"`
	OrderType         OrderType   `json:"orderType"`
	ProductType       ProductType `json:"productType"`
	Variety           Variety     `json:"variety,omitempty"`
	Validity          Validity    `json:"validity,omitempty"`
	Quantity          int         `json:"quantity"`
	DisclosedQuantity int         `json:"disclosedQuantity,omitempty"`
	Price             float64     `json:"price"`
	TriggerPrice      float64     `json:"triggerPrice"`
	Target            float64     `json:"target,omitempty"`
	Stoploss          float64     `json:"stoploss,omitempty"`
	TrailingStoploss  float64     `json:"trailingStoploss,omitempty"`
	Amo               bool        `json:"amo,omitempty"`
	PublisherID       string      `json:"publisherId,omitempty"`
	StrategyID        string      `json:"strategyId,omitempty"`
	Comments          string      `json:"comments,omitempty"`
}

// RegularOrder 普通订单（表单提交）
type RegularOrder struct {
	PseudoAccount string
	Exchange      string
	Symbol        string
	TradeType     TradeType
	OrderType     OrderType
	ProductType   ProductType
	Quantity      int
	Price         float64
	TriggerPrice  float64
}

// BracketOrder 括号单：带止盈、止损以及可选的追踪止损
type BracketOrder struct {
	PseudoAccount    string
	Exchange         string
	Symbol           string
	TradeType        TradeType
	OrderType        OrderType
	Quantity         int
	Price            float64
	TriggerPrice     float64
	Target           float64
	Stoploss         float64
	TrailingStoploss float64
}

// CoverOrder 备兑单（必带止损触发价）
type CoverOrder struct {
	PseudoAccount string
	Exchange      string
	Symbol        string
	TradeType     TradeType
	OrderType     OrderType
	Quantity      int
	Price         float64
	TriggerPrice  float64
}

// AdvancedOrder 主从复制流程使用的高级下单，variety 固定为 REGULAR
type AdvancedOrder struct {
	PseudoAccount string
	Exchange      string
	Symbol        string
	TradeType     TradeType
	OrderType     OrderType
	ProductType   ProductType
	Quantity      int
	Price         float64
	TriggerPrice  float64
	Validity      Validity
	Amo           *bool
	PublisherID   string
	CommandID     string
}

// OrderModification 改单参数，nil 表示不修改该字段
type OrderModification struct {
	OrderType    *OrderType
	Quantity     *int
	Price        *float64
	TriggerPrice *float64
}

// PositionSquareOff 单个持仓平仓请求
type PositionSquareOff struct {
	PseudoAccount    string
	Category         PositionCategory
	Type             PositionType
	Exchange         string
	Symbol           string
	CancelOpenOrders bool
}

// TvOrder TradingView 告警转发的订单
type TvOrder struct {
	PseudoAccount    string      `json:"pseudoAccount"`
	Exchange         string      `json:"exchange"`
	Symbol           string      `json:"symbol"`
	TradeType        TradeType   `json:"tradeType"`
	OrderType        OrderType   `json:"orderType"`
	ProductType      ProductType `json:"productType"`
	Variety          Variety     `json:"variety,omitempty"`
	Quantity         int         `json:"quantity"`
	Price            float64     `json:"price"`
	TriggerPrice     float64     `json:"triggerPrice"`
	Target           float64     `json:"target,omitempty"`
	Stoploss         float64     `json:"stoploss,omitempty"`
	TrailingStoploss float64     `json:"trailingStoploss,omitempty"`
	Strategy         string      `json:"strategy,omitempty"`
}

// TvPosSqOff TradingView 告警转发的平仓请求
type TvPosSqOff struct {
	PseudoAccount    string           `json:"pseudoAccount"`
	Category         PositionCategory `json:"category"`
	Type             PositionType     `json:"type"`
	Exchange         string           `json:"exchange"`
	Symbol           string           `json:"symbol"`
	CancelOpenOrders bool             `json:"cancelOpenOrders,omitempty"`
}

// AdjustHoldingsRequest 调整（卖出或加仓）持股
type AdjustHoldingsRequest struct {
	PseudoAccount string               `json:"pseudoAccount"`
	ProductType   ProductType          `json:"productType,omitempty"`
	Items         []AdjustHoldingsItem `json:"items"`
}

// AdjustHoldingsItem 单个标的的调整量，负数为卖出
type AdjustHoldingsItem struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
}

// AdjustHoldingsResponse 每个标的的下单结果
type AdjustHoldingsResponse struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
	OrderID  string `json:"orderId,omitempty"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
}
