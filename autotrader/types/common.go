package types

// TradeType 买卖方向
type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket      OrderType = "MARKET"
	OrderTypeLimit       OrderType = "LIMIT"
	OrderTypeStopLoss    OrderType = "SL"   // 止损限价
	OrderTypeStopLossMkt OrderType = "SL_M" // 止损市价
)

// ProductType 产品类型
type ProductType string

const (
	ProductTypeIntraday ProductType = "INTRADAY"
	ProductTypeDelivery ProductType = "DELIVERY"
	ProductTypeNormal   ProductType = "NORMAL"
)

// Variety 订单品种
type Variety string

const (
	VarietyRegular Variety = "REGULAR"
	VarietyBracket Variety = "BO"
	VarietyCover   Variety = "CO"
)

// Validity 订单有效期
type Validity string

const (
	ValidityDay Validity = "DAY"
	ValidityIOC Validity = "IOC"
)

// PositionCategory 持仓类别（日内 / 净持仓）
type PositionCategory string

const (
	PositionCategoryDay PositionCategory = "DAY"
	PositionCategoryNet PositionCategory = "NET"
)

// PositionType 持仓类型
type PositionType string

const (
	PositionTypeMIS  PositionType = "MIS"
	PositionTypeNRML PositionType = "NRML"
	PositionTypeCNC  PositionType = "CNC"
	PositionTypeBO   PositionType = "BO"
	PositionTypeCO   PositionType = "CO"
)

// ErrorCode 服务端错误码，原样透传，未知值同样保留
type ErrorCode string

const (
	ErrorCodeSystemForbidden ErrorCode = "SYSTEM_FORBIDDEN"
	ErrorCodeSystemError     ErrorCode = "SYSTEM_ERROR"
	ErrorCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrorCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrorCodeBrokerError     ErrorCode = "BROKER_ERROR"
)

func (t TradeType) String() string        { return string(t) }
func (t OrderType) String() string        { return string(t) }
func (t ProductType) String() string      { return string(t) }
func (t Variety) String() string          { return string(t) }
func (t Validity) String() string         { return string(t) }
func (t PositionCategory) String() string { return string(t) }
func (t PositionType) String() string     { return string(t) }
func (c ErrorCode) String() string        { return string(c) }
