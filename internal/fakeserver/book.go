package fakeserver

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/goautotrader/autotrader/types"
)

const platformName = "FAKE"

var defaultFunds = decimal.NewFromInt(1_000_000)

// businessError 以 success=false 返回给客户端
type businessError struct {
	message string
	code    types.ErrorCode
}

func (e *businessError) Error() string { return e.message }

func validationError(format string, args ...any) error {
	return &businessError{message: fmt.Sprintf(format, args...), code: types.ErrorCodeValidation}
}

func brokerError(format string, args ...any) error {
	return &businessError{message: fmt.Sprintf(format, args...), code: types.ErrorCodeBrokerError}
}

// PositionSeed 预置持仓
type PositionSeed struct {
	PseudoAccount string
	Category      types.PositionCategory
	Type          types.PositionType
	Exchange      string
	Symbol        string
	NetQuantity   decimal.Decimal
	Ltp           decimal.Decimal
}

// HoldingSeed 预置持股
type HoldingSeed struct {
	PseudoAccount string
	Exchange      string
	Symbol        string
	Quantity      decimal.Decimal
	AvgPrice      decimal.Decimal
	Ltp           decimal.Decimal
}

// ledger 单个伪账户的状态
type ledger struct {
	orders    []*types.PlatformOrder
	positions []*types.PlatformPosition
	holdings  []*types.PlatformHolding
	margin    types.PlatformMargin
}

// book 所有伪账户的内存状态
type book struct {
	mu       sync.Mutex
	strict   bool // 只接受预先配置的账户
	accounts map[string]*ledger
}

func newBook(accounts []string) *book {
	b := &book{strict: len(accounts) > 0, accounts: make(map[string]*ledger)}
	for _, a := range accounts {
		b.accounts[a] = newLedger(a)
	}
	return b
}

func newLedger(pseudoAccount string) *ledger {
	return &ledger{
		margin: types.PlatformMargin{
			PseudoAccount:  pseudoAccount,
			TradingAccount: pseudoAccount,
			Platform:       platformName,
			Category:       "EQUITY",
			Funds:          defaultFunds,
			Available:      defaultFunds,
			Total:          defaultFunds,
			Net:            defaultFunds,
		},
	}
}

// account 调用方需持有 b.mu
func (b *book) account(pseudoAccount string) (*ledger, error) {
	if l, ok := b.accounts[pseudoAccount]; ok {
		return l, nil
	}
	if b.strict {
		return nil, validationError("pseudo account not found: %s", pseudoAccount)
	}
	l := newLedger(pseudoAccount)
	b.accounts[pseudoAccount] = l
	return l, nil
}

func (b *book) liveAccounts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.accounts))
	for a := range b.accounts {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// place 登记新订单；市价单立即成交并更新持仓
func (b *book) place(o types.PlatformOrder) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, err := b.account(o.PseudoAccount)
	if err != nil {
		return err
	}
	if !o.Quantity.IsPositive() {
		return validationError("quantity must be positive")
	}

	now := time.Now()
	o.TradingAccount = o.PseudoAccount
	o.Platform = platformName
	o.OrderTime = &now
	if o.Variety == "" {
		o.Variety = types.VarietyRegular
	}

	switch o.OrderType {
	case types.OrderTypeMarket:
		o.Status = "COMPLETE"
		o.FilledQuantity = o.Quantity
		o.PendingQuantity = decimal.Zero
		o.AveragePrice = o.Price
		l.fill(o)
	case types.OrderTypeStopLoss, types.OrderTypeStopLossMkt:
		o.Status = "TRIGGER_PENDING"
		o.PendingQuantity = o.Quantity
	default:
		o.Status = "OPEN"
		o.PendingQuantity = o.Quantity
	}

	placed := o
	l.orders = append(l.orders, &placed)
	return nil
}

// addChild 为括号单/备兑单登记子订单
func (b *book) addChild(parent types.PlatformOrder, id string, orderType types.OrderType, price, trigger decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.accounts[parent.PseudoAccount]
	if !ok {
		return
	}
	side := types.TradeTypeSell
	if parent.TradeType == types.TradeTypeSell {
		side = types.TradeTypeBuy
	}
	now := time.Now()
	child := &types.PlatformOrder{
		ID:              id,
		PseudoAccount:   parent.PseudoAccount,
		TradingAccount:  parent.PseudoAccount,
		Platform:        platformName,
		Exchange:        parent.Exchange,
		Symbol:          parent.Symbol,
		TradeType:       side,
		OrderType:       orderType,
		ProductType:     parent.ProductType,
		Variety:         parent.Variety,
		Quantity:        parent.Quantity,
		PendingQuantity: parent.Quantity,
		Price:           price,
		TriggerPrice:    trigger,
		Status:          "TRIGGER_PENDING",
		ParentOrderID:   parent.ID,
		OrderTime:       &now,
	}
	l.orders = append(l.orders, child)
}

// modification 改单字段，nil 表示不变
type modification struct {
	orderType    types.OrderType
	quantity     *decimal.Decimal
	price        *decimal.Decimal
	triggerPrice *decimal.Decimal
}

func (b *book) modify(pseudoAccount, id string, m modification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, err := b.openOrder(pseudoAccount, id)
	if err != nil {
		return err
	}
	if m.orderType != "" {
		o.OrderType = m.orderType
	}
	if m.quantity != nil {
		if !m.quantity.IsPositive() {
			return validationError("quantity must be positive")
		}
		o.Quantity = *m.quantity
		o.PendingQuantity = m.quantity.Sub(o.FilledQuantity)
	}
	if m.price != nil {
		o.Price = *m.price
	}
	if m.triggerPrice != nil {
		o.TriggerPrice = *m.triggerPrice
	}
	return nil
}

func (b *book) cancel(pseudoAccount, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, err := b.openOrder(pseudoAccount, id)
	if err != nil {
		return err
	}
	cancelOrder(o)
	return nil
}

func (b *book) cancelChildren(pseudoAccount, parentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, err := b.account(pseudoAccount)
	if err != nil {
		return err
	}
	found := false
	for _, o := range l.orders {
		if o.ParentOrderID == parentID && o.Open() {
			cancelOrder(o)
			found = true
		}
	}
	if !found {
		return validationError("no open child orders for %s", parentID)
	}
	return nil
}

func (b *book) cancelAll(pseudoAccount string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, err := b.account(pseudoAccount)
	if err != nil {
		return err
	}
	l.cancelOpen(func(*types.PlatformOrder) bool { return true })
	return nil
}

// openOrder 调用方需持有 b.mu
func (b *book) openOrder(pseudoAccount, id string) (*types.PlatformOrder, error) {
	l, err := b.account(pseudoAccount)
	if err != nil {
		return nil, err
	}
	for _, o := range l.orders {
		if o.ID != id {
			continue
		}
		if !o.Open() {
			return nil, brokerError("order %s is %s", id, o.Status)
		}
		return o, nil
	}
	return nil, validationError("order not found: %s", id)
}

func cancelOrder(o *types.PlatformOrder) {
	o.Status = "CANCELLED"
	o.PendingQuantity = decimal.Zero
}

func (l *ledger) cancelOpen(match func(*types.PlatformOrder) bool) {
	for _, o := range l.orders {
		if o.Open() && match(o) {
			cancelOrder(o)
		}
	}
}

// fill 按成交更新持仓
func (l *ledger) fill(o types.PlatformOrder) {
	category, typ := positionKind(o.ProductType, o.Variety)
	p := l.position(o.PseudoAccount, category, typ, o.Exchange, o.Symbol)

	value := o.Quantity.Mul(o.AveragePrice)
	if o.TradeType == types.TradeTypeSell {
		p.SellQuantity = p.SellQuantity.Add(o.Quantity)
		p.SellValue = p.SellValue.Add(value)
	} else {
		p.BuyQuantity = p.BuyQuantity.Add(o.Quantity)
		p.BuyValue = p.BuyValue.Add(value)
	}
	p.NetQuantity = p.BuyQuantity.Sub(p.SellQuantity)
	p.NetValue = p.SellValue.Sub(p.BuyValue)
	if p.BuyQuantity.IsPositive() {
		p.BuyAvgPrice = p.BuyValue.Div(p.BuyQuantity)
	}
	if p.SellQuantity.IsPositive() {
		p.SellAvgPrice = p.SellValue.Div(p.SellQuantity)
	}
	p.Ltp = o.AveragePrice
}

func (l *ledger) position(pseudoAccount string, category types.PositionCategory, typ types.PositionType, exchange, symbol string) *types.PlatformPosition {
	for _, p := range l.positions {
		if p.Category == category && p.Type == typ && p.Exchange == exchange && p.Symbol == symbol {
			return p
		}
	}
	p := &types.PlatformPosition{
		ID:             fmt.Sprintf("%s:%s:%s:%s", category, typ, exchange, symbol),
		PseudoAccount:  pseudoAccount,
		TradingAccount: pseudoAccount,
		Platform:       platformName,
		Category:       category,
		Type:           typ,
		Exchange:       exchange,
		Symbol:         symbol,
		Multiplier:     decimal.NewFromInt(1),
	}
	l.positions = append(l.positions, p)
	return p
}

func positionKind(product types.ProductType, variety types.Variety) (types.PositionCategory, types.PositionType) {
	switch {
	case variety == types.VarietyBracket:
		return types.PositionCategoryDay, types.PositionTypeBO
	case variety == types.VarietyCover:
		return types.PositionCategoryDay, types.PositionTypeCO
	case product == types.ProductTypeDelivery:
		return types.PositionCategoryNet, types.PositionTypeCNC
	case product == types.ProductTypeNormal:
		return types.PositionCategoryNet, types.PositionTypeNRML
	default:
		return types.PositionCategoryDay, types.PositionTypeMIS
	}
}

// squareOff 平掉匹配的持仓；category 为空时匹配全部
func (b *book) squareOff(pseudoAccount string, category types.PositionCategory, typ types.PositionType, exchange, symbol string, cancelOpenOrders bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, err := b.account(pseudoAccount)
	if err != nil {
		return err
	}

	matched := 0
	for _, p := range l.positions {
		if category != "" && p.Category != category {
			continue
		}
		if typ != "" && p.Type != typ {
			continue
		}
		if exchange != "" && (p.Exchange != exchange || p.Symbol != symbol) {
			continue
		}
		matched++
		if cancelOpenOrders {
			l.cancelOpen(func(o *types.PlatformOrder) bool {
				return o.Exchange == p.Exchange && o.Symbol == p.Symbol
			})
		}
		closeQty := p.NetQuantity.Abs()
		if p.NetQuantity.IsPositive() {
			p.SellQuantity = p.SellQuantity.Add(closeQty)
		} else {
			p.BuyQuantity = p.BuyQuantity.Add(closeQty)
		}
		p.NetQuantity = decimal.Zero
	}
	if exchange != "" && matched == 0 {
		return validationError("position not found: %s %s", exchange, symbol)
	}
	return nil
}

func (b *book) seedPosition(s PositionSeed) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, err := b.account(s.PseudoAccount)
	if err != nil {
		return
	}
	p := l.position(s.PseudoAccount, s.Category, s.Type, s.Exchange, s.Symbol)
	p.NetQuantity = s.NetQuantity
	if s.NetQuantity.IsPositive() {
		p.BuyQuantity = s.NetQuantity
	} else {
		p.SellQuantity = s.NetQuantity.Abs()
	}
	p.Ltp = s.Ltp
}

func (b *book) seedHolding(s HoldingSeed) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, err := b.account(s.PseudoAccount)
	if err != nil {
		return
	}
	l.holdings = append(l.holdings, &types.PlatformHolding{
		PseudoAccount:  s.PseudoAccount,
		TradingAccount: s.PseudoAccount,
		Platform:       platformName,
		Exchange:       s.Exchange,
		Symbol:         s.Symbol,
		Quantity:       s.Quantity,
		TotalQuantity:  s.Quantity,
		AvgPrice:       s.AvgPrice,
		Ltp:            s.Ltp,
		CurrentValue:   s.Ltp.Mul(s.Quantity),
		Pnl:            s.Ltp.Sub(s.AvgPrice).Mul(s.Quantity),
	})
}

// adjust 按增减量调整持股，每个标的单独返回结果
func (b *book) adjust(req types.AdjustHoldingsRequest, newID func() string) ([]types.AdjustHoldingsResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, err := b.account(req.PseudoAccount)
	if err != nil {
		return nil, err
	}

	out := make([]types.AdjustHoldingsResponse, 0, len(req.Items))
	for _, item := range req.Items {
		res := types.AdjustHoldingsResponse{Exchange: item.Exchange, Symbol: item.Symbol, Quantity: item.Quantity}
		if item.Quantity == 0 {
			res.Message = "nothing to adjust"
			out = append(out, res)
			continue
		}

		h := l.holding(req.PseudoAccount, item.Exchange, item.Symbol)
		next := h.Quantity.Add(decimal.NewFromInt(int64(item.Quantity)))
		if next.IsNegative() {
			res.Message = fmt.Sprintf("insufficient holding: have %s", h.Quantity)
			out = append(out, res)
			continue
		}
		h.Quantity = next
		h.TotalQuantity = next
		h.CurrentValue = h.Ltp.Mul(next)
		res.Success = true
		res.OrderID = newID()
		out = append(out, res)
	}
	return out, nil
}

func (l *ledger) holding(pseudoAccount, exchange, symbol string) *types.PlatformHolding {
	for _, h := range l.holdings {
		if h.Exchange == exchange && h.Symbol == symbol {
			return h
		}
	}
	h := &types.PlatformHolding{
		PseudoAccount:  pseudoAccount,
		TradingAccount: pseudoAccount,
		Platform:       platformName,
		Exchange:       exchange,
		Symbol:         symbol,
	}
	l.holdings = append(l.holdings, h)
	return h
}

func (b *book) orders(pseudoAccount string) ([]types.PlatformOrder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := b.account(pseudoAccount)
	if err != nil {
		return nil, err
	}
	out := make([]types.PlatformOrder, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (b *book) positions(pseudoAccount string) ([]types.PlatformPosition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := b.account(pseudoAccount)
	if err != nil {
		return nil, err
	}
	out := make([]types.PlatformPosition, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	return out, nil
}

func (b *book) margins(pseudoAccount string) ([]types.PlatformMargin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := b.account(pseudoAccount)
	if err != nil {
		return nil, err
	}
	return []types.PlatformMargin{l.margin}, nil
}

func (b *book) holdings(pseudoAccount string) ([]types.PlatformHolding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := b.account(pseudoAccount)
	if err != nil {
		return nil, err
	}
	out := make([]types.PlatformHolding, 0, len(l.holdings))
	for _, h := range l.holdings {
		out = append(out, *h)
	}
	return out, nil
}
