package fakeserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/betbot/goautotrader/autotrader/types"
)

func ok[T any](c *gin.Context, result T) {
	c.JSON(http.StatusOK, types.Ok(result))
}

// fail 业务错误以 success=false 返回，其它错误返回 500
func fail(c *gin.Context, err error) {
	if be, isBusiness := err.(*businessError); isBusiness {
		c.JSON(http.StatusOK, types.Fail(be.message, be.code))
		return
	}
	log.WithError(err).Error("处理请求失败")
	c.Status(http.StatusInternalServerError)
}

func missing(c *gin.Context, names ...string) bool {
	var absent []string
	for _, n := range names {
		if strings.TrimSpace(c.PostForm(n)) == "" {
			absent = append(absent, n)
		}
	}
	if len(absent) == 0 {
		return false
	}
	fail(c, validationError("missing required fields: %s", strings.Join(absent, ", ")))
	return true
}

func formDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, validationError("invalid %s: %q", name, raw)
	}
	return &d, nil
}

func formDecimals(c *gin.Context, names ...string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(names))
	for _, n := range names {
		d, err := formDecimal(c, n)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out[n] = *d
		}
	}
	return out, nil
}

func (s *Server) handleLiveAccounts(c *gin.Context) {
	ok(c, s.book.liveAccounts())
}

// handleExecute 命令原样回显
func (s *Server) handleExecute(c *gin.Context) {
	if missing(c, "command") {
		return
	}
	ok(c, map[string]string{"command": c.PostForm("command"), "status": "ACCEPTED"})
}

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var in types.Order
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	o := types.PlatformOrder{
		ID:                s.cfg.NewOrderID(),
		PseudoAccount:     in.PseudoAccount,
		Exchange:          in.Exchange,
		Symbol:            in.Symbol,
		TradeType:         in.TradeType,
		OrderType:         in.OrderType,
		ProductType:       in.ProductType,
		Variety:           in.Variety,
		Validity:          in.Validity,
		Quantity:          decimal.NewFromInt(int64(in.Quantity)),
		DisclosedQuantity: decimal.NewFromInt(int64(in.DisclosedQuantity)),
		Price:             decimal.NewFromFloat(in.Price),
		TriggerPrice:      decimal.NewFromFloat(in.TriggerPrice),
		Amo:               in.Amo,
		PublisherID:       in.PublisherID,
	}
	if err := s.book.place(o); err != nil {
		fail(c, err)
		return
	}
	ok(c, o.ID)
}

func (s *Server) handlePlaceTvOrder(c *gin.Context) {
	var in types.TvOrder
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	o := types.PlatformOrder{
		ID:            s.cfg.NewOrderID(),
		PseudoAccount: in.PseudoAccount,
		Exchange:      in.Exchange,
		Symbol:        in.Symbol,
		TradeType:     in.TradeType,
		OrderType:     in.OrderType,
		ProductType:   in.ProductType,
		Variety:       in.Variety,
		Quantity:      decimal.NewFromInt(int64(in.Quantity)),
		Price:         decimal.NewFromFloat(in.Price),
		TriggerPrice:  decimal.NewFromFloat(in.TriggerPrice),
	}
	if err := s.book.place(o); err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

// handlePlaceFormOrder variety 为空时取表单里的 variety
func (s *Server) handlePlaceFormOrder(variety types.Variety) gin.HandlerFunc {
	return func(c *gin.Context) {
		if missing(c, "pseudoAccount", "exchange", "symbol", "tradeType", "orderType", "quantity") {
			return
		}
		nums, err := formDecimals(c, "quantity", "price", "triggerPrice", "target", "stoploss", "trailingStoploss")
		if err != nil {
			fail(c, err)
			return
		}
		v := variety
		if v == "" {
			v = types.Variety(c.DefaultPostForm("variety", string(types.VarietyRegular)))
		}
		product := types.ProductType(c.PostForm("productType"))
		if product == "" {
			product = types.ProductTypeIntraday
		}

		o := types.PlatformOrder{
			ID:            s.cfg.NewOrderID(),
			PseudoAccount: c.PostForm("pseudoAccount"),
			Exchange:      c.PostForm("exchange"),
			Symbol:        c.PostForm("symbol"),
			TradeType:     types.TradeType(c.PostForm("tradeType")),
			OrderType:     types.OrderType(c.PostForm("orderType")),
			ProductType:   product,
			Variety:       v,
			Validity:      types.Validity(c.PostForm("validity")),
			Quantity:      nums["quantity"],
			Price:         nums["price"],
			TriggerPrice:  nums["triggerPrice"],
			Amo:           c.PostForm("amo") == "true",
			PublisherID:   c.PostForm("publisherId"),
		}
		if err := s.book.place(o); err != nil {
			fail(c, err)
			return
		}

		// 括号单挂止盈、止损两个子单；备兑单挂一个止损子单
		sign := decimal.NewFromInt(1)
		if o.TradeType == types.TradeTypeSell {
			sign = sign.Neg()
		}
		switch v {
		case types.VarietyBracket:
			s.book.addChild(o, s.cfg.NewOrderID(), types.OrderTypeLimit, o.Price.Add(nums["target"].Mul(sign)), decimal.Zero)
			stop := o.Price.Sub(nums["stoploss"].Mul(sign))
			s.book.addChild(o, s.cfg.NewOrderID(), types.OrderTypeStopLossMkt, decimal.Zero, stop)
		case types.VarietyCover:
			s.book.addChild(o, s.cfg.NewOrderID(), types.OrderTypeStopLossMkt, decimal.Zero, o.TriggerPrice)
		}
		ok(c, o.ID)
	}
}

func (s *Server) handleModifyOrder(c *gin.Context) {
	if missing(c, "pseudoAccount", "platformId") {
		return
	}
	m := modification{orderType: types.OrderType(c.PostForm("orderType"))}
	var err error
	if m.quantity, err = formDecimal(c, "quantity"); err != nil {
		fail(c, err)
		return
	}
	if m.price, err = formDecimal(c, "price"); err != nil {
		fail(c, err)
		return
	}
	if m.triggerPrice, err = formDecimal(c, "triggerPrice"); err != nil {
		fail(c, err)
		return
	}
	if err := s.book.modify(c.PostForm("pseudoAccount"), c.PostForm("platformId"), m); err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	if missing(c, "pseudoAccount", "platformId") {
		return
	}
	if err := s.book.cancel(c.PostForm("pseudoAccount"), c.PostForm("platformId")); err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

func (s *Server) handleCancelChildOrders(c *gin.Context) {
	if missing(c, "pseudoAccount", "platformId") {
		return
	}
	if err := s.book.cancelChildren(c.PostForm("pseudoAccount"), c.PostForm("platformId")); err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

func (s *Server) handleCancelAllOrders(c *gin.Context) {
	if missing(c, "pseudoAccount") {
		return
	}
	if err := s.book.cancelAll(c.PostForm("pseudoAccount")); err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

func (s *Server) handleSquareOffPosition(c *gin.Context) {
	if missing(c, "pseudoAccount", "category", "type", "exchange", "symbol") {
		return
	}
	err := s.book.squareOff(
		c.PostForm("pseudoAccount"),
		types.PositionCategory(c.PostForm("category")),
		types.PositionType(c.PostForm("type")),
		c.PostForm("exchange"),
		c.PostForm("symbol"),
		c.PostForm("cancelOpenOrders") == "true",
	)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

func (s *Server) handleSquareOffTvPosition(c *gin.Context) {
	var in types.TvPosSqOff
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if err := s.book.squareOff(in.PseudoAccount, in.Category, in.Type, in.Exchange, in.Symbol, in.CancelOpenOrders); err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

func (s *Server) handleSquareOffPortfolio(c *gin.Context) {
	if missing(c, "pseudoAccount", "category") {
		return
	}
	err := s.book.squareOff(
		c.PostForm("pseudoAccount"),
		types.PositionCategory(c.PostForm("category")),
		"", "", "",
		c.PostForm("cancelOpenOrders") == "true",
	)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, true)
}

func (s *Server) handleAdjustHoldings(c *gin.Context) {
	var in types.AdjustHoldingsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.book.adjust(in, s.cfg.NewOrderID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

func (s *Server) handleReadOrders(c *gin.Context) {
	if missing(c, "pseudoAccount") {
		return
	}
	out, err := s.book.orders(c.PostForm("pseudoAccount"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) handleReadPositions(c *gin.Context) {
	if missing(c, "pseudoAccount") {
		return
	}
	out, err := s.book.positions(c.PostForm("pseudoAccount"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) handleReadMargins(c *gin.Context) {
	if missing(c, "pseudoAccount") {
		return
	}
	out, err := s.book.margins(c.PostForm("pseudoAccount"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) handleReadHoldings(c *gin.Context) {
	if missing(c, "pseudoAccount") {
		return
	}
	out, err := s.book.holdings(c.PostForm("pseudoAccount"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) handleDesktopVersion(c *gin.Context) {
	ok(c, s.cfg.DesktopVersion)
}

func (s *Server) handleDesktopMinVersion(c *gin.Context) {
	ok(c, s.cfg.DesktopMinVersion)
}
