package client

import (
	"context"

	"github.com/betbot/goautotrader/autotrader/types"
	"github.com/betbot/goautotrader/pkg/ratelimit"
)

// SquareOffPosition 平掉单个持仓
func (c *Client) SquareOffPosition(ctx context.Context, req types.PositionSquareOff, opts ...CallOption) Result[bool] {
	o := applyCallOptions(opts)
	op := formOp("SquareOffPosition", EndpointSquareOffPosition, ratelimit.GroupTrading, req.PseudoAccount, map[string]any{
		"pseudoAccount":    req.PseudoAccount,
		"category":         req.Category,
		"type":             req.Type,
		"exchange":         req.Exchange,
		"symbol":           req.Symbol,
		"cancelOpenOrders": req.CancelOpenOrders,
	})
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", req.PseudoAccount},
		field{"category", string(req.Category)},
		field{"type", string(req.Type)},
		field{"exchange", req.Exchange},
		field{"symbol", req.Symbol},
	); err != nil {
		return reject[bool](c, op, err)
	}
	return call[bool](ctx, c, op)
}

// SquareOffTvPosition TradingView 告警转发的平仓，apiKey 必填
func (c *Client) SquareOffTvPosition(ctx context.Context, apiKey string, req types.TvPosSqOff) Result[bool] {
	op := jsonOp("SquareOffTvPosition", EndpointSquareOffTvPosition, ratelimit.GroupTrading, req.PseudoAccount, req)
	op.APIKey = apiKey

	if err := required(op.Name,
		field{"apiKey", apiKey},
		field{"pseudoAccount", req.PseudoAccount},
	); err != nil {
		return reject[bool](c, op, err)
	}
	return call[bool](ctx, c, op)
}

// SquareOffPortfolio 平掉某类别下的全部持仓
func (c *Client) SquareOffPortfolio(ctx context.Context, pseudoAccount string, category types.PositionCategory, cancelOpenOrders bool, opts ...CallOption) Result[bool] {
	o := applyCallOptions(opts)
	op := formOp("SquareOffPortfolio", EndpointSquareOffPortfolio, ratelimit.GroupTrading, pseudoAccount, map[string]any{
		"pseudoAccount":    pseudoAccount,
		"category":         category,
		"cancelOpenOrders": cancelOpenOrders,
	})
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", pseudoAccount},
		field{"category", string(category)},
	); err != nil {
		return reject[bool](c, op, err)
	}
	return call[bool](ctx, c, op)
}

// AdjustHoldings 调整持股，apiKey 必填
func (c *Client) AdjustHoldings(ctx context.Context, apiKey string, req types.AdjustHoldingsRequest) Result[[]types.AdjustHoldingsResponse] {
	op := jsonOp("AdjustHoldings", EndpointAdjustHoldings, ratelimit.GroupTrading, req.PseudoAccount, req)
	op.APIKey = apiKey

	if err := required(op.Name,
		field{"apiKey", apiKey},
		field{"pseudoAccount", req.PseudoAccount},
	); err != nil {
		return reject[[]types.AdjustHoldingsResponse](c, op, err)
	}
	if len(req.Items) == 0 {
		return reject[[]types.AdjustHoldingsResponse](c, op, argumentError("%s: 没有需要调整的持股", op.Name))
	}
	return call[[]types.AdjustHoldingsResponse](ctx, c, op)
}

// ReadPlatformOrders 读取券商平台上的订单
func (c *Client) ReadPlatformOrders(ctx context.Context, pseudoAccount string, opts ...CallOption) Result[[]types.PlatformOrder] {
	return read[[]types.PlatformOrder](ctx, c, "ReadPlatformOrders", EndpointReadPlatformOrders, pseudoAccount, opts)
}

// ReadPlatformPositions 读取持仓
func (c *Client) ReadPlatformPositions(ctx context.Context, pseudoAccount string, opts ...CallOption) Result[[]types.PlatformPosition] {
	return read[[]types.PlatformPosition](ctx, c, "ReadPlatformPositions", EndpointReadPlatformPositions, pseudoAccount, opts)
}

// ReadPlatformMargins 读取资金
func (c *Client) ReadPlatformMargins(ctx context.Context, pseudoAccount string, opts ...CallOption) Result[[]types.PlatformMargin] {
	return read[[]types.PlatformMargin](ctx, c, "ReadPlatformMargins", EndpointReadPlatformMargins, pseudoAccount, opts)
}

// ReadPlatformHoldings 读取持股
func (c *Client) ReadPlatformHoldings(ctx context.Context, pseudoAccount string, opts ...CallOption) Result[[]types.PlatformHolding] {
	return read[[]types.PlatformHolding](ctx, c, "ReadPlatformHoldings", EndpointReadPlatformHoldings, pseudoAccount, opts)
}

func read[T any](ctx context.Context, c *Client, name, path, pseudoAccount string, opts []CallOption) Result[T] {
	o := applyCallOptions(opts)
	op := formOp(name, path, ratelimit.GroupRead, pseudoAccount, map[string]any{"pseudoAccount": pseudoAccount})
	op.APIKey = o.apiKey

	if err := required(op.Name, field{"pseudoAccount", pseudoAccount}); err != nil {
		return reject[T](c, op, err)
	}
	return call[T](ctx, c, op)
}
