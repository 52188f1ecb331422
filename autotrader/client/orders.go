package client

import (
	"context"

	"github.com/betbot/goautotrader/autotrader/types"
	"github.com/betbot/goautotrader/pkg/ratelimit"
)

// PlaceOrder 以 JSON 提交订单，返回订单 ID
func (c *Client) PlaceOrder(ctx context.Context, order types.Order, opts ...CallOption) Result[string] {
	o := applyCallOptions(opts)
	op := jsonOp("PlaceOrder", EndpointPlaceOrder, ratelimit.GroupTrading, order.PseudoAccount, order)
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", order.PseudoAccount},
		field{"exchange", order.Exchange},
		field{"symbol", order.Symbol},
		field{"tradeType", string(order.TradeType)},
		field{"orderType", string(order.OrderType)},
		field{"productType", string(order.ProductType)},
	); err != nil {
		return reject[string](c, op, err)
	}
	return call[string](ctx, c, op)
}

// PlaceTvOrder 提交 TradingView 告警订单，apiKey 必填
func (c *Client) PlaceTvOrder(ctx context.Context, apiKey string, order types.TvOrder) Result[bool] {
	op := jsonOp("PlaceTvOrder", EndpointPlaceTvOrder, ratelimit.GroupTrading, order.PseudoAccount, order)
	op.APIKey = apiKey

	if err := required(op.Name,
		field{"apiKey", apiKey},
		field{"pseudoAccount", order.PseudoAccount},
		field{"exchange", order.Exchange},
		field{"symbol", order.Symbol},
	); err != nil {
		return reject[bool](c, op, err)
	}
	return call[bool](ctx, c, op)
}

// PlaceRegularOrder 普通订单
func (c *Client) PlaceRegularOrder(ctx context.Context, order types.RegularOrder, opts ...CallOption) Result[string] {
	o := applyCallOptions(opts)
	op := formOp("PlaceRegularOrder", EndpointPlaceRegularOrder, ratelimit.GroupTrading, order.PseudoAccount, map[string]any{
		"pseudoAccount": order.PseudoAccount,
		"exchange":      order.Exchange,
		"symbol":        order.Symbol,
		"tradeType":     order.TradeType,
		"orderType":     order.OrderType,
		"productType":   order.ProductType,
		"quantity":      order.Quantity,
		"price":         order.Price,
		"triggerPrice":  order.TriggerPrice,
	})
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", order.PseudoAccount},
		field{"exchange", order.Exchange},
		field{"symbol", order.Symbol},
		field{"tradeType", string(order.TradeType)},
		field{"orderType", string(order.OrderType)},
		field{"productType", string(order.ProductType)},
	); err != nil {
		return reject[string](c, op, err)
	}
	return call[string](ctx, c, op)
}

// PlaceBracketOrder 括号单
func (c *Client) PlaceBracketOrder(ctx context.Context, order types.BracketOrder, opts ...CallOption) Result[string] {
	o := applyCallOptions(opts)
	op := formOp("PlaceBracketOrder", EndpointPlaceBracketOrder, ratelimit.GroupTrading, order.PseudoAccount, map[string]any{
		"pseudoAccount":    order.PseudoAccount,
		"exchange":         order.Exchange,
		"symbol":           order.Symbol,
		"tradeType":        order.TradeType,
		"orderType":        order.OrderType,
		"quantity":         order.Quantity,
		"price":            order.Price,
		"triggerPrice":     order.TriggerPrice,
		"target":           order.Target,
		"stoploss":         order.Stoploss,
		"trailingStoploss": order.TrailingStoploss,
	})
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", order.PseudoAccount},
		field{"exchange", order.Exchange},
		field{"symbol", order.Symbol},
		field{"tradeType", string(order.TradeType)},
		field{"orderType", string(order.OrderType)},
	); err != nil {
		return reject[string](c, op, err)
	}
	return call[string](ctx, c, op)
}

// PlaceCoverOrder 备兑单
func (c *Client) PlaceCoverOrder(ctx context.Context, order types.CoverOrder, opts ...CallOption) Result[string] {
	o := applyCallOptions(opts)
	op := formOp("PlaceCoverOrder", EndpointPlaceCoverOrder, ratelimit.GroupTrading, order.PseudoAccount, map[string]any{
		"pseudoAccount": order.PseudoAccount,
		"exchange":      order.Exchange,
		"symbol":        order.Symbol,
		"tradeType":     order.TradeType,
		"orderType":     order.OrderType,
		"quantity":      order.Quantity,
		"price":         order.Price,
		"triggerPrice":  order.TriggerPrice,
	})
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", order.PseudoAccount},
		field{"exchange", order.Exchange},
		field{"symbol", order.Symbol},
		field{"tradeType", string(order.TradeType)},
		field{"orderType", string(order.OrderType)},
	); err != nil {
		return reject[string](c, op, err)
	}
	return call[string](ctx, c, op)
}

// PlaceAdvancedOrder 主从复制下单，variety 固定为 REGULAR
func (c *Client) PlaceAdvancedOrder(ctx context.Context, order types.AdvancedOrder, opts ...CallOption) Result[string] {
	o := applyCallOptions(opts)
	params := map[string]any{
		"variety":       types.VarietyRegular,
		"pseudoAccount": order.PseudoAccount,
		"exchange":      order.Exchange,
		"symbol":        order.Symbol,
		"tradeType":     order.TradeType,
		"orderType":     order.OrderType,
		"productType":   order.ProductType,
		"quantity":      order.Quantity,
		"price":         order.Price,
		"triggerPrice":  order.TriggerPrice,
		"amo":           order.Amo,
	}
	if order.Validity != "" {
		params["validity"] = order.Validity
	}
	if order.PublisherID != "" {
		params["publisherId"] = order.PublisherID
	}
	if order.CommandID != "" {
		params["commandId"] = order.CommandID
	}
	op := formOp("PlaceAdvancedOrder", EndpointPlaceAdvancedOrder, ratelimit.GroupTrading, order.PseudoAccount, params)
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", order.PseudoAccount},
		field{"exchange", order.Exchange},
		field{"symbol", order.Symbol},
		field{"tradeType", string(order.TradeType)},
		field{"orderType", string(order.OrderType)},
		field{"productType", string(order.ProductType)},
	); err != nil {
		return reject[string](c, op, err)
	}
	return call[string](ctx, c, op)
}

// ModifyOrderByPlatformID 改单。订单类型为 nil 时发送空值，其余 nil 字段不发送（保持原值）。
func (c *Client) ModifyOrderByPlatformID(ctx context.Context, pseudoAccount, platformID string, m types.OrderModification, opts ...CallOption) Result[bool] {
	o := applyCallOptions(opts)
	orderType := ""
	if m.OrderType != nil {
		orderType = m.OrderType.String()
	}
	params := map[string]any{
		"pseudoAccount": pseudoAccount,
		"platformId":    platformID,
		"orderType":     orderType,
		"quantity":      m.Quantity,
		"price":         m.Price,
		"triggerPrice":  m.TriggerPrice,
	}
	if o.commandID != "" {
		params["commandId"] = o.commandID
	}
	op := formOp("ModifyOrderByPlatformID", EndpointModifyOrderByPlatformID, ratelimit.GroupTrading, pseudoAccount, params)
	op.APIKey = o.apiKey

	if err := required(op.Name,
		field{"pseudoAccount", pseudoAccount},
		field{"platformId", platformID},
	); err != nil {
		return reject[bool](c, op, err)
	}
	return call[bool](ctx, c, op)
}

// CancelOrderByPlatformID 按平台订单 ID 撤单
func (c *Client) CancelOrderByPlatformID(ctx context.Context, pseudoAccount, platformID string, opts ...CallOption) Result[bool] {
	return c.cancel(ctx, "CancelOrderByPlatformID", EndpointCancelOrderByPlatformID, pseudoAccount, platformID, true, opts)
}

// CancelChildOrdersByPlatformID 撤销括号单/备兑单的子订单
func (c *Client) CancelChildOrdersByPlatformID(ctx context.Context, pseudoAccount, platformID string, opts ...CallOption) Result[bool] {
	return c.cancel(ctx, "CancelChildOrdersByPlatformID", EndpointCancelChildOrdersByPlatformID, pseudoAccount, platformID, true, opts)
}

// CancelAllOrders 撤销账户下所有未成交订单
func (c *Client) CancelAllOrders(ctx context.Context, pseudoAccount string, opts ...CallOption) Result[bool] {
	return c.cancel(ctx, "CancelAllOrders", EndpointCancelAllOrders, pseudoAccount, "", false, opts)
}

func (c *Client) cancel(ctx context.Context, name, path, pseudoAccount, platformID string, needPlatformID bool, opts []CallOption) Result[bool] {
	o := applyCallOptions(opts)
	params := map[string]any{"pseudoAccount": pseudoAccount}
	if platformID != "" {
		params["platformId"] = platformID
	}
	if o.commandID != "" {
		params["commandId"] = o.commandID
	}
	op := formOp(name, path, ratelimit.GroupTrading, pseudoAccount, params)
	op.APIKey = o.apiKey

	fields := []field{{"pseudoAccount", pseudoAccount}}
	if needPlatformID {
		fields = append(fields, field{"platformId", platformID})
	}
	if err := required(op.Name, fields...); err != nil {
		return reject[bool](c, op, err)
	}
	return call[bool](ctx, c, op)
}
