package client

import (
	"context"
	"encoding/json"

	"github.com/betbot/goautotrader/pkg/ratelimit"
)

// FetchLivePseudoAccounts 当前在线的伪账户
func (c *Client) FetchLivePseudoAccounts(ctx context.Context, opts ...CallOption) Result[[]string] {
	o := applyCallOptions(opts)
	op := getOp("FetchLivePseudoAccounts", EndpointFetchLivePseudoAccounts, ratelimit.GroupGeneral)
	op.APIKey = o.apiKey
	return call[[]string](ctx, c, op)
}

// Execute 执行 CSV 格式的命令，结果原样返回
func (c *Client) Execute(ctx context.Context, command string, opts ...CallOption) Result[json.RawMessage] {
	o := applyCallOptions(opts)
	op := formOp("Execute", EndpointExecute, ratelimit.GroupTrading, "", map[string]any{"command": command})
	op.APIKey = o.apiKey

	if err := required(op.Name, field{"command", command}); err != nil {
		return reject[json.RawMessage](c, op, err)
	}
	return call[json.RawMessage](ctx, c, op)
}

// DesktopVersion AutoTrader 桌面端最新版本
func (c *Client) DesktopVersion(ctx context.Context) Result[string] {
	return call[string](ctx, c, getOp("DesktopVersion", EndpointDesktopVersion, ratelimit.GroupGeneral))
}

// DesktopMinVersion AutoTrader 桌面端最低支持版本
func (c *Client) DesktopMinVersion(ctx context.Context) Result[string] {
	return call[string](ctx, c, getOp("DesktopMinVersion", EndpointDesktopMinVersion, ratelimit.GroupGeneral))
}
