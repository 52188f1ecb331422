package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/betbot/goautotrader/autotrader/client"
	"github.com/betbot/goautotrader/autotrader/types"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func requireFlags(name string, fields map[string]string) error {
	var missing []string
	for flagName, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, "-"+flagName)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s: 缺少参数 %s", name, strings.Join(missing, ", "))
	}
	return nil
}

// accountFlag 解析只带 -account 的命令
func accountFlag(name string, args []string) (string, error) {
	fs := newFlagSet(name)
	account := fs.String("account", "", "伪账户")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *account, requireFlags(name, map[string]string{"account": *account})
}

func cmdAccounts(ctx context.Context, a *app, _ []string) error {
	accounts, err := a.client.FetchLivePseudoAccounts(ctx).Unwrap()
	if err != nil {
		return err
	}
	return a.render(accounts, func() string { return renderAccounts(accounts) })
}

func cmdOrders(ctx context.Context, a *app, args []string) error {
	account, err := accountFlag("orders", args)
	if err != nil {
		return err
	}
	orders, err := a.client.ReadPlatformOrders(ctx, account).Unwrap()
	if err != nil {
		return err
	}
	return a.render(orders, func() string { return renderOrders(orders) })
}

func cmdPositions(ctx context.Context, a *app, args []string) error {
	account, err := accountFlag("positions", args)
	if err != nil {
		return err
	}
	positions, err := a.client.ReadPlatformPositions(ctx, account).Unwrap()
	if err != nil {
		return err
	}
	return a.render(positions, func() string { return renderPositions(positions) })
}

func cmdMargins(ctx context.Context, a *app, args []string) error {
	account, err := accountFlag("margins", args)
	if err != nil {
		return err
	}
	margins, err := a.client.ReadPlatformMargins(ctx, account).Unwrap()
	if err != nil {
		return err
	}
	return a.render(margins, func() string { return renderMargins(margins) })
}

func cmdHoldings(ctx context.Context, a *app, args []string) error {
	account, err := accountFlag("holdings", args)
	if err != nil {
		return err
	}
	holdings, err := a.client.ReadPlatformHoldings(ctx, account).Unwrap()
	if err != nil {
		return err
	}
	return a.render(holdings, func() string { return renderHoldings(holdings) })
}

func cmdPlace(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("place")
	var (
		account  = fs.String("account", "", "伪账户")
		exchange = fs.String("exchange", "NSE", "交易所")
		symbol   = fs.String("symbol", "", "标的")
		side     = fs.String("side", "", "BUY / SELL")
		otype    = fs.String("type", "LIMIT", "MARKET / LIMIT / SL / SL_M")
		product  = fs.String("product", "INTRADAY", "INTRADAY / DELIVERY / NORMAL")
		variety  = fs.String("variety", "REGULAR", "REGULAR / BO / CO")
		qty      = fs.Int("qty", 0, "数量")
		price    = fs.Float64("price", 0, "价格")
		trigger  = fs.Float64("trigger", 0, "触发价")
		target   = fs.Float64("target", 0, "止盈（BO）")
		stoploss = fs.Float64("stoploss", 0, "止损（BO）")
		trailing = fs.Float64("trailing", 0, "追踪止损（BO）")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("place", map[string]string{"account": *account, "symbol": *symbol, "side": *side}); err != nil {
		return err
	}

	tradeType := types.TradeType(strings.ToUpper(*side))
	orderType := types.OrderType(strings.ToUpper(*otype))
	var res client.Result[string]
	switch types.Variety(strings.ToUpper(*variety)) {
	case types.VarietyRegular:
		res = a.client.PlaceRegularOrder(ctx, types.RegularOrder{
			PseudoAccount: *account, Exchange: *exchange, Symbol: *symbol,
			TradeType: tradeType, OrderType: orderType, ProductType: types.ProductType(strings.ToUpper(*product)),
			Quantity: *qty, Price: *price, TriggerPrice: *trigger,
		})
	case types.VarietyBracket:
		res = a.client.PlaceBracketOrder(ctx, types.BracketOrder{
			PseudoAccount: *account, Exchange: *exchange, Symbol: *symbol,
			TradeType: tradeType, OrderType: orderType,
			Quantity: *qty, Price: *price, TriggerPrice: *trigger,
			Target: *target, Stoploss: *stoploss, TrailingStoploss: *trailing,
		})
	case types.VarietyCover:
		res = a.client.PlaceCoverOrder(ctx, types.CoverOrder{
			PseudoAccount: *account, Exchange: *exchange, Symbol: *symbol,
			TradeType: tradeType, OrderType: orderType,
			Quantity: *qty, Price: *price, TriggerPrice: *trigger,
		})
	default:
		return fmt.Errorf("place: 不支持的 variety %q", *variety)
	}

	orderID, err := res.Unwrap()
	if err != nil {
		return err
	}
	return a.render(map[string]string{"orderId": orderID}, func() string {
		return okStyle.Render("已下单") + " " + orderID
	})
}

func cmdModify(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("modify")
	var (
		account   = fs.String("account", "", "伪账户")
		id        = fs.String("id", "", "平台订单 ID")
		otype     = fs.String("type", "", "新订单类型")
		qty       = fs.Int("qty", 0, "新数量")
		price     = fs.Float64("price", 0, "新价格")
		trigger   = fs.Float64("trigger", 0, "新触发价")
		commandID = fs.String("command-id", "", "主从复制命令 ID")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("modify", map[string]string{"account": *account, "id": *id}); err != nil {
		return err
	}

	// 只修改显式给出的字段
	var m types.OrderModification
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "type":
			t := types.OrderType(strings.ToUpper(*otype))
			m.OrderType = &t
		case "qty":
			m.Quantity = qty
		case "price":
			m.Price = price
		case "trigger":
			m.TriggerPrice = trigger
		}
	})

	var opts []client.CallOption
	if *commandID != "" {
		opts = append(opts, client.WithCommandID(*commandID))
	}
	return a.done(a.client.ModifyOrderByPlatformID(ctx, *account, *id, m, opts...), "已改单 "+*id)
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("cancel")
	var (
		account  = fs.String("account", "", "伪账户")
		id       = fs.String("id", "", "平台订单 ID")
		children = fs.Bool("children", false, "只撤销子单（BO/CO）")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("cancel", map[string]string{"account": *account, "id": *id}); err != nil {
		return err
	}
	if *children {
		return a.done(a.client.CancelChildOrdersByPlatformID(ctx, *account, *id), "已撤销子单 "+*id)
	}
	return a.done(a.client.CancelOrderByPlatformID(ctx, *account, *id), "已撤单 "+*id)
}

func cmdCancelAll(ctx context.Context, a *app, args []string) error {
	account, err := accountFlag("cancel-all", args)
	if err != nil {
		return err
	}
	return a.done(a.client.CancelAllOrders(ctx, account), "已撤销全部挂单")
}

func cmdSquareOff(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("squareoff")
	var (
		account    = fs.String("account", "", "伪账户")
		category   = fs.String("category", "", "DAY / NET")
		ptype      = fs.String("type", "", "MIS / NRML / CNC / BO / CO；为空时平掉整个组合")
		exchange   = fs.String("exchange", "NSE", "交易所")
		symbol     = fs.String("symbol", "", "标的")
		cancelOpen = fs.Bool("cancel-open", false, "同时撤销相关挂单")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("squareoff", map[string]string{"account": *account, "category": *category}); err != nil {
		return err
	}
	cat := types.PositionCategory(strings.ToUpper(*category))

	if *symbol == "" {
		return a.done(a.client.SquareOffPortfolio(ctx, *account, cat, *cancelOpen), "已平掉组合 "+string(cat))
	}
	if err := requireFlags("squareoff", map[string]string{"type": *ptype}); err != nil {
		return err
	}
	return a.done(a.client.SquareOffPosition(ctx, types.PositionSquareOff{
		PseudoAccount:    *account,
		Category:         cat,
		Type:             types.PositionType(strings.ToUpper(*ptype)),
		Exchange:         *exchange,
		Symbol:           *symbol,
		CancelOpenOrders: *cancelOpen,
	}), "已平仓 "+*symbol)
}

func cmdExecute(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("execute")
	command := fs.String("command", "", "终端命令")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *command == "" && fs.NArg() > 0 {
		*command = strings.Join(fs.Args(), " ")
	}
	raw, err := a.client.Execute(ctx, *command).Unwrap()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, strings.TrimSpace(string(raw)))
	return err
}

func cmdVersion(ctx context.Context, a *app, _ []string) error {
	version, err := a.client.DesktopVersion(ctx).Unwrap()
	if err != nil {
		return err
	}
	minVersion, err := a.client.DesktopMinVersion(ctx).Unwrap()
	if err != nil {
		return err
	}
	return a.render(map[string]string{"version": version, "minVersion": minVersion}, func() string {
		return renderKV([][2]string{{"desktop version", version}, {"min version", minVersion}})
	})
}

func cmdHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("history")
	limit := fs.Int("limit", 20, "条数")
	summary := fs.Bool("summary", false, "按操作汇总")
	if err := fs.Parse(args); err != nil {
		return err
	}
	j, err := a.openJournal()
	if err != nil {
		return err
	}
	if j == nil {
		return fmt.Errorf("history: 未配置调用日志库（journal.path / AUTOTRADER_JOURNAL）")
	}

	if *summary {
		rows, err := j.Summarize(ctx)
		if err != nil {
			return err
		}
		return a.render(rows, func() string { return renderSummary(rows) })
	}
	entries, err := j.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	return a.render(entries, func() string { return renderHistory(entries) })
}

func cmdStoreKey(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("store-key")
	profile := fs.String("profile", a.cfg.SecretStore.Profile, "profile 名称")
	key := fs.String("key", "", "API key")
	list := fs.Bool("list", false, "列出已保存的 profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("store-key: 未配置凭证库（secret_store.path / AUTOTRADER_SECRET_STORE）")
	}

	if *list {
		profiles, err := store.Profiles()
		if err != nil {
			return err
		}
		return a.render(profiles, func() string { return strings.Join(profiles, "\n") })
	}
	if err := requireFlags("store-key", map[string]string{"key": *key}); err != nil {
		return err
	}
	if err := store.SetAPIKey(*profile, *key); err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, okStyle.Render("已保存")+" profile "+*profile)
	return err
}
