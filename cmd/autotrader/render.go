package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/betbot/goautotrader/autotrader/client"
	"github.com/betbot/goautotrader/autotrader/types"
	"github.com/betbot/goautotrader/internal/journal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")) // 绿色

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")) // 红色

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// render -json 时输出 v，否则输出 text()
func (a *app) render(v any, text func() string) error {
	if a.opts.json {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, string(b))
		return err
	}
	_, err := fmt.Fprintln(a.out, text())
	return err
}

// done 输出布尔型操作的结果
func (a *app) done(res client.Result[bool], msg string) error {
	ok, err := res.Unwrap()
	if err != nil {
		return err
	}
	return a.render(map[string]bool{"ok": ok}, func() string {
		if !ok {
			return failStyle.Render("服务端未确认") + " " + msg
		}
		return okStyle.Render("OK") + " " + msg
	})
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func empty(rows int, what string) (string, bool) {
	if rows == 0 {
		return dimStyle.Render("没有" + what), true
	}
	return "", false
}

func renderAccounts(accounts []string) string {
	if s, ok := empty(len(accounts), "在线账户"); ok {
		return s
	}
	t := newTable("PSEUDO ACCOUNT")
	for _, acc := range accounts {
		t.Row(acc)
	}
	return t.String()
}

func renderOrders(orders []types.PlatformOrder) string {
	if s, ok := empty(len(orders), "订单"); ok {
		return s
	}
	t := newTable("ID", "SYMBOL", "SIDE", "TYPE", "VARIETY", "QTY", "FILLED", "PRICE", "TRIGGER", "STATUS", "PARENT")
	for _, o := range orders {
		t.Row(o.ID, o.Exchange+":"+o.Symbol, string(o.TradeType), string(o.OrderType), string(o.Variety),
			o.Quantity.String(), o.FilledQuantity.String(), o.Price.StringFixed(2), o.TriggerPrice.StringFixed(2),
			statusText(o.Status, o.Open()), o.ParentOrderID)
	}
	return t.String()
}

func statusText(status string, open bool) string {
	if open {
		return okStyle.Render(status)
	}
	return status
}

func renderPositions(positions []types.PlatformPosition) string {
	if s, ok := empty(len(positions), "持仓"); ok {
		return s
	}
	t := newTable("SYMBOL", "CATEGORY", "TYPE", "NET QTY", "BUY AVG", "SELL AVG", "LTP", "PNL")
	for _, p := range positions {
		net := p.NetQuantity.String()
		if p.Flat() {
			net = dimStyle.Render(net)
		}
		t.Row(p.Exchange+":"+p.Symbol, string(p.Category), string(p.Type), net,
			p.BuyAvgPrice.StringFixed(2), p.SellAvgPrice.StringFixed(2), p.Ltp.StringFixed(2), pnlText(p.Pnl.StringFixed(2), p.Pnl.Sign()))
	}
	return t.String()
}

func pnlText(s string, sign int) string {
	switch {
	case sign > 0:
		return okStyle.Render(s)
	case sign < 0:
		return failStyle.Render(s)
	}
	return s
}

func renderMargins(margins []types.PlatformMargin) string {
	if s, ok := empty(len(margins), "资金信息"); ok {
		return s
	}
	t := newTable("CATEGORY", "FUNDS", "UTILIZED", "AVAILABLE", "TOTAL", "NET")
	for _, m := range margins {
		t.Row(m.Category, m.Funds.StringFixed(2), m.Utilized.StringFixed(2), m.Available.StringFixed(2),
			m.Total.StringFixed(2), m.Net.StringFixed(2))
	}
	return t.String()
}

func renderHoldings(holdings []types.PlatformHolding) string {
	if s, ok := empty(len(holdings), "持股"); ok {
		return s
	}
	t := newTable("SYMBOL", "QTY", "AVG PRICE", "LTP", "VALUE", "PNL")
	for _, h := range holdings {
		t.Row(h.Exchange+":"+h.Symbol, h.Quantity.String(), h.AvgPrice.StringFixed(2), h.Ltp.StringFixed(2),
			h.MarketValue().StringFixed(2), pnlText(h.Pnl.StringFixed(2), h.Pnl.Sign()))
	}
	return t.String()
}

func renderKV(rows [][2]string) string {
	t := newTable("KEY", "VALUE")
	for _, r := range rows {
		t.Row(r[0], r[1])
	}
	return t.String()
}

func renderHistory(entries []journal.Entry) string {
	if s, ok := empty(len(entries), "调用记录"); ok {
		return s
	}
	t := newTable("TIME", "OPERATION", "ACCOUNT", "ATTEMPTS", "MS", "RESULT")
	for _, e := range entries {
		result := okStyle.Render("OK")
		if !e.OK {
			result = failStyle.Render(e.Kind + " " + e.Message)
		}
		t.Row(e.StartedAt.Local().Format("01-02 15:04:05"), e.Operation, e.PseudoAccount,
			strconv.Itoa(e.Attempts), strconv.FormatInt(e.Duration.Milliseconds(), 10), result)
	}
	return t.String()
}

func renderSummary(rows []journal.Summary) string {
	if s, ok := empty(len(rows), "调用记录"); ok {
		return s
	}
	t := newTable("OPERATION", "CALLS", "FAILURES", "RETRIED")
	for _, r := range rows {
		t.Row(r.Operation, strconv.Itoa(r.Calls), strconv.Itoa(r.Failures), strconv.Itoa(r.Retried))
	}
	return t.String()
}
