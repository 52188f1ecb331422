package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
)

type command struct {
	usage string
	// offline 不需要连接服务（不解析凭证、不建会话）
	offline bool
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"accounts":   {usage: "列出在线的伪账户", run: cmdAccounts},
	"orders":     {usage: "读取订单 -account", run: cmdOrders},
	"positions":  {usage: "读取持仓 -account", run: cmdPositions},
	"margins":    {usage: "读取资金 -account", run: cmdMargins},
	"holdings":   {usage: "读取持股 -account", run: cmdHoldings},
	"place":      {usage: "下单 -account -symbol -side -type -qty [-price -trigger -variety ...]", run: cmdPlace},
	"modify":     {usage: "改单 -account -id [-type -qty -price -trigger]", run: cmdModify},
	"cancel":     {usage: "撤单 -account -id [-children]", run: cmdCancel},
	"cancel-all": {usage: "撤销全部挂单 -account", run: cmdCancelAll},
	"squareoff":  {usage: "平仓 -account -category [-type -exchange -symbol] [-cancel-open]", run: cmdSquareOff},
	"execute":    {usage: "执行终端命令 -command", run: cmdExecute},
	"version":    {usage: "桌面端版本与最低版本", run: cmdVersion},
	"history":    {usage: "查看调用日志 [-limit] [-summary]", offline: true, run: cmdHistory},
	"store-key":  {usage: "保存/列出凭证库中的 API key [-profile -key | -list]", offline: true, run: cmdStoreKey},
}

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) (err error) {
	var opts globalOptions
	fs := flag.NewFlagSet("autotrader", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", os.Getenv("AUTOTRADER_CONFIG"), "配置文件路径（yaml/json）")
	fs.StringVar(&opts.apiKey, "api-key", "", "API key，优先于配置和凭证库")
	fs.StringVar(&opts.profile, "profile", "", "凭证库 profile")
	fs.BoolVar(&opts.json, "json", false, "以 JSON 输出")
	if err := fs.Parse(args); err != nil {
		printUsage(out)
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(out)
		return nil
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		printUsage(out)
		return fmt.Errorf("未知命令: %s", rest[0])
	}

	a, err := newApp(opts, out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if !cmd.offline {
		if err := a.connect(); err != nil {
			return err
		}
	}
	return cmd.run(ctx, a, rest[1:])
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("usage: autotrader [-config file] [-api-key key] [-profile name] [-json] <command> [flags]\n\ncommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-11s %s\n", name, commands[name].usage)
	}
	fmt.Fprint(w, b.String())
}
