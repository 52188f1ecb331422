// atmock 本地运行的假 AutoTrader 服务，用于联调 CLI 和策略代码
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/betbot/goautotrader/internal/fakeserver"
	"github.com/betbot/goautotrader/internal/metrics"
	"github.com/betbot/goautotrader/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		listenAddr = flag.String("listen", getenv("ATMOCK_LISTEN", "127.0.0.1:9090"), "HTTP listen address")
		keys       = flag.String("keys", getenv("ATMOCK_API_KEYS", ""), "允许的 API key，逗号分隔；为空时放行任意非空 key")
		accounts   = flag.String("accounts", getenv("ATMOCK_ACCOUNTS", "DEMO1"), "伪账户，逗号分隔")
		holdings   = flag.String("holdings", getenv("ATMOCK_HOLDINGS", ""), "预置持股 EXCHANGE:SYMBOL:QTY:AVG，逗号分隔")
		logLevel   = flag.String("log-level", getenv("LOG_LEVEL", "info"), "日志级别")
		debugAddr  = flag.String("debug-listen", getenv("ATMOCK_DEBUG_LISTEN", ""), "expvar/pprof 监听地址，为空时不启动")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{Level: *logLevel}); err != nil {
		logger.Errorf("init logger failed: %v", err)
		os.Exit(1)
	}

	accountList := splitList(*accounts)
	fake := fakeserver.New(fakeserver.Config{
		APIKeys:  splitList(*keys),
		Accounts: accountList,
		OnRequest: func(path string) {
			metrics.FakeRequests.Add(path, 1)
		},
		OnFault: func(_ string, kind fakeserver.FaultKind) {
			metrics.FakeFaults.Add(kind.String(), 1)
		},
	})
	for _, spec := range splitList(*holdings) {
		seed, err := parseHolding(spec)
		if err != nil {
			logger.Errorf("invalid -holdings entry %q: %v", spec, err)
			os.Exit(2)
		}
		for _, acc := range accountList {
			seed.PseudoAccount = acc
			fake.SeedHolding(seed)
		}
	}

	ctx, stopDebug := context.WithCancel(context.Background())
	defer stopDebug()
	if *debugAddr != "" {
		addr, err := metrics.StartAsync(ctx, *debugAddr)
		if err != nil {
			logger.Errorf("start debug server failed: %v", err)
			os.Exit(1)
		}
		logger.Infof("debug server on http://%s/debug/vars", addr)
	}

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           fake.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("atmock listening on %s, accounts=%v", *listenAddr, accountList)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	logger.Infof("atmock stopped")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseHolding 解析 EXCHANGE:SYMBOL:QTY:AVG
func parseHolding(spec string) (fakeserver.HoldingSeed, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 {
		return fakeserver.HoldingSeed{}, errors.New("expected EXCHANGE:SYMBOL:QTY:AVG")
	}
	qty, err := decimal.NewFromString(parts[2])
	if err != nil {
		return fakeserver.HoldingSeed{}, err
	}
	avg, err := decimal.NewFromString(parts[3])
	if err != nil {
		return fakeserver.HoldingSeed{}, err
	}
	return fakeserver.HoldingSeed{Exchange: parts[0], Symbol: parts[1], Quantity: qty, AvgPrice: avg, Ltp: avg}, nil
}
