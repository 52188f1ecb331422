package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goautotrader/autotrader/client"
	"github.com/betbot/goautotrader/internal/journal"
	"github.com/betbot/goautotrader/internal/metrics"
	"github.com/betbot/goautotrader/pkg/config"
	"github.com/betbot/goautotrader/pkg/logger"
	"github.com/betbot/goautotrader/pkg/ratelimit"
	"github.com/betbot/goautotrader/pkg/secretstore"
	"github.com/betbot/goautotrader/pkg/shutdown"
)

var log = logrus.WithField("component", "autotrader_cli")

const shutdownTimeout = 5 * time.Second

type globalOptions struct {
	configPath string
	apiKey     string
	profile    string
	json       bool
}

// app 一次命令执行所需的全部组件
type app struct {
	opts     globalOptions
	cfg      *config.Config
	out      io.Writer
	registry *client.Registry
	client   *client.Client
	journal  *journal.Journal
	store    *secretstore.Store
	shutdown *shutdown.Manager
}

func newApp(opts globalOptions, out io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.profile != "" {
		cfg.SecretStore.Profile = opts.profile
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "配置无效")
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return nil, err
	}

	a := &app{
		opts:     opts,
		cfg:      cfg,
		out:      out,
		registry: client.NewRegistry(),
		shutdown: shutdown.NewManager(),
	}
	a.shutdown.OnShutdown("registry", func(context.Context) error {
		a.registry.Close()
		return nil
	})
	a.shutdown.OnShutdown("logger", func(context.Context) error {
		return logger.Close()
	})
	return a, nil
}

// openStore 打开凭证库；未配置路径时返回 nil
func (a *app) openStore() (*secretstore.Store, error) {
	if a.store != nil || a.cfg.SecretStore.Path == "" {
		return a.store, nil
	}
	key, err := secretstore.ParseKey(os.Getenv(secretstore.MasterKeyEnv))
	if err != nil {
		return nil, errors.Wrapf(err, "%s 无效", secretstore.MasterKeyEnv)
	}
	if key == nil {
		log.Warnf("未设置 %s，凭证库不加密", secretstore.MasterKeyEnv)
	}
	store, err := secretstore.Open(secretstore.OpenOptions{Path: a.cfg.SecretStore.Path, EncryptionKey: key})
	if err != nil {
		return nil, err
	}
	a.store = store
	a.shutdown.OnShutdown("secretstore", func(context.Context) error {
		return store.Close()
	})
	return store, nil
}

// openJournal 打开调用日志库；未配置路径时返回 nil
func (a *app) openJournal() (*journal.Journal, error) {
	if a.journal != nil || a.cfg.Journal.Path == "" {
		return a.journal, nil
	}
	j, err := journal.Open(a.cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	a.journal = j
	a.shutdown.OnShutdown("journal", func(context.Context) error {
		return j.Close()
	})
	return j, nil
}

// resolveAPIKey 凭证优先级：-api-key > 配置/环境变量 > 凭证库
func (a *app) resolveAPIKey() (string, error) {
	if a.opts.apiKey != "" {
		return a.opts.apiKey, nil
	}
	if a.cfg.APIKey != "" {
		return a.cfg.APIKey, nil
	}
	store, err := a.openStore()
	if err != nil {
		return "", err
	}
	if store == nil {
		return "", errors.New("未配置 API key：设置 AUTOTRADER_API_KEY、-api-key 或凭证库")
	}
	key, found, err := store.APIKey(a.cfg.SecretStore.Profile)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.Errorf("凭证库中没有 profile %q 的 API key", a.cfg.SecretStore.Profile)
	}
	return key, nil
}

// connect 建立会话和客户端
func (a *app) connect() error {
	apiKey, err := a.resolveAPIKey()
	if err != nil {
		return err
	}
	sc := a.cfg.SessionConfig()
	sc.APIKey = apiKey
	session, err := a.registry.GetOrCreate(sc)
	if err != nil {
		return err
	}

	opts := []client.Option{client.WithRetry(a.cfg.AutoRetryOnError)}
	if limits := a.cfg.Limits(); limits != nil {
		opts = append(opts, client.WithLimiter(ratelimit.NewRateLimitManager(limits)))
	}
	j, err := a.openJournal()
	if err != nil {
		return err
	}
	observers := metrics.Fanout{metrics.CallObserver{}}
	if j != nil {
		observers = append(observers, j)
	}
	opts = append(opts, client.WithObserver(observers))
	a.client = client.New(session, opts...)
	log.WithField("service_url", session.ServiceURL()).Debug("客户端已就绪")
	return nil
}

func (a *app) close() error {
	log.WithFields(logrus.Fields{
		"calls":   metrics.Calls.Value(),
		"retries": metrics.Retries.Value(),
	}).Debug("本次调用统计")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.shutdown.Shutdown(ctx)
}
