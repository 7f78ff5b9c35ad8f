package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/db/gormdb"
	httpadapter "github.com/atvirokodosprendimai/webbudget/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/webbudget/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/config"
	"github.com/atvirokodosprendimai/webbudget/internal/obs"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db-driver", Usage: "sqlite or postgres (default from WEBBUDGET_DB_DRIVER)"},
		&cli.StringFlag{Name: "db-dsn", Usage: "database file or DSN (default from WEBBUDGET_DB_DSN)"},
	}
}

// loadServerConfig reads the environment and applies flags set on c.
func loadServerConfig(c *cli.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("rpc-socket") {
		cfg.RPCSocket = c.String("rpc-socket")
	}
	if c.IsSet("db-driver") {
		cfg.DBDriver = c.String("db-driver")
	}
	if c.IsSet("db-dsn") {
		cfg.DBDSN = c.String("db-dsn")
	}
	return cfg, cfg.Validate()
}

func serverCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (default from WEBBUDGET_ADDR)"},
		&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path (default from WEBBUDGET_RPC_SOCKET)"},
	}, dbFlags()...)

	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP and JSON-RPC servers",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadServerConfig(c)
			if err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}
}

func openDatabase(ctx context.Context, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gormdb.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	if err := gormdb.RunMigrations(ctx, db); err != nil {
		return err
	}

	secret := []byte(cfg.AuthSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		sugar.Warn("WEBBUDGET_AUTH_SECRET is empty; tokens will not survive a restart")
	}

	repo := gormdb.NewRepository(db)
	validator := application.NewValidator()
	audit := application.NewAuditService(repo, sugar.Named("audit"))
	authorities := application.NewAuthorityService(repo, validator)
	costCenters := application.NewCostCenterService(repo, validator)
	users := application.NewUserService(repo, repo, validator)
	auth, err := application.NewAuthService(repo, audit, application.TokenConfig{
		Secret: secret,
		Issuer: cfg.AuthIssuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return err
	}
	if err := application.NewBootstrapper(repo, authorities, audit).
		BootstrapAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	router := httpadapter.NewRouter(httpadapter.Deps{
		CostCenters:  costCenters,
		Users:        users,
		Authorities:  authorities,
		Auth:         auth,
		Audit:        audit,
		Log:          sugar.Named("http"),
		Metrics:      obs.NewMetrics(),
		Ready:        &httpadapter.ReadyProbe{DB: sqlDB},
		LoginLimiter: httpadapter.NewLoginLimiter(cfg.LoginRate, cfg.LoginBurst),
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	rpcSrv, err := rpcadapter.Start(cfg.RPCSocket, rpcadapter.Services{
		CostCenters: costCenters,
		Users:       users,
		Authorities: authorities,
		Auth:        auth,
		Audit:       audit,
	}, sugar.Named("rpc"))
	if err != nil {
		return err
	}
	defer func() { _ = rpcSrv.Close() }()
	sugar.Infow("json-rpc listening", "socket", cfg.RPCSocket)

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		sugar.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("server shutdown failed", "error", err)
		return err
	}
	sugar.Info("server stopped")
	return nil
}

func migrateCommand() *cli.Command {
	withDB := func(ctx context.Context, c *cli.Command, fn func(*gorm.DB) error) error {
		cfg, err := loadServerConfig(c)
		if err != nil {
			return err
		}
		db, err := openDatabase(ctx, cfg, nil)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer func() { _ = sqlDB.Close() }()
		}
		return fn(db)
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Flags: dbFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDB(ctx, c, func(db *gorm.DB) error {
						if err := gormdb.RunMigrations(ctx, db); err != nil {
							return err
						}
						fmt.Println("migrations applied")
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "Show migration status",
				Flags: dbFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDB(ctx, c, func(db *gorm.DB) error {
						return gormdb.MigrationStatus(ctx, db)
					})
				},
			},
		},
	}
}
