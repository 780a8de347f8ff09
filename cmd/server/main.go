package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	readme "github.com/readmecorp/readme-server"
	"github.com/readmecorp/readme-server/catalog"
	"github.com/readmecorp/readme-server/cmd/server/config"
	"github.com/readmecorp/readme-server/middleware/jwtware"
	"github.com/readmecorp/readme-server/provider/bootpay"
	"github.com/readmecorp/readme-server/provider/firebase"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("readme"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.AppConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println(print.MaybeHighlightJSON(cfg.Raw().Server))

	if err := run(ctx, cfg.Raw(), lgr); err != nil {
		lgr.GetLogger("server").Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, lgr *glog.BaseLogger) error {
	bunDB, err := openDatabase(ctx, cfg.Persistence)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	repo := readme.NewRepositoryManager(bunDB)

	tokens := readme.NewTokenService(
		[]byte(cfg.Auth.GetSigningKey()),
		cfg.Auth.GetTokenExpiration(),
		cfg.Auth.GetIssuer(),
		cfg.Auth.GetAudience(),
		lgr.GetLogger("tokens"),
	)

	verifier, err := firebase.NewTokenVerifier(ctx, firebase.DefaultConfig(cfg.Firebase.ProjectID))
	if err != nil {
		return err
	}

	gateway, err := bootpay.NewClient(bootpay.Config{
		BaseURL:       cfg.Bootpay.BaseURL,
		ApplicationID: cfg.Bootpay.ApplicationID,
		PrivateKey:    cfg.Bootpay.PrivateKey,
	})
	if err != nil {
		return err
	}

	bridge := readme.NewIdentityBridge(verifier, repo, tokens).
		WithLogger(lgr.GetLogger("bridge"))

	ledger := readme.NewPaymentLedger(repo, catalog.NewBookStore(bunDB)).
		WithLogger(lgr.GetLogger("ledger"))

	membership := readme.NewMembershipLifecycle(repo, catalog.NewMembershipStore(bunDB), gateway).
		WithLogger(lgr.GetLogger("membership"))

	sessions := readme.NewSessionController(bridge).
		WithLogger(lgr.GetLogger("sessions"))

	payments := readme.NewPaymentController(repo, ledger, membership, cfg.Auth.GetContextKey()).
		WithLogger(lgr.GetLogger("payments"))

	authware := jwtware.New(jwtware.Config{
		TokenValidator: tokenValidatorAdapter{svc: tokens},
		ContextKey:     cfg.Auth.GetContextKey(),
		TokenLookup:    cfg.Auth.GetTokenLookup(),
		AuthScheme:     cfg.Auth.GetAuthScheme(),
	})

	app := fiber.New(fiber.Config{
		AppName:               "readme-server",
		DisableStartupMessage: false,
	})

	readme.RegisterRoutes(app, sessions, payments, authware)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Server.GetAddress())
	}()

	srvLogger := lgr.GetLogger("server")
	srvLogger.Info("server listening", "address", cfg.Server.GetAddress())

	select {
	case err := <-errCh:
		return err
	case sig := <-waitExitSignal():
		srvLogger.Info("shutting down", "signal", sig.String())
		return app.ShutdownWithTimeout(cfg.Server.GetShutdownTimeout())
	}
}

func openDatabase(ctx context.Context, cfg config.Persistence) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	bunDB := bun.NewDB(db, sqlitedialect.New())

	models := []any{
		(*readme.User)(nil),
		(*readme.Book)(nil),
		(*readme.Membership)(nil),
		(*readme.BookPayment)(nil),
		(*readme.MembershipPayment)(nil),
		(*readme.PaymentNumber)(nil),
	}

	for _, model := range models {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := bunDB.PingContext(pingCtx); err != nil {
		return nil, err
	}

	return bunDB, nil
}

// tokenValidatorAdapter narrows the token service's claims to the interface
// the middleware consumes.
type tokenValidatorAdapter struct {
	svc readme.TokenValidator
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.svc.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func waitExitSignal() chan os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return ch
}
