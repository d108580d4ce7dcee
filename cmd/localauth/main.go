// Command localauth manages users of a local credential store and serves
// a login endpoint backed by it.
//
//	localauth useradd -config localauth.yaml -username alice -password s3cret
//	localauth verify  -config localauth.yaml -username alice -password s3cret
//	localauth serve   -config localauth.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun/extra/bundebug"

	local "github.com/goliatone/go-auth-local"
	"github.com/goliatone/go-auth-local/activitymap"
	"github.com/goliatone/go-auth-local/internal/config"
	"github.com/goliatone/go-auth-local/middleware/localware"
)

const usage = `usage: localauth <command> [flags]

commands:
  useradd   create a user
  verify    check a username and password
  serve     run the login endpoint
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "localauth: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command", errors.CategoryBadInput)
	}

	switch args[0] {
	case "useradd":
		return runUserAdd(ctx, args[1:], stdout, stderr)
	case "verify":
		return runVerify(ctx, args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return errors.New("unknown command", errors.CategoryBadInput).
			WithMetadata(map[string]any{"command": args[0]})
	}
}

type credentialFlags struct {
	configPath string
	username   string
	password   string
}

func parseCredentialFlags(name string, args []string, stderr io.Writer) (credentialFlags, error) {
	var f credentialFlags

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.username, "username", "", "user name")
	fs.StringVar(&f.password, "password", "", "password")

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

func runUserAdd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseCredentialFlags("useradd", args, stderr)
	if err != nil {
		return err
	}

	strategy, closeDB, err := setup(ctx, f.configPath, stderr)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := strategy.CreateUser(ctx, f.username, f.password)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, print.MaybePrettyJSON(map[string]any{
		"created":  true,
		"username": user.Username,
	}))
	return nil
}

func runVerify(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseCredentialFlags("verify", args, stderr)
	if err != nil {
		return err
	}

	strategy, closeDB, err := setup(ctx, f.configPath, stderr)
	if err != nil {
		return err
	}
	defer closeDB()

	cfg := strategy.Config()
	body := map[string]any{}
	setField(body, cfg.UsernameField, f.username)
	setField(body, cfg.PasswordField, f.password)

	outcome := strategy.Evaluate(ctx, local.NewRequest(body, nil))

	res := map[string]any{"outcome": outcome.Kind}
	switch outcome.Kind {
	case local.OutcomeSuccess:
		res["username"] = outcome.User.Username
	case local.OutcomeFail:
		res["message"] = outcome.Info.Message
	default:
		res["error"] = outcome.Err.Error()
	}
	fmt.Fprintln(stdout, print.MaybePrettyJSON(res))

	if outcome.Kind == local.OutcomeError {
		return outcome.Err
	}
	return nil
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	var configPath string

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&configPath, "config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	strategy, closeDB, err := newStrategy(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer closeDB()

	app := newApp(cfg, strategy)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return app.ShutdownWithContext(context.Background())
	}
}

func newApp(cfg *config.Config, strategy *local.Strategy) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
	})

	registry := local.NewRegistry().UseAs(cfg.Strategy.Name, strategy)

	var opts []local.AuthenticateOption
	if cfg.Strategy.BadRequestMessage != "" {
		opts = append(opts, local.WithBadRequestMessage(cfg.Strategy.BadRequestMessage))
	}

	login := localware.New(localware.Config{
		Registry:            registry,
		StrategyName:        cfg.Strategy.Name,
		AuthenticateOptions: opts,
		SuccessRedirect:     cfg.HTTP.SuccessRedirect,
		FailureRedirect:     cfg.HTTP.FailureRedirect,
	})

	app.Post(cfg.HTTP.LoginPath, login, func(c *fiber.Ctx) error {
		user, _ := localware.CurrentUser(c)
		return c.JSON(fiber.Map{
			"success":  true,
			"username": user.Username,
		})
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app
}

func setup(ctx context.Context, configPath string, stderr io.Writer) (*local.Strategy, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return newStrategy(ctx, cfg, stderr)
}

func newStrategy(ctx context.Context, cfg *config.Config, stderr io.Writer) (*local.Strategy, func(), error) {
	db, err := local.OpenSQLite(cfg.Database.DSN)
	if err != nil {
		return nil, nil, local.NewStoreError(err, "open")
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.WithWriter(stderr),
		))
	}

	closeDB := func() { _ = db.Close() }

	strategyCfg := cfg.StrategyConfig()
	strategyCfg.Connection = db

	opts := []local.Option{local.WithName(cfg.Strategy.Name)}
	if cfg.Debug {
		opts = append(opts, local.WithActivitySink(activitymap.Sink(func(n activitymap.Normalized) error {
			_, err := fmt.Fprintln(stderr, print.MaybePrettyJSON(n))
			return err
		})))
	} else {
		opts = append(opts, local.WithLogger(quietLogger{local.DefaultLogger()}))
	}

	strategy, err := local.New(ctx, strategyCfg, opts...)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	return strategy, closeDB, nil
}

// setField writes value at a bracket path such as "user[name]"
func setField(body map[string]any, field, value string) {
	for k, v := range local.ParseFormValues(url.Values{field: {value}}) {
		merge(body, k, v)
	}
}

func merge(dst map[string]any, key string, value any) {
	existing, ok := dst[key].(map[string]any)
	incoming, isMap := value.(map[string]any)
	if !ok || !isMap {
		dst[key] = value
		return
	}
	for k, v := range incoming {
		merge(existing, k, v)
	}
}

// quietLogger drops debug and info lines
type quietLogger struct {
	local.Logger
}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
