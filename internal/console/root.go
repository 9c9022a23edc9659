// Package console is the command-line client of the employee portal. It
// talks to the backend directly and keeps its session cookie in a jar that
// survives between invocations.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"employee-portal/internal/api"
	"employee-portal/internal/config"
	"employee-portal/internal/cookie"
	"employee-portal/internal/guard"
	"employee-portal/internal/jarstore"
	"employee-portal/internal/logging"
	"employee-portal/internal/models"
	"employee-portal/internal/session"
)

// app is everything a command needs. It is built once per invocation in
// the root command's PersistentPreRunE.
type app struct {
	cfg     config.ConsoleConfig
	logger  *slog.Logger
	backend jarstore.Backend
	session *session.State
	guard   *guard.Client
	api     *api.Client
}

type flags struct {
	configFile string
	backendURL string
	store      string
	database   string
	redisAddr  string
	debug      bool
	logLevel   string
	logFormat  string
}

// NewRootCmd creates the root cobra command for the portal console.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "portal",
		Short: "Employee portal console",
		Long:  "portal logs in to the employee backend and browses employees and customers from the terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, f)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", config.DefaultConsoleFile(), "Console config file (YAML)")
	pf.StringVar(&f.backendURL, "backend", "", "Backend base URL (or BACKEND_URL env)")
	pf.StringVar(&f.store, "store", "", "Session store: memory, sqlite or redis (or SESSION_STORE env)")
	pf.StringVar(&f.database, "database", "", "SQLite file for the session store (or DATABASE_PATH env)")
	pf.StringVar(&f.redisAddr, "redis-addr", "", "Redis address for the session store (or REDIS_ADDR env)")
	pf.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newOpenCmd(a),
		newEmployeesCmd(a),
		newEmployeeCmd(a),
		newCustomersCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, f *flags) error {
	cfg, err := config.LoadConsole(f.configFile)
	if err != nil {
		return err
	}
	applyFlags(&cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := jarstore.Open(ctx, cfg.JarStore(), a.logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.backend = backend

	jar, err := jarstore.Load(ctx, backend, cfg.SessionPersistKey, jarstore.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	a.session = session.New(cookie.NewStore(jar),
		session.WithCookieName(cfg.SessionCookie),
		session.WithLogger(a.logger),
	)

	a.guard, err = guard.NewClient(a.session, cfg.Routes(), guard.OnRedirect(func(from, to string) {
		a.logger.Debug("guard redirect", "from", from, "to", to)
	}))
	if err != nil {
		return err
	}
	a.api = api.New(cfg.BackendURL, cfg.BackendTimeout, api.WithLogger(a.logger))
	return nil
}

func applyFlags(cfg *config.ConsoleConfig, f *flags) {
	if f.backendURL != "" {
		cfg.BackendURL = f.backendURL
	}
	if f.store != "" {
		cfg.SessionStore = f.store
	}
	if f.database != "" {
		cfg.DatabasePath = f.database
	}
	if f.redisAddr != "" {
		cfg.RedisAddr = f.redisAddr
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if f.debug {
		cfg.LogLevel = "debug"
	}
}

func (a *app) close() error {
	if a.guard != nil {
		a.guard.Close()
		a.guard = nil
	}
	if a.backend != nil {
		err := a.backend.Close()
		a.backend = nil
		return err
	}
	return nil
}

// token returns the stored session token or an error telling the user to
// log in.
func (a *app) token() (string, error) {
	tok, ok := a.session.Token()
	if !ok {
		return "", errNotLoggedIn
	}
	return tok, nil
}

var errNotLoggedIn = errors.New("not logged in; run \"portal login\" first")

// backendError ends the stored session when the backend refused the token,
// the same way the portal server does.
func (a *app) backendError(op string, err error) error {
	if errors.Is(err, models.ErrUnauthorized) {
		if lerr := a.session.Logout(); lerr != nil {
			a.logger.Warn("stored session could not be cleared", "error", lerr)
		}
		return fmt.Errorf("%s: session expired; run \"portal login\" again", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Execute runs the console with args and always releases the session
// store, even when a command fails.
func Execute(ctx context.Context, args []string) error {
	a := &app{}
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
