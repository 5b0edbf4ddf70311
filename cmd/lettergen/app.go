package main

import (
	"bufio"
	"context"
	"github.com/myrjola/lettergen/internal/config"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/logging"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/repositories"
	"github.com/myrjola/lettergen/internal/sqlite"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const logFileName = "lettergen.log"

var errAdminOnly = errors.NewSentinel("only the admin account can do this")

// app holds what every command needs after configuration is loaded.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	logFile  *os.File
	db       *sqlite.Database
	officers *repositories.OfficerRepository
	cases    *repositories.CaseRepository
	notices  *repositories.NoticeRepository
}

func openApp(ctx context.Context, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(os.LookupEnv, ".env")
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	logFile, err := logging.OpenFile(cfg.LogDir, logFileName)
	if err != nil {
		return nil, err
	}
	logger := slog.New(logging.NewContextHandler(logging.Tee{
		slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)}),
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}))

	if !strings.Contains(cfg.SQLiteURL, ":memory:") {
		if err = os.MkdirAll(filepath.Dir(cfg.SQLiteURL), 0o750); err != nil {
			_ = logFile.Close()
			return nil, errors.Wrap(err, "create database folder", slog.String("url", cfg.SQLiteURL))
		}
	}
	db, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, sqlite.Options{
		BusyTimeout:   cfg.BusyTimeout(),
		AdminPassword: cfg.AdminPassword,
	}, logger)
	if err != nil {
		_ = logFile.Close()
		return nil, errors.Wrap(err, "open database", slog.String("url", cfg.SQLiteURL))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		logFile:  logFile,
		db:       db,
		officers: repositories.NewOfficerRepository(db, logger),
		cases:    repositories.NewCaseRepository(db, logger),
		notices:  repositories.NewNoticeRepository(db, logger),
	}, nil
}

func (a *app) close(ctx context.Context) error {
	return errors.Join(
		errors.Wrap(a.db.Close(ctx), "close database"),
		errors.Wrap(a.logFile.Close(), "close log file"),
	)
}

type commandFunc func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error

// run opens the app around fn and closes it afterwards.
func run(fn commandFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, a.close(ctx))
		}()

		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))
		if err = fn(ctx, a, cmd, args); err != nil {
			a.logger.LogAttrs(ctx, slog.LevelInfo, "command failed", errors.SlogError(err))
			return err
		}
		return nil
	}
}

// authenticate logs in with the --user and --password flags, falling back to LETTERGEN_USER and LETTERGEN_PASSWORD.
// Without a password one line is read from stdin.
func (a *app) authenticate(ctx context.Context, cmd *cobra.Command) (models.Officer, error) {
	username, _ := cmd.Flags().GetString("user")
	if username == "" {
		username = os.Getenv("LETTERGEN_USER")
	}
	if username == "" {
		return models.Officer{}, errors.New("--user is required")
	}
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("LETTERGEN_PASSWORD")
	}
	if password == "" {
		var err error
		if password, err = readLine(cmd); err != nil {
			return models.Officer{}, err
		}
	}

	officer, err := a.officers.Authenticate(ctx, username, password)
	if err != nil {
		return models.Officer{}, err
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "logged in", slog.String("username", officer.Username))
	return officer, nil
}

func (a *app) requireAdmin(ctx context.Context, cmd *cobra.Command) (models.Officer, error) {
	officer, err := a.authenticate(ctx, cmd)
	if err != nil {
		return models.Officer{}, err
	}
	if officer.Username != repositories.ProtectedUsername {
		return models.Officer{}, errors.Wrap(errAdminOnly, "check role", slog.String("username", officer.Username))
	}
	return officer, nil
}

func readLine(cmd *cobra.Command) (string, error) {
	_, _ = io.WriteString(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
