package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/authportal/authportal-go/internal/apiclient"
	"github.com/authportal/authportal-go/internal/authapi"
	"github.com/authportal/authportal-go/internal/config"
)

const userAgent = "authportal-go"

// errFailed marks a command whose outcome was already reported to the user.
var errFailed = errors.New("command failed")

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			slog.Error("portal failed", "error", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Login and registration portal for the auth API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		newServeCmd(stderr),
		newLoginCmd(stdout, stderr),
		newRegisterCmd(stdout, stderr),
	)
	return root
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.APIDebug {
		opts.Level = slog.LevelDebug
	}
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newAPI(cfg config.Config, log *slog.Logger) *authapi.API {
	return authapi.New(apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		UserAgent: userAgent,
		Debug:     cfg.APIDebug,
	}, log))
}
