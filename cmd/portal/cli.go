package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/authportal/authportal-go/internal/config"
	"github.com/authportal/authportal-go/internal/form"
	"github.com/authportal/authportal-go/internal/model"
	"github.com/authportal/authportal-go/internal/notify"
	"github.com/authportal/authportal-go/internal/repository"
	"github.com/authportal/authportal-go/internal/service"
	"github.com/authportal/authportal-go/internal/validation"
)

const cliClientID = "cli"

func newCLIService(stderr io.Writer) (*service.AuthService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(stderr, cfg)
	return service.NewAuthService(
		newAPI(cfg, log),
		repository.NewMemorySessionRepository(),
		notify.Direct{Notifier: notify.NewWriter(stderr)},
		service.Options{SessionTTL: cfg.SessionTTL, TokenSecret: cfg.TokenSecret, Logger: log},
	), nil
}

func newLoginCmd(stdout, stderr io.Writer) *cobra.Command {
	var in model.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in against the auth API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("PORTAL_PASSWORD")
			}
			svc, err := newCLIService(stderr)
			if err != nil {
				return err
			}
			out := svc.Login(cmd.Context(), cliClientID, in)
			return report(stdout, stderr, out.Status, out.Errors, out.Result)
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password (default $PORTAL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(stdout, stderr io.Writer) *cobra.Command {
	var in model.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with the auth API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("PORTAL_PASSWORD")
			}
			if in.ConfirmPassword == "" {
				in.ConfirmPassword = os.Getenv("PORTAL_CONFIRM_PASSWORD")
			}
			if in.ConfirmPassword == "" {
				in.ConfirmPassword = in.Password
			}
			svc, err := newCLIService(stderr)
			if err != nil {
				return err
			}
			out := svc.Register(cmd.Context(), cliClientID, in)
			var result any = out.Result
			if len(out.Result.Raw) > 0 {
				result = out.Result.Raw
			}
			return report(stdout, stderr, out.Status, out.Errors, result)
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password (default $PORTAL_PASSWORD)")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm-password", "", "password confirmation (default $PORTAL_CONFIRM_PASSWORD, then the password)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// report prints field errors or the result. Notifications were already
// written to stderr by the pipeline.
func report(stdout, stderr io.Writer, status form.Status, errs validation.FieldErrors, result any) error {
	switch status {
	case form.StatusSucceeded:
		data, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	case form.StatusInvalid:
		for _, field := range errs.Fields() {
			for _, msg := range errs[field] {
				fmt.Fprintf(stderr, "%s: %s\n", field, msg)
			}
		}
	}
	return errFailed
}
