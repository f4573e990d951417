package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/spf13/cobra"
)

func (r *runtime) password(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("MOTHERAI_PASSWORD"); env != "" {
		return env, nil
	}
	return readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
}

func newLoginCommand(r *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted; MOTHERAI_PASSWORD also works)")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = r.run(func(cmd *cobra.Command, _ []string) error {
		pw, err := r.password(cmd, password)
		if err != nil {
			return err
		}
		u, err := r.app.Sessions.Login(cmd.Context(), email, pw)
		if err != nil {
			return err
		}
		r.out.success("Signed in as %s <%s>", u.Name, u.Email)
		if !u.IsApproved() {
			r.out.println("Your application is %s. Project features unlock once an administrator approves it.", r.out.status(string(u.Status)))
		}
		return nil
	})
	return cmd
}

func newLogoutCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, _ []string) error {
			if err := r.app.Sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			r.out.success("Signed out")
			return nil
		}),
	}
}

func newRegisterCommand(r *runtime) *cobra.Command {
	var req auth.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Apply for an account",
		Long: `Apply for an account. Applications are reviewed by an administrator;
you can sign in meanwhile but projects stay locked until approval.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters (prompted when omitted)")
	cmd.Flags().StringVar(&req.Purpose, "purpose", "", "What you plan to build, at least 20 characters")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("purpose")

	cmd.RunE = r.run(func(cmd *cobra.Command, _ []string) error {
		pw, err := r.password(cmd, req.Password)
		if err != nil {
			return err
		}
		req.Password = pw
		res, err := r.app.Sessions.Register(cmd.Context(), req)
		if err != nil {
			return err
		}
		msg := res.Message
		if msg == "" {
			msg = "Application submitted"
		}
		r.out.success("%s", msg)
		r.out.println("Application id: %s", r.out.style(idStyle, res.UserID))
		return nil
	})
	return cmd
}

func newWhoamiCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, _ []string) error {
			u := r.app.Sessions.CurrentUser(cmd.Context())
			if u == nil {
				return auth.ErrNotAuthenticated
			}
			r.out.println("%s <%s>", u.Name, u.Email)
			r.out.println("id:     %s", r.out.style(idStyle, u.ID))
			r.out.println("role:   %s", u.Role)
			r.out.println("status: %s", r.out.status(string(u.Status)))
			r.out.println("state:  %s", r.app.Sessions.State(cmd.Context()))
			return nil
		}),
	}
}

func newProfileCommand(r *runtime) *cobra.Command {
	var name, apiKey string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Long: `Without flags the profile is reloaded from the backend and shown.
With --name or --claude-api-key the given fields are saved.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&apiKey, "claude-api-key", "", "Personal Claude API key used for your requests")

	cmd.RunE = r.run(func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		var update auth.ProfileUpdate
		if cmd.Flags().Changed("name") {
			update.Name = &name
		}
		if cmd.Flags().Changed("claude-api-key") {
			update.ClaudeAPIKey = &apiKey
		}

		if update.Name == nil && update.ClaudeAPIKey == nil {
			u, err := r.app.Sessions.FetchProfile(ctx)
			if err != nil {
				return err
			}
			r.out.println("%s <%s>", u.Name, u.Email)
			r.out.println("role:    %s", u.Role)
			r.out.println("status:  %s", r.out.status(string(u.Status)))
			if u.CreatedAt != "" {
				r.out.println("joined:  %s", u.CreatedAt)
			}
			return nil
		}

		u, err := r.app.Sessions.UpdateProfile(ctx, update)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidInput) {
				return fmt.Errorf("profile not saved: %w", err)
			}
			return err
		}
		r.out.success("Profile saved for %s", u.Name)
		return nil
	})
	return cmd
}

func newUsageCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show your API usage for today and this month",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, _ []string) error {
			usage, err := r.app.Sessions.APIUsage(cmd.Context())
			if err != nil {
				return err
			}
			row := func(label string, s auth.UsageSummary) []string {
				return []string{
					label,
					strconv.FormatInt(s.Requests, 10),
					strconv.FormatInt(s.InputTokens, 10),
					strconv.FormatInt(s.OutputTokens, 10),
					fmt.Sprintf("$%.4f", s.Cost),
				}
			}
			r.out.table(
				[]string{"PERIOD", "REQUESTS", "INPUT TOKENS", "OUTPUT TOKENS", "COST"},
				[][]string{row("today", usage.Today), row("this month", usage.ThisMonth)},
			)
			return nil
		}),
	}
}
