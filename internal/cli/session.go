package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-admin/internal/session"
)

func newLoginCommand(app func() *App) *cobra.Command {
	var token string
	var user session.User

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var profile *session.User
			if user != (session.User{}) {
				profile = &user
			}
			if err := app().sessions.Login(cmd.Context(), token, profile); err != nil {
				return err
			}
			fmt.Fprintln(app().out, "Logged in")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token issued by the backend")
	cmd.Flags().StringVar(&user.ID, "user-id", "", "id of the logged in user")
	cmd.Flags().StringVar(&user.Name, "name", "", "display name of the logged in user")
	cmd.Flags().StringVar(&user.Email, "email", "", "email of the logged in user")
	cmd.Flags().StringVar(&user.Role, "role", "", "role of the logged in user")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app().sessions.Teardown(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app().out, "Logged out")
			return nil
		},
	}
}

type whoami struct {
	User      *session.User `json:"user,omitempty"`
	Subject   string        `json:"subject,omitempty"`
	Role      string        `json:"role,omitempty"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

func newWhoamiCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx := cmd.Context()
			if _, err := a.sessions.Token(ctx); err != nil {
				return err
			}
			user, err := a.sessions.User(ctx)
			if err != nil {
				return err
			}
			out := whoami{User: user}
			claims, ok, err := a.sessions.Claims(ctx)
			if err != nil {
				return err
			}
			if ok {
				out.Subject = claims.Subject
				out.Role = claims.Role
				out.ExpiresAt = claims.ExpiresAt
			}
			return a.print(out)
		},
	}
}
