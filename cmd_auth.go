package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"animehub-client/internal/render"
)

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Long: `Log in with email and password. The session cookie is saved in the
state store so later commands reuse it.

The password is read from --password, then ANIMEHUB_PASSWORD, then stdin.`,
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if password == "" {
				password = os.Getenv("ANIMEHUB_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			if err := a.client.Login(ctx, email, password); err != nil {
				return err
			}
			user, err := a.me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.DisplayName())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the last open chat",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if err := a.client.Logout(ctx); err != nil {
				return err
			}
			if err := a.pending.Clear(ctx); err != nil {
				a.logger.Warn("clear pending chat failed", zap.Error(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			res, err := a.client.Check(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.LoggedIn {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			u := res.User
			fmt.Fprintf(out, "%s (%s)\n", u.DisplayName(), u.ID)
			if u.Email != "" {
				fmt.Fprintf(out, "Email:  %s\n", u.Email)
			}
			fmt.Fprintf(out, "Avatar: %s\n", render.AvatarURL(a.client.Origin(), u.ProfilePicture, u.Avatar, u.DisplayName()))
			return nil
		}),
	}
}
