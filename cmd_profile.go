package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"animehub-client/internal/models"
	"animehub-client/internal/profile"
)

func newProfileCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		RunE:  runProfileShow(flags),
	}
	cmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Show your profile", RunE: runProfileShow(flags)},
		newProfileUpdateCmd(flags),
		newProfileUploadCmd(flags),
		newProfileDeletePicCmd(flags),
	)
	return cmd
}

func (a *app) profileService() *profile.Service {
	return profile.NewService(a.client, profile.WithLogger(a.logger), profile.WithActivity(a.activity))
}

func runProfileShow(flags *globalFlags) func(*cobra.Command, []string) error {
	return withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
		p, err := a.profileService().Load(ctx)
		if err != nil {
			return err
		}
		v := profile.NewView(p, a.client.Origin())

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cardTitle.Render(v.Welcome))
		fmt.Fprintf(out, "Username: %s\n", v.Username)
		fmt.Fprintf(out, "Email:    %s\n", v.Email)
		fmt.Fprintf(out, "Picture:  %s\n", v.PictureURL)
		if v.Joined != "" {
			fmt.Fprintf(out, "Joined:   %s\n", v.Joined)
		}
		fmt.Fprintf(out, "Reviews:  %d\n", v.ReviewsPosted)
		return nil
	})
}

func newProfileUpdateCmd(flags *globalFlags) *cobra.Command {
	var username, email, picture string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change username and email, optionally uploading a picture",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			svc := a.profileService()
			if username == "" || email == "" {
				current, err := svc.Load(ctx)
				if err != nil {
					return err
				}
				if username == "" {
					username = current.Username
				}
				if email == "" {
					email = current.Email
				}
			}

			var att *models.Attachment
			if picture != "" {
				f, err := readAttachment(picture)
				if err != nil {
					return err
				}
				att = f
			}
			p, err := svc.Update(ctx, username, email, att)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s <%s>\n", p.Username, p.Email)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "new username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "new email")
	cmd.Flags().StringVar(&picture, "picture", "", "profile picture file")
	return cmd
}

func newProfileUploadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-pic <path>",
		Short: "Upload a new profile picture",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			att, err := readAttachment(args[0])
			if err != nil {
				return err
			}
			url, err := a.profileService().UploadPicture(ctx, *att)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Picture uploaded: %s\n", url)
			return nil
		}),
	}
}

func newProfileDeletePicCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-pic",
		Short: "Remove your profile picture",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if err := a.profileService().DeletePicture(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Picture removed")
			return nil
		}),
	}
}
