package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"animehub-client/internal/chat"
	"animehub-client/internal/models"
	"animehub-client/internal/render"
	"animehub-client/internal/search"
	"animehub-client/internal/tui"
)

func newChatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List your conversations",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			me, err := a.me(ctx)
			if err != nil {
				return err
			}
			inbox := chat.NewInbox(a.client, a.newController(me, newOfflinePush()), a.client.Origin())
			entries, err := inbox.Load(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, render.NoChatsText)
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-20s %s\n", e.Chat.ID, e.Name, e.Preview)
			}
			return nil
		}),
	}
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find users to chat with",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if utf8.RuneCountInString(query) < search.MinQueryLen {
				return fmt.Errorf("query must be at least %d characters", search.MinQueryLen)
			}
			me, err := a.me(ctx)
			if err != nil {
				return err
			}
			users, err := a.client.SearchUsers(ctx, query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			found := 0
			for _, u := range users {
				if models.SameID(u.ID, me.ID) {
					continue
				}
				found++
				fmt.Fprintf(out, "%s  %s\n", u.ID, u.DisplayName())
			}
			if found == 0 {
				fmt.Fprintln(out, "No users found")
			}
			return nil
		}),
	}
}

func newSendCmd(flags *globalFlags) *cobra.Command {
	var chatID, userID, imagePath string

	cmd := &cobra.Command{
		Use:   "send [text...]",
		Short: "Send a message",
		Long: `Send a message to a chat (--chat), to a user (--user, starting the chat
if needed) or, with neither flag, to the last chat opened.`,
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			text := strings.Join(args, " ")
			var image *models.Attachment
			if imagePath != "" {
				att, err := readAttachment(imagePath)
				if err != nil {
					return err
				}
				image = att
			}
			if strings.TrimSpace(text) == "" && image == nil {
				return chat.ErrEmptyMessage
			}

			me, err := a.me(ctx)
			if err != nil {
				return err
			}
			push := a.dialPush(ctx)
			defer push.Close()

			ctrl := a.newController(me, push)
			inbox := chat.NewInbox(a.client, ctrl, a.client.Origin())

			switch {
			case userID != "":
				err = inbox.Start(ctx, models.User{ID: models.ID(userID)})
			case chatID != "":
				err = openChatByID(ctx, inbox, models.ID(chatID))
			default:
				var ok bool
				ok, err = ctrl.RestorePendingChat(ctx)
				if err == nil && !ok {
					err = errors.New("no chat selected, pass --chat or --user")
				}
			}
			if err != nil {
				return err
			}

			if err := ctrl.Send(ctx, text, image); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent to %s\n", ctrl.Render().Title)
			return nil
		}),
	}
	cmd.Flags().StringVar(&chatID, "chat", "", "chat id")
	cmd.Flags().StringVar(&userID, "user", "", "user id to message")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file to attach")
	return cmd
}

func newDMCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dm",
		Short: "Open the interactive chat screen",
		RunE: withApp(flags, true, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			me, err := a.me(ctx)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			push := a.dialPush(ctx)
			defer push.Close()

			ctrl := a.newController(me, push)
			inbox := chat.NewInbox(a.client, ctrl, a.client.Origin())

			var program *tea.Program
			debouncer := search.NewDebouncer(a.client, me.ID,
				func(r search.Result) { go program.Send(tui.SearchMsg(r)) },
				search.WithQuiet(a.cfg.SearchDebounce),
				search.WithLogger(a.logger),
			)
			defer debouncer.Close()

			program = tea.NewProgram(tui.New(ctx, ctrl, inbox, debouncer),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			ctrl.SetView(func(p render.Pane) { program.Send(tui.PaneMsg(p)) })

			go func() {
				if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Warn("push loop stopped", zap.Error(err))
				}
			}()
			go func() {
				if _, err := ctrl.RestorePendingChat(ctx); err != nil {
					a.logger.Warn("restore last chat failed", zap.Error(err))
				}
			}()

			_, err = program.Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		}),
	}
}

func (a *app) newController(me models.User, push chat.PushChannel) *chat.Controller {
	return chat.NewController(a.client, push, a.pending, me,
		chat.WithLogger(a.logger),
		chat.WithOrigin(a.client.Origin()),
		chat.WithActivity(a.activity),
	)
}

func openChatByID(ctx context.Context, inbox *chat.Inbox, id models.ID) error {
	entries, err := inbox.Load(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if models.SameID(e.Chat.ID, id) {
			return inbox.OpenEntry(ctx, e)
		}
	}
	return fmt.Errorf("chat %s not found", id)
}

func readAttachment(path string) (*models.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	att := &models.Attachment{Filename: filepath.Base(path), Data: data}
	if err := att.Validate(); err != nil {
		return nil, err
	}
	return att, nil
}
