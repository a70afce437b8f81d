package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"animehub-client/internal/models"
	"animehub-client/internal/review"
)

var (
	cardTitle = lipgloss.NewStyle().Bold(true)
	cardMuted = lipgloss.NewStyle().Faint(true)
)

type reviewListFlags struct {
	text      string
	minRating int
	sort      string
	expand    bool
	full      []string
	watch     time.Duration
}

func (f reviewListFlags) query() review.Query {
	return review.Query{Text: f.text, MinRating: f.minRating, Sort: review.ParseSort(f.sort)}
}

// expander marks the --full reviews as expanded on feed and reports the
// expanded state each card is printed with.
func (f reviewListFlags) expander(feed *review.Feed) func(models.ID) bool {
	for _, id := range f.full {
		if !feed.Expanded(models.ID(id)) {
			feed.Toggle(models.ID(id))
		}
	}
	return func(id models.ID) bool {
		return f.expand || feed.Expanded(id)
	}
}

func newReviewsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Browse and manage anime reviews",
	}
	cmd.AddCommand(
		newReviewsListCmd(flags),
		newReviewsMineCmd(flags),
		newReviewsCreateCmd(flags),
		newReviewsUpdateCmd(flags),
		newReviewsDeleteCmd(flags),
	)
	return cmd
}

func addListFlags(cmd *cobra.Command, lf *reviewListFlags) {
	cmd.Flags().StringVarP(&lf.text, "search", "s", "", "filter by title, text or author")
	cmd.Flags().IntVar(&lf.minRating, "min-rating", 0, "hide reviews rated below this")
	cmd.Flags().StringVar(&lf.sort, "sort", string(review.SortNewest), "newest, oldest, rating-high or rating-low")
	cmd.Flags().BoolVar(&lf.expand, "expand", false, "show full text of every review")
	cmd.Flags().StringSliceVar(&lf.full, "full", nil, "show full text of these review ids")
}

func newReviewsListCmd(flags *globalFlags) *cobra.Command {
	var lf reviewListFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every review",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			feed := review.NewFeed(a.client, review.WithLogger(a.logger))
			expanded := lf.expander(feed)
			out := cmd.OutOrStdout()

			if lf.watch <= 0 {
				reviews, err := feed.All(ctx)
				if err != nil {
					return err
				}
				printReviews(out, review.Filter(reviews, lf.query()), expanded, a.client.Origin())
				return nil
			}

			err := feed.Watch(ctx, lf.watch, func(reviews []models.Review, err error) {
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "refresh failed:", err)
					return
				}
				fmt.Fprintf(out, "--- %s ---\n", time.Now().Format(time.Kitchen))
				printReviews(out, review.Filter(reviews, lf.query()), expanded, a.client.Origin())
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}),
	}
	addListFlags(cmd, &lf)
	cmd.Flags().DurationVar(&lf.watch, "watch", 0, "refresh every interval until interrupted, e.g. 5m")
	return cmd
}

func newReviewsMineCmd(flags *globalFlags) *cobra.Command {
	var lf reviewListFlags
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your reviews",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			feed := review.NewFeed(a.client, review.WithLogger(a.logger))
			reviews, err := feed.Mine(ctx)
			if err != nil {
				return err
			}
			printReviews(cmd.OutOrStdout(), review.Filter(reviews, lf.query()), lf.expander(feed), a.client.Origin())
			return nil
		}),
	}
	addListFlags(cmd, &lf)
	return cmd
}

type draftFlags struct {
	title  string
	text   string
	rating int
	image  string
}

func addDraftFlags(cmd *cobra.Command, df *draftFlags) {
	cmd.Flags().StringVarP(&df.title, "title", "t", "", "anime title")
	cmd.Flags().StringVar(&df.text, "text", "", "review text")
	cmd.Flags().IntVarP(&df.rating, "rating", "r", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&df.image, "image", "", "cover image file")
}

func (df draftFlags) draft() (models.ReviewDraft, error) {
	d := models.ReviewDraft{AnimeTitle: df.title, ReviewText: df.text, Rating: df.rating}
	if df.image != "" {
		att, err := readAttachment(df.image)
		if err != nil {
			return d, err
		}
		d.Image = att
	}
	return d, nil
}

func (a *app) reviewFeed(ctx context.Context) (*review.Feed, error) {
	me, err := a.me(ctx)
	if err != nil {
		return nil, err
	}
	return review.NewFeed(a.client, review.WithLogger(a.logger), review.WithActivity(a.activity, me.ID)), nil
}

func newReviewsCreateCmd(flags *globalFlags) *cobra.Command {
	var df draftFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a review",
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			draft, err := df.draft()
			if err != nil {
				return err
			}
			if _, err := review.Validate(draft); err != nil {
				return err
			}
			feed, err := a.reviewFeed(ctx)
			if err != nil {
				return err
			}
			created, err := feed.Create(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted review %s\n", created.ID)
			return nil
		}),
	}
	addDraftFlags(cmd, &df)
	return cmd
}

func newReviewsUpdateCmd(flags *globalFlags) *cobra.Command {
	var df draftFlags
	cmd := &cobra.Command{
		Use:   "update <review-id>",
		Short: "Edit one of your reviews",
		Long:  "Edit one of your reviews. Fields left unset keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			id := models.ID(args[0])
			feed, err := a.reviewFeed(ctx)
			if err != nil {
				return err
			}
			mine, err := feed.Mine(ctx)
			if err != nil {
				return err
			}
			var current *models.Review
			for i := range mine {
				if models.SameID(mine[i].ID, id) {
					current = &mine[i]
					break
				}
			}
			if current == nil {
				return fmt.Errorf("review %s not found among your reviews", id)
			}

			if df.title == "" {
				df.title = current.AnimeTitle
			}
			if df.text == "" {
				df.text = current.ReviewText
			}
			if df.rating == 0 {
				df.rating = current.Rating
			}
			draft, err := df.draft()
			if err != nil {
				return err
			}
			updated, err := feed.Update(ctx, id, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated review %s\n", updated.ID)
			return nil
		}),
	}
	addDraftFlags(cmd, &df)
	return cmd
}

func newReviewsDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			feed, err := a.reviewFeed(ctx)
			if err != nil {
				return err
			}
			if err := feed.Delete(ctx, models.ID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Review deleted")
			return nil
		}),
	}
}

func printReviews(w io.Writer, reviews []models.Review, expanded func(models.ID) bool, origin string) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "No reviews found")
		return
	}
	for _, r := range reviews {
		open := expanded(r.ID)
		c := review.NewCard(r, open, origin)
		fmt.Fprintf(w, "%s  %s %s\n", cardTitle.Render(c.Title), c.Stars, c.Rating)
		meta := "by " + c.Author
		if c.Date != "" {
			meta += " on " + c.Date
		}
		fmt.Fprintf(w, "%s  [%s]\n", cardMuted.Render(meta), c.ID)
		fmt.Fprintln(w, c.Text)
		if c.CanToggle && !open {
			fmt.Fprintln(w, cardMuted.Render("("+c.ToggleLabel+": rerun with --full "+c.ID.String()+")"))
		}
		if c.ImageURL != "" {
			fmt.Fprintln(w, cardMuted.Render(c.ImageURL))
		}
		fmt.Fprintln(w)
	}
}
