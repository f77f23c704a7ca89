package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fable/internal/adventure"
	"fable/internal/profile"
	"fable/internal/story"
)

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fable",
		Short: "Children's story generator",
		Long: `fable generates illustrated, narrated children's stories and
interactive choose-your-own adventures, and keeps a local library of
built-in and generated stories.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newReadCommand())
	rootCmd.AddCommand(newContinueCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newBackfillCommand())
	rootCmd.AddCommand(newRegenerateCommand())
	rootCmd.AddCommand(newFavoriteCommand())

	return rootCmd
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newGenerateCommand() *cobra.Command {
	var (
		language    string
		ageGroup    string
		category    string
		length      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a new story",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			gen, err := a.generator()
			if err != nil {
				return err
			}
			// Catalog assets fill in alongside the generation call;
			// unfinished work resumes on the next run.
			a.maybeBackfill(ctx)

			req := story.GenerationRequest{
				Prompt:      strings.Join(args, " "),
				Language:    story.Language(language),
				AgeGroup:    story.AgeGroup(ageGroup),
				Category:    story.Category(category),
				Length:      story.Length(length),
				Interactive: interactive,
			}
			if req.Language == "" {
				req.Language = a.cfg.DefaultLanguage()
			}

			st, err := gen.Generate(ctx, req)
			if err != nil {
				return err
			}

			if err := a.repo.Save(ctx, st); err != nil {
				// The story exists in memory for this session even when
				// persistence failed.
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}

			printStory(cmd, st)
			if st.Interactive {
				fmt.Fprintf(cmd.OutOrStdout(), "\nContinue with: fable continue %s <choice number>\n", st.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Story language (en, tr)")
	cmd.Flags().StringVarP(&ageGroup, "age", "a", string(story.AgeGroupToddler), "Age group (1-3, 3-5, 6-9, 10+)")
	cmd.Flags().StringVarP(&category, "category", "c", string(story.CategoryFantasy), "Category (adventure, fantasy, animals, bedtime, folk)")
	cmd.Flags().StringVar(&length, "length", string(story.LengthMedium), "Length (short, medium, long)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Generate an interactive adventure")
	return cmd
}

func newListCommand() *cobra.Command {
	var (
		mine      bool
		favorites bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the story library",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			view := a.repo.All()
			switch {
			case mine:
				view = profile.MyStories(view)
			case favorites:
				view = a.profile.FavoriteStories(view)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tAGE\tLANG\tKIND")
			for _, st := range view {
				kind := "catalog"
				if st.Generated() {
					kind = "generated"
				}
				if st.Interactive {
					kind += ", interactive"
				}
				if a.profile.IsFavorite(st.ID) {
					kind += ", favorite"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.ID, st.Title, st.AgeGroup, st.Language, kind)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Only generated stories")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "Only favorite stories")
	return cmd
}

func newReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <story-id>",
		Short: "Print a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			st, ok := a.repo.Get(args[0])
			if !ok {
				return fmt.Errorf("no story with id %s", args[0])
			}

			printStory(cmd, st)
			if err := a.profile.MarkRead(); err != nil {
				a.logger.Warn("could not update reading counter: %v", err)
			}
			return nil
		},
	}
}

func newContinueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "continue <story-id> <choice-number>",
		Short: "Continue an interactive story",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			st, ok := a.repo.Get(args[0])
			if !ok {
				return fmt.Errorf("no story with id %s", args[0])
			}

			if !st.Interactive {
				return fmt.Errorf("%s is not an interactive story", st.ID)
			}
			if st.Concluded() {
				return fmt.Errorf("%s has already concluded", st.ID)
			}

			pick, err := strconv.Atoi(args[1])
			if err != nil || pick < 1 || pick > len(st.Choices) {
				return fmt.Errorf("choice must be a number between 1 and %d", len(st.Choices))
			}

			eng, err := a.engine()
			if err != nil {
				return err
			}
			a.maybeBackfill(ctx)

			turns := a.ledger.Turns(st.ID)
			result, err := eng.Continue(ctx, st, turns, st.Choices[pick-1].Text)
			if err != nil {
				return err
			}

			next := st.Clone()
			adventure.Apply(next, result)
			if err := a.repo.Save(ctx, next); err != nil {
				return err
			}
			if err := a.ledger.Record(next.ID, turns+1); err != nil {
				a.logger.Warn("could not record turn count: %v", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Segment)
			if result.Concluded {
				fmt.Fprintln(cmd.OutOrStdout(), "\nThe End.")
				return nil
			}
			printChoices(cmd, next.Choices)
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <story-id>",
		Short: "Delete a generated story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			id := args[0]
			if err := a.repo.Delete(ctx, id); err != nil {
				return err
			}
			if err := a.profile.RemoveFavorite(id); err != nil {
				a.logger.Warn("could not update favorites: %v", err)
			}
			if err := a.ledger.Forget(id); err != nil {
				a.logger.Warn("could not update turn ledger: %v", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func newBackfillCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Generate missing assets for catalog stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			bf, err := a.backfiller()
			if err != nil {
				return err
			}
			updated, err := bf.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d stories\n", updated)
			return nil
		},
	}
}

func newRegenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <story-id>",
		Short: "Render a fresh cover image for a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			st, ok := a.repo.Get(args[0])
			if !ok {
				return fmt.Errorf("no story with id %s", args[0])
			}

			gen, err := a.generator()
			if err != nil {
				return err
			}

			cover := gen.Assets().RegenerateCover(ctx, st.Title, st.AgeGroup)
			if cover == "" {
				return fmt.Errorf("could not render a new cover for %s", st.ID)
			}

			next := st.Clone()
			next.CoverImage = cover
			if err := a.repo.Save(ctx, next); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Regenerated cover for %s\n", st.ID)
			return nil
		},
	}
}

func newFavoriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <story-id>",
		Short: "Toggle a story's favorite mark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			id := args[0]
			if _, ok := a.repo.Get(id); !ok {
				return fmt.Errorf("no story with id %s", id)
			}

			on, err := a.profile.ToggleFavorite(id)
			if err != nil {
				return err
			}
			if on {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", id)
			}
			return nil
		},
	}
}

func printStory(cmd *cobra.Command, st *story.Story) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n\n", st.Title, strings.Repeat("=", len(st.Title)))
	fmt.Fprintln(out, st.Content)

	if st.WordOfTheDay != nil {
		fmt.Fprintf(out, "\nWord of the day: %s - %s\n", st.WordOfTheDay.Word, st.WordOfTheDay.Definition)
		if st.WordOfTheDay.Example != "" {
			fmt.Fprintf(out, "  %q\n", st.WordOfTheDay.Example)
		}
	}

	var assets []string
	if st.CoverImage != "" {
		assets = append(assets, "cover")
	}
	if st.AudioData != "" {
		assets = append(assets, "narration")
	}
	if st.ColoringPage != "" {
		assets = append(assets, "coloring page")
	}
	if st.UserRecording != "" {
		assets = append(assets, "your recording")
	}
	if len(assets) > 0 {
		fmt.Fprintf(out, "\nAssets: %s\n", strings.Join(assets, ", "))
	}

	if st.Interactive && !st.Concluded() {
		printChoices(cmd, st.Choices)
	}
}

func printChoices(cmd *cobra.Command, choices []story.Option) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nWhat happens next?")
	for i, choice := range choices {
		fmt.Fprintf(out, "  %d. %s\n", i+1, choice.Text)
	}
}
