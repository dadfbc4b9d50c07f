package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/index"
	"github.com/poiesic/cookbook/ingestion"
	"github.com/poiesic/cookbook/reindex"
	"github.com/poiesic/cookbook/search"
	"github.com/poiesic/cookbook/storage"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Fetch recipe pages and add them to the cookbook",
		ArgsUsage: "URL [URL...]",
		Action:    ingestAction,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Requester id recorded as owner",
				Value:   1,
				EnvVars: []string{"COOKBOOK_USER_ID"},
			},
			&cli.Int64Flag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Group id recorded with the recipe (0 for none)",
			},
		},
	}
}

func ingestAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one URL is required")
	}

	cb, err := openCookbook(c, nil)
	if err != nil {
		return err
	}
	defer cb.Close()

	pipeline, err := cb.NewPipeline(nil)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	out := c.App.Writer
	ingestor, err := cb.NewIngestor(pipeline, ingestion.WithNotifier(
		ingestion.NotifierFunc(func(ctx context.Context, n ingestion.Notification) error {
			_, err := fmt.Fprintln(out, n.Text)
			return err
		})))
	if err != nil {
		pipeline.Release()
		return fmt.Errorf("failed to create ingestor: %w", err)
	}
	defer ingestor.Release()

	failed := 0
	for _, url := range c.Args().Slice() {
		job := core.NewJob(url, c.Int64("user"), c.Int64("group"))
		result := ingestor.Process(c.Context, job)
		if !result.Status.OK() {
			failed++
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", w)
		}
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d URLs failed", failed, c.NArg()), 1)
	}
	return nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find recipes matching a description",
		ArgsUsage: "QUERY...",
		Action:    searchAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top-k",
				Aliases: []string{"k"},
				Usage:   "Number of similarity candidates",
				Value:   search.DefaultTopK,
			},
			&cli.BoolFlag{
				Name:  "no-rerank",
				Usage: "Return raw similarity hits without asking the chat model",
			},
		},
	}
}

func searchAction(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a search query is required")
	}

	cb, err := openCookbook(c, nil)
	if err != nil {
		return err
	}
	defer cb.Close()

	var opts []search.Option
	if c.Bool("no-rerank") {
		opts = append(opts, search.WithoutRerank())
	}
	searcher, err := cb.NewSearcher(opts...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	hits, err := searcher.Search(c.Context, query, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printHits(c.Context, c.App.Writer, cb.RecipeRepository(), hits)
}

func printHits(ctx context.Context, w io.Writer, recipes storage.RecipeRepository, hits []*core.SearchHit) error {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No matching recipes.")
		return nil
	}
	fmt.Fprintf(w, "Found %d recipes\n", len(hits))
	for i, hit := range hits {
		title, url := "(unknown)", ""
		record, err := recipes.FindByID(ctx, hit.Chunk.RecordID)
		switch {
		case err == nil:
			title, url = record.Title, record.SourceURL
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		category := hit.Label
		if category == "" {
			category = hit.Chunk.Metadata.Category
		}
		fmt.Fprintf(w, "%d: %s [%s] (%s)[%0.3f]\n", i+1, title, category, hit.Chunk.RecordID, hit.Score)
		if url != "" {
			fmt.Fprintf(w, "   %s\n", url)
		}
	}
	return nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List the recipes of a user or a group",
		Action: listAction,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "List recipes owned by this user",
			},
			&cli.Int64Flag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "List recipes shared in this group",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of recipes (0 for all)",
			},
		},
	}
}

func listAction(c *cli.Context) error {
	user, group := c.Int64("user"), c.Int64("group")
	if (user == 0) == (group == 0) {
		return fmt.Errorf("exactly one of --user or --group is required")
	}
	if c.Int("limit") < 0 {
		return fmt.Errorf("limit cannot be negative")
	}

	cb, err := openCookbook(c, nil)
	if err != nil {
		return err
	}
	defer cb.Close()

	var summaries []core.RecipeSummary
	if user != 0 {
		summaries, err = cb.RecipeRepository().ListByOwner(c.Context, user, c.Int("limit"))
	} else {
		summaries, err = cb.RecipeRepository().ListByGroup(c.Context, group, c.Int("limit"))
	}
	if err != nil {
		return fmt.Errorf("failed to list recipes: %w", err)
	}
	printSummaries(c.App.Writer, summaries)
	return nil
}

func printSummaries(w io.Writer, summaries []core.RecipeSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No recipes.")
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %s [%s]\n", s.ID, s.Title, s.Category)
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one recipe in full",
		ArgsUsage: "ID",
		Action:    showAction,
	}
}

func showAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one recipe id is required")
	}
	id, err := core.ParseID(c.Args().First())
	if err != nil {
		return err
	}

	cb, err := openCookbook(c, nil)
	if err != nil {
		return err
	}
	defer cb.Close()

	record, err := cb.RecipeRepository().FindByID(c.Context, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return cli.Exit(fmt.Sprintf("recipe %s not found", id), 1)
		}
		return err
	}
	printRecipe(c.App.Writer, record)
	return nil
}

func printRecipe(w io.Writer, r *core.RecipeRecord) {
	fmt.Fprintf(w, "%s\n", r.Title)
	fmt.Fprintf(w, "Category: %s\n", r.Category)
	fmt.Fprintf(w, "Source:   %s\n", r.SourceURL)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ingredients:")
	for _, in := range r.Ingredients {
		fmt.Fprintf(w, "  - %s: %s\n", in.Name, in.Quantity)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Steps:")
	for i, step := range r.Steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Owners: %v  Groups: %v\n", r.Owners, r.Groups)
}

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:   "reindex",
		Usage:  "Rebuild the search index of every recipe",
		Action: reindexAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of recipes to process in each batch",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N recipes",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum attempts per recipe",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 1 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "restart",
				Usage: "Ignore a saved checkpoint and start from the first recipe",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Maximum chunk length in characters",
				Value: index.DefaultChunkSize,
			},
			&cli.IntFlag{
				Name:  "chunk-overlap",
				Usage: "Characters shared by consecutive chunks",
				Value: index.DefaultChunkOverlap,
			},
		},
	}
}

func reindexAction(c *cli.Context) error {
	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Restart:        c.Bool("restart"),
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	cb, err := openCookbook(c, nil)
	if err != nil {
		return err
	}
	defer cb.Close()

	indexer, err := cb.NewIndexer(
		index.WithChunkSize(c.Int("chunk-size")),
		index.WithChunkOverlap(c.Int("chunk-overlap")),
	)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	reindexer, err := reindex.NewReindexer(cb.RecipeRepository(), indexer, cb.CheckpointRepository(), config, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintln(os.Stderr)

	if _, err := reindexer.Run(c.Context); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}
