package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smallnest/ragagents/internal/cli"
	"github.com/smallnest/ragagents/rag/embedder"
	ragstore "github.com/smallnest/ragagents/rag/store"
	"github.com/smallnest/ragagents/store"
	"github.com/smallnest/ragagents/subtitle"
)

const noActionMessage = "Error: Please indicate what you want to do: load, search or both(load then search)"

type options struct {
	config string
	name   string
	load   string
	search string
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "subsearch",
		Short:         "A RAG based search over YouTube video subtitles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&opts.name, "name", "", "The name of the collection to work on")
	cmd.Flags().StringVar(&opts.load, "load", "", "YouTube video or playlist URL")
	cmd.Flags().StringVar(&opts.search, "search", "", "The query to search for")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts options) error {
	if opts.load == "" && opts.search == "" {
		fmt.Fprintln(out, noActionMessage)
		return nil
	}

	cfg, logger, err := cli.Setup(opts.config)
	if err != nil {
		return err
	}
	emb, err := embedder.New(cfg.Embedding)
	if err != nil {
		return err
	}
	client, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	index := subtitle.NewIndex(emb, client,
		subtitle.WithGrouping(cfg.Subtitle.GroupSize, cfg.Subtitle.Limit),
		subtitle.WithIndexLogger(logger))

	if opts.search != "" {
		if err := search(ctx, out, client, index, opts.name, opts.search); err != nil {
			return err
		}
	}

	if opts.load != "" {
		fmt.Fprintf(out, "Downloading subtitle for: %s URL for collection: '%s'\n", opts.load, opts.name)
		loader := &subtitle.Loader{
			Dir:        cfg.Subtitle.CollectionsDir,
			Threshold:  cfg.Subtitle.SegmentSeconds,
			Downloader: subtitle.NewYTDLP(subtitle.WithBinary(cfg.Subtitle.YTDLPPath)),
			Index:      index,
			Logger:     logger,
		}
		if err := loader.Load(ctx, opts.name, opts.load); err != nil {
			logger.Error("load failed: %v", err)
			fmt.Fprintf(out, "An error occurred: %v\n", err)
			return nil
		}
		fmt.Fprintln(out, "Finished storing.")
	}
	return nil
}

// search prints the grouped hits of query, or a notice when the collection
// does not exist.
func search(ctx context.Context, out io.Writer, client *ragstore.Client, index *subtitle.Index, name, query string) error {
	exists, err := client.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(out, "The collection: '%s' does not exist\n", name)
		return nil
	}

	fmt.Fprintf(out, "Searching for: '%s' in collection: '%s'\n", query, name)
	hits, err := index.Search(ctx, name, query)
	if err != nil {
		return err
	}
	printHits(out, hits)
	return nil
}

func printHits(out io.Writer, hits []subtitle.Hit) {
	for i, hit := range hits {
		fmt.Fprintf(out, "%d. %s. Confidence score = %v.\n", i+1, hit.FileName, hit.Score)
		fmt.Fprintf(out, "\t - %s\n", hit.URL())
	}
}
