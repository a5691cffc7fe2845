package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smallnest/ragagents/internal/cli"
	"github.com/smallnest/ragagents/log"
	"github.com/smallnest/ragagents/rag/embedder"
	"github.com/smallnest/ragagents/store"
	"github.com/smallnest/ragagents/subtitle"
)

const collection = "podcast_transcripts"

func newRootCommand() *cobra.Command {
	var configPath string
	var top int

	cmd := &cobra.Command{
		Use:           "transcript <file> <video-id> <query>",
		Short:         "Search a minute-stamped podcast transcript",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := cli.Setup(configPath)
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

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			index := subtitle.NewTranscriptIndex(emb, client, collection)
			return run(ctx, cmd.OutOrStdout(), index, f, args[1], args[2], top, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().IntVar(&top, "top", 10, "Number of links to print")
	return cmd
}

// run indexes transcript unless the collection already holds minutes, then
// prints links to the best matching minutes.
func run(ctx context.Context, out io.Writer, index *subtitle.TranscriptIndex, transcript io.Reader, videoID, query string, top int, logger log.Logger) error {
	logger = log.OrNoOp(logger)
	n, err := index.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		chunks, err := subtitle.ReadMinuteTranscript(transcript)
		if err != nil {
			return err
		}
		if err := index.Add(ctx, videoID, chunks); err != nil {
			return err
		}
		logger.Info("indexed %d minutes of %s", len(chunks), videoID)
	} else {
		logger.Info("collection %s already holds %d minutes, skipping indexing", collection, n)
	}

	links, err := index.Search(ctx, query, top)
	if err != nil {
		return err
	}
	for _, link := range links {
		fmt.Fprintln(out, link)
	}
	return nil
}
