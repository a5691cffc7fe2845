package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smallnest/ragagents/config"
	"github.com/smallnest/ragagents/internal/cli"
	"github.com/smallnest/ragagents/log"
	"github.com/smallnest/ragagents/rag/store"
	"github.com/smallnest/ragagents/recommend"
)

// myRatings are the personal ratings recommendations are made for:
// 1 liked, -1 disliked.
var myRatings = map[int]float64{
	78499:  1,  // Toy Story 3
	78469:  1,  // The A-Team
	680:    1,  // Pulp Fiction
	13:     1,  // Forrest Gump
	102880: -1, // After Earth
	120:    1,  // Lord of the Rings: The Fellowship of the Ring
	180297: -1, // The Disaster Artist
	84152:  1,  // Limitless
	6365:   1,  // The Matrix
	109487: 1,  // Interstellar
	135569: 1,  // Star Trek Beyond
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "recommend",
		Short:         "Recommend movies from MovieLens ratings with sparse vectors",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := cli.Setup(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg.Recommend, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	return cmd
}

func run(ctx context.Context, out io.Writer, cfg config.Recommend, logger log.Logger) error {
	logger.Info("loading MovieLens data from %s", cfg.DataDir)
	ds, err := recommend.Prepare(cfg.DataDir, cfg.StartYear)
	if err != nil {
		return err
	}
	logger.Info("prepared %d movies and %d user vectors", len(ds.Movies), len(ds.Vectors))

	r := recommend.NewFromConfig(store.NewSparseIndex(), cfg, logger)
	if err := r.Setup(true); err != nil {
		return err
	}
	if err := r.Upload(ds.Vectors); err != nil {
		return err
	}

	recs, err := r.Recommend(ctx, myRatings, ds.Movies, cfg.TopK)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderRecommendations(recs))
	return nil
}

func renderRecommendations(recs []recommend.Recommendation) string {
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = []string{rec.Title, fmt.Sprintf("%.3f", rec.Score), fmt.Sprint(rec.MovieID)}
	}
	return cli.RenderTable([]string{"Title", "Score", "ID"}, rows, []cli.Alignment{cli.AlignLeft, cli.AlignRight, cli.AlignRight})
}
