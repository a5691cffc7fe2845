package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/ragagents/internal/cli"
	"github.com/smallnest/ragagents/model"
	"github.com/smallnest/ragagents/rag"
	"github.com/smallnest/ragagents/rag/embedder"
	"github.com/smallnest/ragagents/rag/loader"
	"github.com/smallnest/ragagents/rag/splitter"
	"github.com/smallnest/ragagents/store"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "simplerag <pdf|txt>",
		Short:         "Ask a question about a PDF or text document",
		Long: `Ask a question about a PDF or text document. Files ending in .txt are
read as plain text, anything else as PDF.

Answers need a best chunk scoring at least rag.threshold. When unset it is
0.6 for model embeddings and 0.15 for the offline hash embedder, which only
scores shared words.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := cli.Setup(configPath)
			if err != nil {
				return err
			}

			split, err := splitter.NewFixedSizeSplitter(cfg.RAG.ChunkSize, cfg.RAG.Overlap)
			if err != nil {
				return err
			}
			logger.Info("started parsing document %s", args[0])
			chunks, err := loadChunks(ctx, args[0], split)
			if err != nil {
				return err
			}
			logger.Info("finished chunking, created %d chunks", len(chunks))

			emb, err := embedder.New(cfg.Embedding)
			if err != nil {
				return err
			}
			client, err := store.Open(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer client.Close()
			llm, err := model.New(cfg.LLM)
			if err != nil {
				return err
			}

			pipeline := rag.NewSimplePipeline(emb, client, llm,
				rag.WithCollection(cfg.RAG.Collection),
				rag.WithTopK(cfg.RAG.TopK),
				rag.WithThreshold(cfg.RelevanceThreshold()),
				rag.WithPipelineLogger(logger))
			if err := pipeline.Index(ctx, chunks); err != nil {
				return err
			}
			logger.Info("processed and stored embeddings")

			return ask(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), pipeline)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	return cmd
}

// loadChunks reads the document at path and cuts it into chunks.
func loadChunks(ctx context.Context, path string, split *splitter.FixedSizeSplitter) ([]string, error) {
	var docs []rag.Document
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		loaded, err := loader.NewTextLoader(path).Load(ctx)
		if err != nil {
			return nil, err
		}
		docs = loaded
	} else {
		text, err := loader.NewPDFLoader(path).LoadText(ctx)
		if err != nil {
			return nil, err
		}
		docs = []rag.Document{{ID: filepath.Base(path), Content: text}}
	}

	var chunks []string
	for _, doc := range split.SplitDocuments(docs) {
		chunks = append(chunks, doc.Content)
	}
	return chunks, nil
}

type asker interface {
	Ask(ctx context.Context, query string) (string, error)
}

// ask prompts for one question and prints the answer.
func ask(ctx context.Context, in io.Reader, out io.Writer, p asker) error {
	fmt.Fprint(out, "Please enter a question to ask: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	query := strings.TrimSpace(line)
	if query == "" {
		return rag.ErrEmptyQuery
	}

	answer, err := p.Ask(ctx, query)
	if errors.Is(err, rag.ErrNotEnoughContext) {
		fmt.Fprintln(out, "Not enough context found, please try another question")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, answer)
	return nil
}
