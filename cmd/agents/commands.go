package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/agent"
	"github.com/smallnest/ragagents/agents/analytics"
	"github.com/smallnest/ragagents/agents/classify"
	"github.com/smallnest/ragagents/agents/planexec"
	"github.com/smallnest/ragagents/agents/todo"
	"github.com/smallnest/ragagents/agents/weather"
	"github.com/smallnest/ragagents/agents/workflow"
	"github.com/smallnest/ragagents/internal/cli"
	"github.com/smallnest/ragagents/tool"
)

const (
	userID    = "user"
	sessionID = "session"
)

func chat(cmd *cobra.Command, title string, turn cli.TurnFunc) error {
	fmt.Fprintln(cmd.OutOrStdout(), cli.Title(title))
	return cli.Chat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), turn)
}

// runnerFor builds a runner for root with one session created from initial.
func runnerFor(cmd *cobra.Command, ctx *commandContext, app string, root agent.Agent, user, session string, initial map[string]any) (*agent.Runner, error) {
	_, logger, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	r := agent.NewRunner(app, root, logger)
	if _, err := r.Sessions.Create(cmd.Context(), app, user, session, initial); err != nil {
		return nil, err
	}
	return r, nil
}

func textTurn(r *agent.Runner, user, session string) cli.TurnFunc {
	return func(ctx context.Context, text string) (string, error) {
		return r.Run(ctx, user, session, text)
	}
}

func newWeatherCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Weather agent with greeting and farewell sub-agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			llm, err := ctx.model()
			if err != nil {
				return err
			}
			root, err := weather.New(llm)
			if err != nil {
				return err
			}
			r, err := runnerFor(cmd, ctx, weather.AppName, root, weather.UserID, weather.SessionID, weather.InitialState())
			if err != nil {
				return err
			}
			return chat(cmd, "Weather agent", textTurn(r, weather.UserID, weather.SessionID))
		},
	}
}

func newTodoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "todo",
		Short: "Todo assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			llm, err := ctx.model()
			if err != nil {
				return err
			}
			root, err := todo.New(llm, todo.NewStore())
			if err != nil {
				return err
			}
			r, err := runnerFor(cmd, ctx, "todo_app", root, userID, sessionID, nil)
			if err != nil {
				return err
			}
			return chat(cmd, "Todo assistant", textTurn(r, userID, sessionID))
		},
	}
}

func newPlanExecCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "planexec",
		Short: "Plan and execute email tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			llm, err := ctx.model()
			if err != nil {
				return err
			}
			root, err := planexec.New(llm, planexec.NewContactBook(planexec.DefaultContacts()))
			if err != nil {
				return err
			}
			r, err := runnerFor(cmd, ctx, "planexec_app", root, userID, sessionID, nil)
			if err != nil {
				return err
			}
			return chat(cmd, "Plan and execute agent", textTurn(r, userID, sessionID))
		},
	}
}

func newAnalyticsCommand(ctx *commandContext) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "CSV analytics agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			llm, err := ctx.model()
			if err != nil {
				return err
			}
			db, err := analytics.OpenDB(cfg.Analytics.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			root, err := analytics.New(llm, analytics.NewService(db, cfg.Analytics.Table))
			if err != nil {
				return err
			}
			r, err := runnerFor(cmd, ctx, "analytics_app", root, userID, sessionID, nil)
			if err != nil {
				return err
			}

			var attachment []byte
			if csvPath != "" {
				if attachment, err = os.ReadFile(csvPath); err != nil {
					return err
				}
				logger.Info("attaching %s to the first message", filepath.Base(csvPath))
			}
			return chat(cmd, "CSV analytics agent", func(c context.Context, text string) (string, error) {
				if attachment == nil {
					return r.Run(c, userID, sessionID, text)
				}
				content := llms.MessageContent{
					Role: llms.ChatMessageTypeHuman,
					Parts: []llms.ContentPart{
						llms.TextPart(text),
						llms.BinaryContent{MIMEType: "text/csv", Data: attachment},
					},
				}
				attachment = nil
				return r.RunContent(c, userID, sessionID, content)
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file attached to the first message")
	return cmd
}

func newWorkflowCommand(ctx *commandContext) *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Coordinator with weather, letter counting and iterative research",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			llm, err := ctx.model()
			if err != nil {
				return err
			}

			research := []agent.Tool{tool.NewWebFetchTool()}
			if cfg.Search.BraveAPIKey != "" {
				brave, err := tool.NewBraveSearch(cfg.Search.BraveAPIKey, tool.WithBraveCount(cfg.Search.Count))
				if err != nil {
					return err
				}
				research = append(research, brave)
			} else {
				logger.Warn("BRAVE_API_KEY not set, research runs without web search")
			}

			root, err := workflow.New(llm, research...)
			if err != nil {
				return err
			}
			r, err := runnerFor(cmd, ctx, "workflow_app", root, userID, sessionID, nil)
			if err != nil {
				return err
			}
			return chat(cmd, "Workflow agent", func(c context.Context, text string) (string, error) {
				answer, err := r.Run(c, userID, sessionID, text)
				if err != nil || htmlPath == "" {
					return answer, err
				}
				sess, err := r.Sessions.Get(c, r.AppName, userID, sessionID)
				if err != nil {
					return "", err
				}
				html, err := workflow.RenderDraft(sess.State)
				if err != nil {
					return answer, nil
				}
				if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
					return "", err
				}
				logger.Info("wrote research draft to %s", htmlPath)
				return answer, nil
			})
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write the rendered research draft to this file")
	return cmd
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify questions as retrieval or follow-up, or analyze SQL requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			llm, err := ctx.model()
			if err != nil {
				return err
			}
			return chat(cmd, "Query classifier", func(c context.Context, text string) (string, error) {
				var out any
				var err error
				if analyze {
					out, err = classify.Analyze(c, llm, text)
				} else {
					out, err = classify.Classify(c, llm, text)
				}
				if err != nil {
					return "", err
				}
				b, err := json.MarshalIndent(out, "", "  ")
				return string(b), err
			})
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Run the SQL query analyzer instead of the classifier")
	return cmd
}
