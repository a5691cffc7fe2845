package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/log"
)

var errNoAgent = errors.New("runner has no agent")

// Runner executes turns of an agent against sessions of one app.
type Runner struct {
	AppName  string
	Agent    Agent
	Sessions *InMemorySessionService
	Logger   log.Logger
}

// NewRunner creates a runner with an in-memory session service
func NewRunner(appName string, agent Agent, logger log.Logger) *Runner {
	return &Runner{AppName: appName, Agent: agent, Sessions: NewInMemorySessionService(), Logger: logger}
}

// Run sends text as the user message and returns the final response.
func (r *Runner) Run(ctx context.Context, userID, sessionID, text string) (string, error) {
	return r.RunContent(ctx, userID, sessionID, llms.TextParts(llms.ChatMessageTypeHuman, text))
}

// RunContent sends a user message, possibly with attachments. The session is
// created when it does not exist yet.
func (r *Runner) RunContent(ctx context.Context, userID, sessionID string, content llms.MessageContent) (string, error) {
	if r.Agent == nil {
		return "", errNoAgent
	}
	logger := log.OrNoOp(r.Logger)

	sess, err := r.Sessions.Get(ctx, r.AppName, userID, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		sess, err = r.Sessions.Create(ctx, r.AppName, userID, sessionID, nil)
	}
	if err != nil {
		return "", err
	}

	logger.Info("user %s: %s", userID, TextOf(content))
	res, err := r.Agent.Run(ctx, &Invocation{Session: sess, UserContent: content, Logger: logger})
	if err != nil {
		logger.Error("turn failed: %v", err)
		return "", err
	}

	text := res.Text
	if text == "" && res.Escalated {
		text = fmt.Sprintf("Agent escalated: %s", res.EscalationMessage)
	}
	sess.Append(userText(content), llms.TextParts(llms.ChatMessageTypeAI, text))
	logger.Info("%s: %s", res.Author, text)
	return text, nil
}
