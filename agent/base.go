package agent

import (
	"context"
	"time"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/model"
	"github.com/hupe1980/costpilot/tool"
)

// Options configures an agent. Shared by all four agent constructors.
type Options struct {
	// SystemPrompt overrides the agent's default system prompt.
	SystemPrompt string

	// Logger receives agent diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// BaseAgent bundles the identity, model and logging shared by the concrete
// agents. Embed it and supply a Run method to satisfy core.Agent.
type BaseAgent struct {
	name   string
	model  model.Model
	prompt string
	logger logging.Logger
}

func newBaseAgent(name string, m model.Model, prompt string, opts Options) BaseAgent {
	if opts.SystemPrompt != "" {
		prompt = opts.SystemPrompt
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{name: name, model: m, prompt: prompt, logger: logger}
}

// Name returns the agent's plan name.
func (b *BaseAgent) Name() string { return b.name }

// generate runs one reasoning step against the agent's model with its
// system prompt, the bounded conversation history and the given messages.
func (b *BaseAgent) generate(ctx context.Context, sc *core.SharedContext, msgs ...model.Message) (string, error) {
	req := model.Request{
		Instructions: b.prompt,
		Messages:     append(historyMessages(sc), msgs...),
	}

	resp, err := b.model.Generate(ctx, req)
	if err != nil {
		b.logger.Warn("model call failed", "agent", b.name, "error", err)
		return "", err
	}

	return resp.Text, nil
}

// succeed builds a successful result stamped with the elapsed run time.
func (b *BaseAgent) succeed(start time.Time, output string, sources []core.Source) core.AgentResult {
	r := core.NewAgentResult(b.name, output, sources)
	r.Elapsed = time.Since(start)
	return r
}

// fail converts an agent-boundary failure into a failed result.
func (b *BaseAgent) fail(start time.Time, code, detail string) core.AgentResult {
	b.logger.Warn("agent failed", "agent", b.name, "code", code, "detail", detail)
	r := core.NewAgentFailure(b.name, code, detail)
	r.Elapsed = time.Since(start)
	return r
}

// failErr classifies err into a machine code and builds the failed result.
func (b *BaseAgent) failErr(start time.Time, err error) core.AgentResult {
	return b.fail(start, tool.ErrorCode(err), err.Error())
}

// historyMessages converts the bounded turn window into model messages,
// skipping soft-deleted turns.
func historyMessages(sc *core.SharedContext) []model.Message {
	msgs := make([]model.Message, 0, len(sc.History))
	for _, t := range sc.History {
		if t.Deleted {
			continue
		}
		switch t.Role {
		case core.RoleAssistant:
			msgs = append(msgs, model.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, model.UserMessage(t.Content))
		}
	}
	return msgs
}
