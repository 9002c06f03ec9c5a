package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/lighthouse-ai/lighthouse/internal/nlu"
	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

// Request is the resolved action handed to an executor.
type Request struct {
	Action safety.ActionType `json:"action"`
	Target string            `json:"target,omitempty"`
	Text   string            `json:"text,omitempty"`
}

// ExecResult is what an executor reports back.
type ExecResult struct {
	Message string `json:"message"`
}

// Executor performs an approved action. Real implementations drive a
// browser; this repo ships only the echoing default used by the CLI.
type Executor interface {
	Execute(ctx context.Context, req Request) (*ExecResult, error)
}

// Announcer surfaces outcome messages to the user.
type Announcer interface {
	Announce(message string)
}

// AnnounceFunc adapts a function to the Announcer interface.
type AnnounceFunc func(message string)

func (f AnnounceFunc) Announce(message string) { f(message) }

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(string) {}

// EchoExecutor acknowledges actions without touching a browser.
type EchoExecutor struct{}

// Execute reports what would have been done.
func (EchoExecutor) Execute(_ context.Context, req Request) (*ExecResult, error) {
	switch req.Action {
	case safety.ActionNavigate:
		if req.Target == "" {
			return nil, fmt.Errorf("no URL specified")
		}
		return &ExecResult{Message: fmt.Sprintf("Navigated to %s", req.Target)}, nil
	case safety.ActionClick:
		target := req.Target
		if target == "" {
			target = req.Text
		}
		if target == "" {
			return nil, fmt.Errorf("no click target specified")
		}
		return &ExecResult{Message: fmt.Sprintf("Clicked %s", target)}, nil
	case safety.ActionTypeText:
		if req.Text == "" {
			return nil, fmt.Errorf("no text to type")
		}
		if req.Target != "" {
			return &ExecResult{Message: fmt.Sprintf("Typed %q into %s", req.Text, req.Target)}, nil
		}
		return &ExecResult{Message: fmt.Sprintf("Typed %q", req.Text)}, nil
	case safety.ActionSubmit:
		return &ExecResult{Message: "Submitted form"}, nil
	case safety.ActionDescribe:
		return &ExecResult{Message: "Describe requested"}, nil
	case safety.ActionList:
		return &ExecResult{Message: "List requested"}, nil
	case safety.ActionStop:
		return &ExecResult{Message: "Stopped"}, nil
	case safety.ActionHelp:
		return &ExecResult{Message: "Supported commands: " + strings.Join(nlu.SupportedCommands(), "; ")}, nil
	default:
		return &ExecResult{Message: fmt.Sprintf("Command %q received", req.Action)}, nil
	}
}
