// Package dispatch turns classified commands into policy-checked,
// audited actions.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lighthouse-ai/lighthouse/internal/db"
	"github.com/lighthouse-ai/lighthouse/internal/nlu"
	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

// Decision is the policy outcome for an interpreted command.
type Decision string

const (
	DecisionProceed Decision = "proceed"
	DecisionConfirm Decision = "confirm"
	DecisionRefuse  Decision = "refuse"
)

// Interpretation is the full pipeline result for one command: the
// classification, the derived action, and the policy decision.
type Interpretation struct {
	Result   *nlu.Result       `json:"result"`
	Action   safety.ActionType `json:"action,omitempty"`
	Target   string            `json:"target,omitempty"`
	Text     string            `json:"text,omitempty"`
	Level    safety.Level      `json:"safety_level"`
	Decision Decision          `json:"decision"`
	Message  string            `json:"message,omitempty"`
}

// Outcome reports what happened after dispatching.
type Outcome struct {
	Interpretation *Interpretation `json:"interpretation"`
	Executed       bool            `json:"executed"`
	Success        bool            `json:"success"`
	Message        string          `json:"message,omitempty"`
}

// Confirmer answers confirmation prompts. The CLI asks the user; tests
// supply a canned answer.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// Options wires a dispatcher's collaborators. NLU and Policy are
// required; the rest default to no-ops.
type Options struct {
	NLU       *nlu.Engine
	Policy    *safety.Engine
	Ledger    *db.DB
	SessionID string
	Executor  Executor
	Announcer Announcer
	Confirmer Confirmer
	Logger    *log.Logger
}

// Dispatcher runs commands through classification, policy, execution,
// and the audit ledger.
type Dispatcher struct {
	nlu       *nlu.Engine
	policy    *safety.Engine
	ledger    *db.DB
	sessionID string
	executor  Executor
	announcer Announcer
	confirmer Confirmer
	logger    *log.Logger
}

// New builds a dispatcher from options.
func New(opts Options) (*Dispatcher, error) {
	if opts.NLU == nil {
		return nil, fmt.Errorf("nlu engine is required")
	}
	if opts.Policy == nil {
		return nil, fmt.Errorf("policy engine is required")
	}

	d := &Dispatcher{
		nlu:       opts.NLU,
		policy:    opts.Policy,
		ledger:    opts.Ledger,
		sessionID: opts.SessionID,
		executor:  opts.Executor,
		announcer: opts.Announcer,
		confirmer: opts.Confirmer,
		logger:    opts.Logger,
	}
	if d.executor == nil {
		d.executor = EchoExecutor{}
	}
	if d.announcer == nil {
		d.announcer = nopAnnouncer{}
	}
	if d.confirmer == nil {
		d.confirmer = ConfirmFunc(func(string) bool { return false })
	}
	if d.logger == nil {
		d.logger = log.Default().WithPrefix("dispatch")
	}
	return d, nil
}

// actionForIntent maps classified intents onto policy action types.
var actionForIntent = map[nlu.Intent]safety.ActionType{
	nlu.IntentNavigate: safety.ActionNavigate,
	nlu.IntentClick:    safety.ActionClick,
	nlu.IntentType:     safety.ActionTypeText,
	nlu.IntentSubmit:   safety.ActionSubmit,
	nlu.IntentDescribe: safety.ActionDescribe,
	nlu.IntentList:     safety.ActionList,
	nlu.IntentStop:     safety.ActionStop,
	nlu.IntentHelp:     safety.ActionHelp,
}

// Interpret classifies the command and applies the policy checks
// without executing anything.
func (d *Dispatcher) Interpret(text string) *Interpretation {
	result := d.nlu.Classify(text)

	interp := &Interpretation{
		Result: result,
		Level:  safety.LevelSafe,
	}
	if result.Intent == nlu.IntentUnknown {
		interp.Decision = DecisionRefuse
		interp.Message = "Unknown command"
		return interp
	}

	interp.Action = actionForIntent[result.Intent]
	interp.Target, interp.Text = d.deriveTargetAndText(result)

	// Navigation targets must pass the domain allowlist before any
	// action-level policy runs.
	if interp.Action == safety.ActionNavigate && interp.Target != "" {
		if !d.policy.IsDomainAllowed(interp.Target) {
			interp.Decision = DecisionRefuse
			interp.Level = safety.LevelBlocked
			interp.Message = fmt.Sprintf("Domain not allowed: %s", interp.Target)
			return interp
		}
		validation := d.policy.ValidateURL(interp.Target)
		for _, warning := range validation.Warnings {
			d.logger.Warn("url validation", "url", interp.Target, "warning", warning)
		}
	}

	commandText := safety.SanitizeText(result.NormalizedText)
	interp.Level = d.policy.SafetyLevelFor(interp.Action, interp.Target, commandText)

	if d.policy.IsActionRestricted(interp.Action, interp.Target) {
		interp.Decision = DecisionRefuse
		interp.Message = d.policy.ConfirmationMessage(interp.Action, interp.Target, commandText)
		return interp
	}

	if d.policy.RequiresConfirmation(interp.Action, interp.Target, commandText) {
		interp.Decision = DecisionConfirm
		interp.Message = d.policy.ConfirmationMessage(interp.Action, interp.Target, commandText)
		return interp
	}

	interp.Decision = DecisionProceed
	return interp
}

// Dispatch interprets the command, resolves confirmation, executes when
// permitted, and writes the audit record.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) (*Outcome, error) {
	started := time.Now()
	interp := d.Interpret(text)

	outcome := &Outcome{Interpretation: interp}

	confirmed := false
	switch interp.Decision {
	case DecisionRefuse:
		outcome.Message = interp.Message
		d.announcer.Announce(interp.Message)
		d.logger.Info("command refused",
			"intent", interp.Result.Intent, "action", interp.Action, "level", interp.Level)
	case DecisionConfirm:
		confirmed = d.confirmer.Confirm(interp.Message)
		if !confirmed {
			outcome.Message = fmt.Sprintf("Cancelled %s action", interp.Action)
			d.announcer.Announce(outcome.Message)
			break
		}
		fallthrough
	case DecisionProceed:
		result, err := d.executor.Execute(ctx, Request{
			Action: interp.Action,
			Target: interp.Target,
			Text:   interp.Text,
		})
		outcome.Executed = true
		if err != nil {
			outcome.Message = fmt.Sprintf("%s failed: %v", interp.Action, err)
			d.announcer.Announce(outcome.Message)
			d.logger.Error("execution failed", "action", interp.Action, "error", err)
		} else {
			outcome.Success = true
			outcome.Message = result.Message
			d.announcer.Announce(result.Message)
		}
	}

	if err := d.record(interp, outcome, confirmed, time.Since(started)); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (d *Dispatcher) record(interp *Interpretation, outcome *Outcome, confirmed bool, elapsed time.Duration) error {
	if d.ledger == nil || d.sessionID == "" {
		return nil
	}

	errText := ""
	if outcome.Executed && !outcome.Success {
		errText = outcome.Message
	}
	action := &db.Action{
		SessionID:   d.sessionID,
		ActionType:  string(interp.Action),
		Target:      interp.Target,
		CommandText: interp.Result.OriginalText,
		Intent:      string(interp.Result.Intent),
		Confidence:  interp.Result.Confidence,
		SafetyLevel: string(interp.Level),
		Confirmed:   confirmed,
		Success:     outcome.Success,
		Error:       errText,
		DurationMS:  elapsed.Milliseconds(),
	}
	if interp.Action == "" {
		action.ActionType = "unknown"
	}
	if err := d.ledger.RecordAction(action); err != nil {
		return fmt.Errorf("recording action: %w", err)
	}
	return d.ledger.UpdateSessionHeartbeat(d.sessionID)
}

// deriveTargetAndText extracts the action target and free text from the
// classification using the per-intent parsers.
func (d *Dispatcher) deriveTargetAndText(result *nlu.Result) (string, string) {
	switch result.Intent {
	case nlu.IntentNavigate:
		cmd := nlu.ParseNavigation(result)
		return cmd.URL, ""
	case nlu.IntentClick:
		cmd := nlu.ParseClick(result)
		target := cmd.Button
		if target == "" {
			target = cmd.Number
		}
		return target, safety.SanitizeText(cmd.Text)
	case nlu.IntentType:
		cmd := nlu.ParseType(result)
		return cmd.Field, safety.SanitizeText(cmd.Text)
	default:
		return "", ""
	}
}
