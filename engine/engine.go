// Package engine is the generic execution orchestrator shared by all
// providers. It composes the binary locator, the subprocess runner, the
// line buffer, the provider's event parser, and the result extractor
// into one Execute call.
//
// Interfaces are defined here, at the consumer side, following Go
// interface ownership conventions. Provider packages (provider/claude,
// provider/codex, provider/gemini) provide concrete implementations.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/engine/internal/linebuf"
	"github.com/dmora/agentexec/engine/internal/sanitize"
	"github.com/dmora/agentexec/engine/runner"
	"github.com/dmora/agentexec/extract"
	"github.com/dmora/agentexec/locate"
)

// ErrSkipLine signals that a parsed line carries no message — blank
// input, malformed JSON, or a control/metadata record. Callers treat it
// as "not a message", never as an execution error.
var ErrSkipLine = errors.New("engine: skip line")

// Backend is one provider's contribution to the orchestration: where to
// find its binary, how to spell its argv, and how to read its events.
type Backend interface {
	// Tool returns the provider identifier stamped onto parsed messages.
	Tool() agentexec.Tool

	// Locator describes how to resolve the provider binary.
	Locator() locate.Spec

	// Args translates ExecuteOptions into the provider's argv,
	// honoring its flag spellings and ordering constraints.
	Args(opts agentexec.ExecuteOptions) []string

	// ParseLine parses one raw output line into a message. It must
	// never panic; lines that carry no message return ErrSkipLine.
	ParseLine(line string) (agentexec.Message, error)
}

// SessionIDExtractor is an optional Backend capability: recognizing the
// provider's "session started" record and recovering its id.
type SessionIDExtractor interface {
	SessionID(line string) (string, bool)
}

// DocumentParser is an optional Backend capability for providers whose
// CLI emits one whole JSON document rather than line-delimited events.
// The engine falls back to it when the line parser produced no messages.
type DocumentParser interface {
	ParseDocument(stdout string) []agentexec.Message
}

// Options tunes engine behavior.
type Options struct {
	// GracePeriod is the SIGTERM→SIGKILL window for timeouts and
	// cancellation. Zero means runner.DefaultGracePeriod.
	GracePeriod time.Duration
}

// Option configures an Engine at construction time.
type Option func(*Options)

// WithGracePeriod overrides the termination grace period.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.GracePeriod = d
		}
	}
}

// Engine orchestrates one provider's subprocess executions.
type Engine struct {
	backend Backend
	opts    Options
}

// New creates an engine for the given backend.
func New(backend Backend, opts ...Option) *Engine {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{backend: backend, opts: o}
}

// Resolve locates the provider binary. Returns agentexec.ErrUnavailable
// when no resolution strategy succeeds.
func (e *Engine) Resolve() (string, error) {
	path, ok := locate.Resolve(e.backend.Locator())
	if !ok {
		return "", fmt.Errorf("%w: %s not found", agentexec.ErrUnavailable, e.backend.Tool())
	}
	return path, nil
}

// Validate checks that the provider binary is available.
func (e *Engine) Validate() error {
	_, err := e.Resolve()
	return err
}

// Execute runs one prompt through the provider CLI. It returns an error
// only for setup problems (binary not found, invalid permission mode);
// every runtime failure — spawn error, timeout, non-zero exit — is
// reported through the result with whatever partial progress was parsed.
func (e *Engine) Execute(ctx context.Context, opts agentexec.ExecuteOptions) (*agentexec.ExecuteResult, error) {
	if err := agentexec.ValidatePermissionMode(opts.PermissionMode); err != nil {
		return nil, err
	}

	binary, err := e.Resolve()
	if err != nil {
		return nil, err
	}
	args := e.backend.Args(opts)

	sessionID := opts.SessionID
	extractor, _ := e.backend.(SessionIDExtractor)

	var msgs []agentexec.Message
	var events []json.RawMessage

	// The line callback runs synchronously on the stdout reader
	// goroutine; nothing else touches msgs/events until Run returns.
	buf := linebuf.New(func(line string) {
		raw := json.RawMessage(line)
		events = append(events, raw)
		if opts.OnEvent != nil {
			opts.OnEvent(raw)
		}

		if extractor != nil && sessionID == "" {
			if id, ok := extractor.SessionID(line); ok {
				sessionID = sanitize.SessionID(id)
			}
		}

		msg, err := e.backend.ParseLine(line)
		if err != nil {
			return // not a message
		}
		msgs = append(msgs, e.stamp(msg))
		if opts.OnMessage != nil {
			opts.OnMessage(msgs[len(msgs)-1])
		}
	})

	res, runErr := runner.Run(ctx, binary, args, runner.Options{
		Dir:         opts.CWD,
		Timeout:     opts.Timeout,
		GracePeriod: e.opts.GracePeriod,
		OnStdout: func(chunk []byte) {
			buf.Add(chunk)
			if opts.OnStdout != nil {
				opts.OnStdout(chunk)
			}
		},
		OnStderr: opts.OnStderr,
	})
	buf.Flush()

	// Whole-document providers: the stream was one JSON document, not
	// line-delimited events, so the line parser saw nothing usable.
	if dp, ok := e.backend.(DocumentParser); ok && len(msgs) == 0 && res.Stdout != "" {
		for _, msg := range dp.ParseDocument(res.Stdout) {
			msgs = append(msgs, e.stamp(msg))
			if opts.OnMessage != nil {
				opts.OnMessage(msgs[len(msgs)-1])
			}
		}
	}

	return e.synthesize(opts, res, runErr, sessionID, msgs, events), nil
}

// stamp fills engine-owned defaults on a parsed message.
func (e *Engine) stamp(msg agentexec.Message) agentexec.Message {
	if msg.Tool == "" {
		msg.Tool = e.backend.Tool()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}

// synthesize builds the immutable result record from whatever the run
// produced.
func (e *Engine) synthesize(
	opts agentexec.ExecuteOptions,
	res runner.Result,
	runErr error,
	sessionID string,
	msgs []agentexec.Message,
	events []json.RawMessage,
) *agentexec.ExecuteResult {
	result := &agentexec.ExecuteResult{
		Success:   runErr == nil && res.ExitCode == 0,
		ExitCode:  res.ExitCode,
		SessionID: sessionID,
		Messages:  msgs,
		Events:    events,
		Stderr:    res.Stderr,
		Duration:  res.Duration,
	}
	if result.SessionID == "" {
		result.SessionID = agentexec.UnknownSessionID
	}

	texts := lo.FilterMap(msgs, func(m agentexec.Message, _ int) (string, bool) {
		if m.Role != agentexec.RoleAssistant {
			return "", false
		}
		t := m.Text()
		return t, t != ""
	})
	result.Text = strings.Join(texts, "\n")

	result.Data = result.Text
	if opts.JSON {
		source := result.Text
		if source == "" {
			source = res.Stdout
		}
		if v, ok := extract.Structured(source); ok {
			result.Data = v
		}
	}

	if !result.Success {
		result.Error = strings.TrimSpace(res.Stderr)
		if result.Error == "" {
			if runErr != nil {
				result.Error = runErr.Error()
			} else {
				result.Error = fmt.Sprintf("exit status %d", res.ExitCode)
			}
		}
	}

	return result
}
