// Package main provides the agentexec CLI for running prompts through
// AI-assistant CLIs and browsing their stored sessions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dmora/agentexec"
	"github.com/dmora/agentexec/filter"
	"github.com/dmora/agentexec/provider/claude"
	"github.com/dmora/agentexec/provider/codex"
	"github.com/dmora/agentexec/provider/gemini"
)

var version = "dev"

var toolFlag string

var rootCmd = &cobra.Command{
	Use:     "agentexec",
	Short:   "Run prompts through AI-assistant CLIs and browse their sessions",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&toolFlag, "tool", "claude",
		"provider to use: claude, codex, or gemini (env: AGENTEXEC_TOOL)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newDoctorCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentexec: %v\n", err)
		if code, ok := agentexec.ExitCode(err); ok {
			os.Exit(code)
		}
		os.Exit(1)
	}
}

// newRegistry wires up every shipped provider.
func newRegistry() *agentexec.Registry {
	r := agentexec.NewRegistry()
	r.Register(claude.New())
	r.Register(codex.New())
	r.Register(gemini.New())
	return r
}

// selectedProvider resolves the --tool flag (or AGENTEXEC_TOOL) to a
// registered provider.
func selectedProvider(r *agentexec.Registry) (agentexec.Provider, error) {
	name := toolFlag
	if env := os.Getenv("AGENTEXEC_TOOL"); name == "claude" && env != "" {
		name = env
	}
	p, ok := r.Lookup(agentexec.Tool(name))
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s (have %v)", name, r.Tools())
	}
	return p, nil
}

func newRunCmd() *cobra.Command {
	var (
		model        string
		permMode     string
		sessionID    string
		continueLast bool
		systemPrompt string
		allowed      []string
		disallowed   []string
		images       []string
		cwd          string
		timeout      time.Duration
		jsonMode     bool
		stream       bool
	)

	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Execute one prompt and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := newRegistry()
			p, err := selectedProvider(reg)
			if err != nil {
				return err
			}

			opts := agentexec.ExecuteOptions{
				Prompt:          args[0],
				CWD:             cwd,
				Model:           model,
				PermissionMode:  agentexec.PermissionMode(permMode),
				SessionID:       sessionID,
				Continue:        continueLast,
				SystemPrompt:    systemPrompt,
				AllowedTools:    allowed,
				DisallowedTools: disallowed,
				Images:          images,
				JSON:            jsonMode,
				Timeout:         timeout,
			}
			if stream {
				errs := cmd.ErrOrStderr()
				opts.OnEvent = func(event json.RawMessage) {
					fmt.Fprintln(errs, string(event)) //nolint:errcheck
				}
			}

			result, err := p.Execute(context.Background(), opts)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, jsonMode)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&model, "model", "", "model identifier to request")
	flags.StringVar(&permMode, "permission-mode", "", "permission mode: default, plan, acceptEdits, or bypassPermissions")
	flags.StringVar(&sessionID, "resume", "", "resume the session with the given id")
	flags.BoolVar(&continueLast, "continue", false, "continue the most recent session")
	flags.StringVar(&systemPrompt, "system-prompt", "", "system prompt override (claude only)")
	flags.StringSliceVar(&allowed, "allowed-tools", nil, "tools the assistant may use (claude only)")
	flags.StringSliceVar(&disallowed, "disallowed-tools", nil, "tools the assistant may not use (claude only)")
	flags.StringSliceVar(&images, "image", nil, "image file to attach (codex only, repeatable)")
	flags.StringVar(&cwd, "cwd", "", "working directory for the CLI process")
	flags.DurationVar(&timeout, "timeout", 0, "kill the CLI after this duration (0 means no limit)")
	flags.BoolVar(&jsonMode, "json", false, "extract structured JSON from the response")
	flags.BoolVar(&stream, "stream", false, "echo raw provider events to stderr as they arrive")

	return cmd
}

// printResult renders an execution result. JSON mode prints the
// extracted data; otherwise the assistant text, with failures routed
// to the exit code via ExitError.
func printResult(out io.Writer, result *agentexec.ExecuteResult, jsonMode bool) error {
	if jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Data); err != nil {
			return err
		}
	} else if result.Text != "" {
		fmt.Fprintln(out, result.Text) //nolint:errcheck
	}

	if !result.Success {
		return &agentexec.ExitError{
			Code: result.ExitCode,
			Err:  errors.New(firstLine(result.Error)),
		}
	}
	return nil
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse stored sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var (
		project    string
		limit      int
		formatFlag string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recently updated first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := newRegistry()
			p, err := selectedProvider(reg)
			if err != nil {
				return err
			}
			lister, ok := p.(agentexec.SessionLister)
			if !ok {
				return fmt.Errorf("%s does not support session listing", p.Tool())
			}

			sessions, err := lister.ListSessions(project)
			if err != nil {
				return err
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}
			return writeSessions(cmd.OutOrStdout(), sessions, outputFormat(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&project, "project", "", "project path (default: current directory)")
	flags.IntVar(&limit, "limit", 0, "limit number of sessions returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "", "output format: table, plain, or json (default: table on a TTY)")

	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	var (
		project    string
		formatFlag string
		roles      []string
		toolsOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Render a stored session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := newRegistry()
			p, err := selectedProvider(reg)
			if err != nil {
				return err
			}

			msgs, err := p.LoadSession(args[0], project)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				return fmt.Errorf("session not found: %s", args[0])
			}

			var preds []filter.Predicate
			if len(roles) > 0 {
				rs := make([]agentexec.Role, len(roles))
				for i, r := range roles {
					rs[i] = agentexec.Role(r)
				}
				preds = append(preds, filter.ByRole(rs...))
			}
			if toolsOnly {
				preds = append(preds, filter.HasToolUse())
			}
			msgs = filter.Messages(msgs, preds...)

			return writeTranscript(cmd.OutOrStdout(), msgs, outputFormat(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&project, "project", "", "project path (default: current directory)")
	flags.StringVar(&formatFlag, "format", "", "output format: plain or json (default: plain)")
	flags.StringSliceVar(&roles, "role", nil, "only show messages with these roles (user, assistant, system)")
	flags.BoolVar(&toolsOnly, "tools", false, "only show messages containing tool invocations")

	return cmd
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check which provider CLIs are installed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := newRegistry()

			tw := newTable(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Tool", "Status", "Path"})
			for _, tool := range reg.Tools() {
				p, _ := reg.Lookup(tool)
				path, err := p.Resolve()
				if err != nil {
					tw.AppendRow(table.Row{string(tool), "missing", "-"})
					continue
				}
				tw.AppendRow(table.Row{string(tool), "ok", path})
			}
			tw.Render()
			return nil
		},
	}
}

// outputFormat applies the TTY-sensitive default: tables for humans,
// plain rows for pipes.
func outputFormat(flag string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "plain"
}

func writeSessions(w io.Writer, sessions []agentexec.SessionInfo, format string) error {
	switch format {
	case "table":
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Updated", "Session ID", "Tool", "Path"})
		for _, s := range sessions {
			tw.AppendRow(table.Row{s.UpdatedAt.Format(time.RFC3339), s.ID, string(s.Tool), s.Path})
		}
		if len(sessions) == 0 {
			tw.AppendRow(table.Row{"-", "(no sessions)", "-", "-"})
		}
		tw.Render()
		return nil
	case "plain":
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.UpdatedAt.Format(time.RFC3339), s.ID, s.Tool, s.Path) //nolint:errcheck
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeTranscript(w io.Writer, msgs []agentexec.Message, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	case "plain", "table":
		for _, m := range msgs {
			renderMessage(w, m)
		}
		if usage := agentexec.TotalUsage(msgs); usage != nil {
			fmt.Fprintf(w, "\n[tokens: %d in, %d out]\n", usage.InputTokens, usage.OutputTokens) //nolint:errcheck
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// renderMessage prints one message's blocks in transcript order.
func renderMessage(w io.Writer, m agentexec.Message) {
	stamp := ""
	if !m.Timestamp.IsZero() {
		stamp = " " + m.Timestamp.Format(time.RFC3339)
	}
	fmt.Fprintf(w, "--- %s%s\n", m.Role, stamp) //nolint:errcheck

	for _, block := range m.Content {
		switch b := block.(type) {
		case agentexec.TextBlock:
			fmt.Fprintln(w, b.Text) //nolint:errcheck
		case agentexec.ThinkingBlock:
			fmt.Fprintf(w, "[thinking] %s\n", firstLine(b.Thinking)) //nolint:errcheck
		case agentexec.ToolUseBlock:
			fmt.Fprintf(w, "[tool_use %s] %s\n", b.Name, compactJSON(b.Input)) //nolint:errcheck
		case agentexec.ToolResultBlock:
			label := "tool_result"
			if b.IsError {
				label = "tool_error"
			}
			fmt.Fprintf(w, "[%s] %s\n", label, firstLine(b.Content)) //nolint:errcheck
		case agentexec.SlashCommandBlock:
			fmt.Fprintf(w, "[command] %s %s\n", b.Command, b.Args) //nolint:errcheck
		case agentexec.ImageBlock:
			fmt.Fprintf(w, "[image %s]\n", b.MediaType) //nolint:errcheck
		}
	}
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})
	return tw
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func compactJSON(v any) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
