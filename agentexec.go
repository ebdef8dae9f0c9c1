// Package agentexec drives AI-assistant CLI tools (Claude Code, Codex,
// Gemini) through one uniform API and reconstructs the conversation
// history each tool persists to disk in its own format.
//
// The root package defines the shared vocabulary for all providers:
//
//   - [Message] — the provider-agnostic representation of one conversation turn
//   - [ContentBlock] — one typed unit of message content (text, tool use,
//     tool result, thinking, image, slash command)
//   - [ExecuteOptions] / [ExecuteResult] — the immutable request/response
//     pair for one CLI invocation
//   - [PermissionMode] — a provider-agnostic approval-level setting, mapped
//     by each provider onto its own flag vocabulary
//   - [Provider] — the per-tool implementation surface, collected in a
//     [Registry] keyed by [Tool]
//
// Provider packages (provider/claude, provider/codex, provider/gemini)
// translate this vocabulary into their wire formats. The generic subprocess
// orchestration lives in the engine package.
//
// # Quick Start
//
//	p := claude.New()
//	res, err := p.Execute(ctx, agentexec.ExecuteOptions{
//	    Prompt: "Summarize this repo",
//	    CWD:    "/work/repo",
//	})
//	if err != nil { log.Fatal(err) } // binary not installed
//	fmt.Println(res.Text)
package agentexec
