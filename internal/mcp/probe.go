package mcp

import (
	"context"
	"io"

	"github.com/crystaldolphin/context7-launcher/internal/command"
)

// Tool is one tool advertised by the server.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolCall is an optional tool invocation performed during a probe.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// ProbeResult summarizes a successful probe.
type ProbeResult struct {
	ServerName    string `json:"serverName"`
	ServerVersion string `json:"serverVersion"`
	Tools         []Tool `json:"tools"`
	// CallOutput holds the text output of the requested tool call, if any.
	CallOutput string `json:"callOutput,omitempty"`
}

// Probe starts the server described by spec, performs the MCP handshake, lists
// its tools, optionally calls one, and stops the server again. Server stderr
// is copied to stderr when non-nil.
func Probe(ctx context.Context, spec command.ServerCommand, call *ToolCall, stderr io.Writer) (ProbeResult, error) {
	c := newClient(spec, stderr)
	info, err := c.connect(ctx)
	if err != nil {
		return ProbeResult{}, err
	}
	defer c.close()

	tools, err := c.listTools(ctx)
	if err != nil {
		return ProbeResult{}, err
	}
	res := ProbeResult{ServerName: info.Name, ServerVersion: info.Version, Tools: tools}

	if call != nil {
		out, err := c.callTool(ctx, call.Name, call.Arguments)
		if err != nil {
			return res, err
		}
		res.CallOutput = out
	}
	return res, nil
}
