// Package mcp speaks just enough MCP (JSON-RPC over stdio) to check that a
// launch command really starts a working server.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/crystaldolphin/context7-launcher/internal/command"
)

const protocolVersion = "2024-11-05"

// client manages JSON-RPC communication with a single stdio MCP server.
type client struct {
	spec   command.ServerCommand
	stderr io.Writer

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu     sync.Mutex
	nextID int64
}

func newClient(spec command.ServerCommand, stderr io.Writer) *client {
	if stderr == nil {
		stderr = io.Discard
	}
	return &client{spec: spec, stderr: stderr}
}

// connect starts the server subprocess and performs the initialize handshake.
func (c *client) connect(ctx context.Context) (serverInfo, error) {
	c.cmd = exec.CommandContext(ctx, c.spec.Executable, c.spec.Args...)
	c.cmd.Env = os.Environ()
	for k, v := range c.spec.Env {
		c.cmd.Env = append(c.cmd.Env, k+"="+v)
	}
	c.cmd.Stderr = c.stderr

	stdinPipe, err := c.cmd.StdinPipe()
	if err != nil {
		return serverInfo{}, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutPipe, err := c.cmd.StdoutPipe()
	if err != nil {
		return serverInfo{}, fmt.Errorf("stdout pipe: %w", err)
	}
	c.stdin = stdinPipe
	c.stdout = bufio.NewReader(stdoutPipe)

	if err := c.cmd.Start(); err != nil {
		return serverInfo{}, fmt.Errorf("start MCP server: %w", err)
	}

	info, err := c.initialize(ctx)
	if err != nil {
		c.close()
		return serverInfo{}, fmt.Errorf("initialize: %w", err)
	}
	return info, nil
}

// close stops the server subprocess.
func (c *client) close() {
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill() //nolint:errcheck
		_ = c.cmd.Wait()
	}
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (c *client) initialize(ctx context.Context) (serverInfo, error) {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "context7-launcher", "version": "1.0"},
	}
	resp, err := c.call(ctx, "initialize", params)
	if err != nil {
		return serverInfo{}, err
	}
	var result struct {
		ServerInfo serverInfo `json:"serverInfo"`
	}
	_ = json.Unmarshal(resp, &result)

	// Send initialized notification (no response expected)
	notif := map[string]any{"jsonrpc": "2.0", "method": "notifications/initialized"}
	data, _ := json.Marshal(notif)
	_, _ = fmt.Fprintf(c.stdin, "%s\n", data)
	return result.ServerInfo, nil
}

// listTools returns the tools exposed by the server.
func (c *client) listTools(ctx context.Context) ([]Tool, error) {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// callTool invokes a named tool with the given arguments and joins its text output.
func (c *client) callTool(ctx context.Context, toolName string, args map[string]any) (string, error) {
	payload := map[string]any{
		"name":      toolName,
		"arguments": args,
	}
	resp, err := c.call(ctx, "tools/call", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return string(resp), nil
	}

	var parts []string
	for _, block := range result.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}

	out := strings.Join(parts, "\n")
	if out == "" {
		out = "(no output)"
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// JSON-RPC plumbing
// ---------------------------------------------------------------------------

func (c *client) nextRequestID() int64 {
	return atomic.AddInt64(&c.nextID, 1)
}

func (c *client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextRequestID()
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.stdin, "%s\n", data); err != nil {
		return nil, fmt.Errorf("write to MCP stdin: %w", err)
	}

	// Read response lines until we get one with our id.
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		line, err := c.stdout.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read MCP stdout: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var resp struct {
			ID     *int64          `json:"id"`
			Result json.RawMessage `json:"result"`
			Error  *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			continue // skip non-JSON lines (server log output)
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("MCP error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	}
}
