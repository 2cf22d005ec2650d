// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package rpcserver wires the core and ambient packages into a
// stdio JSON-RPC 2.0 tool server using github.com/modelcontextprotocol/go-sdk.
// It registers one tool per external-collaborator concern (edit, read,
// write, shell, search, glob). It logs one structured line for each
// completed edit, read_file, write_file, and shell call and for each edit
// the core rejects; search and glob calls, and calls that fail before
// reaching the core, are not logged.
// The core orchestrator is only ever reached through the "edit" tool's
// handler; every other tool is a thin wrapper around internal/fsio,
// internal/shelltool, or internal/searchtool. Edit calls against the
// same path are serialized with a per-path advisory lock; edits to
// different paths proceed concurrently.
package rpcserver

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/wrenhollow/agentcore/internal/agenterr"
	"github.com/wrenhollow/agentcore/internal/fsio"
	"github.com/wrenhollow/agentcore/internal/pathguard"
	"github.com/wrenhollow/agentcore/internal/searchtool"
	"github.com/wrenhollow/agentcore/internal/shelltool"
	"github.com/wrenhollow/agentcore/pkg/types"
)

// Deps holds injected dependencies for the server.
type Deps struct {
	WorkspaceRoot pathguard.WorkspaceRoot
	Editor        types.Applier
	Shell         *shelltool.Tool
	Logger        zerolog.Logger
	Implementation
}

// Implementation carries the server's self-reported name/version, passed
// straight through to the SDK.
type Implementation struct {
	Name    string
	Version string
}

// Server wires Deps into an *mcp.Server ready to serve over stdio.
type Server struct {
	deps      Deps
	server    *mcp.Server
	locksMu   sync.Mutex
	fileLocks map[string]*refMutex
}

// refMutex is a mutex with a waiter count, so its entry in
// Server.fileLocks can be removed once nothing holds or is waiting on
// it, instead of the map growing by one entry per distinct path ever
// touched over the process lifetime.
type refMutex struct {
	mu   sync.Mutex
	refs int
}

// lockFile serializes edit calls against the same path: read, transform,
// and atomic-rename all happen while the path's mutex is held, while
// edits to other paths proceed in parallel. The returned func releases
// the lock and, once nobody else is waiting on it, drops the path's
// entry from fileLocks.
func (s *Server) lockFile(path string) func() {
	s.locksMu.Lock()
	if s.fileLocks == nil {
		s.fileLocks = make(map[string]*refMutex)
	}
	rm, ok := s.fileLocks[path]
	if !ok {
		rm = &refMutex{}
		s.fileLocks[path] = rm
	}
	rm.refs++
	s.locksMu.Unlock()

	rm.mu.Lock()

	return func() {
		rm.mu.Unlock()
		s.locksMu.Lock()
		rm.refs--
		if rm.refs == 0 {
			delete(s.fileLocks, path)
		}
		s.locksMu.Unlock()
	}
}

// New builds a Server and registers its tools. It does not start serving;
// call Serve to begin processing requests.
func New(deps Deps) (*Server, error) {
	if deps.Editor == nil {
		return nil, fmt.Errorf("rpcserver: Editor is required")
	}
	if deps.Shell == nil {
		deps.Shell = shelltool.New()
	}
	if deps.Implementation.Name == "" {
		deps.Implementation.Name = "agentcore"
	}
	if deps.Implementation.Version == "" {
		deps.Implementation.Version = "dev"
	}
	if reflect.DeepEqual(deps.Logger, zerolog.Logger{}) {
		deps.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	impl := &mcp.Implementation{
		Name:    deps.Implementation.Name,
		Version: deps.Implementation.Version,
	}
	mcpServer := mcp.NewServer(impl, nil)

	s := &Server{deps: deps, server: mcpServer}
	s.registerTools()
	return s, nil
}

// Serve blocks processing JSON-RPC requests over stdin/stdout until ctx
// is canceled or the transport closes.
func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "edit",
		Description: "Replace text in a file using fuzzy search/replace matching.",
	}, s.handleEdit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_file",
		Description: "Read the contents of a text file in the workspace.",
	}, s.handleRead)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "write_file",
		Description: "Create or overwrite a text file in the workspace.",
	}, s.handleWrite)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "shell",
		Description: "Run a shell command in the workspace and capture its combined output.",
	}, s.handleShell)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search file contents in the workspace for a pattern.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "glob",
		Description: "Find files in the workspace matching a glob pattern, including ** for recursive descent.",
	}, s.handleGlob)
}

// EditInput is the edit tool's input: the target file and the old/new
// text to swap, plus a switch to replace every occurrence instead of
// requiring exactly one.
type EditInput struct {
	FilePath   string `json:"filePath"`
	OldString  string `json:"oldString"`
	NewString  string `json:"newString"`
	ReplaceAll bool   `json:"replaceAll,omitempty"`
}

// EditOutput carries the unified diff, replacement count, and the
// winning matcher id for observability.
type EditOutput struct {
	Diff         string `json:"diff"`
	Replacements int    `json:"replacements"`
	Matcher      int    `json:"matcher"`
}

func (s *Server) handleEdit(ctx context.Context, req *mcp.CallToolRequest, in EditInput) (*mcp.CallToolResult, EditOutput, error) {
	start := time.Now()

	safePath, err := pathguard.Resolve(s.deps.WorkspaceRoot, in.FilePath, pathguard.RequireFile)
	if err != nil {
		return toolError[EditOutput](err)
	}

	unlock := s.lockFile(safePath.RelativeToWorkspace())
	defer unlock()

	file, err := fsio.Read(safePath.String())
	if err != nil {
		return toolError[EditOutput](err)
	}

	mode := types.ReplaceFirst
	if in.ReplaceAll {
		mode = types.ReplaceAll
	}

	result, err := s.deps.Editor.Apply(file.Bytes, types.Edit{
		FilePath:   safePath.RelativeToWorkspace(),
		OldContent: in.OldString,
		NewContent: in.NewString,
		Mode:       mode,
	})
	if err != nil {
		s.log("edit", safePath, 0, time.Since(start), err)
		return toolError[EditOutput](err)
	}

	if err := fsio.WriteAtomic(safePath.String(), result.NewBytes); err != nil {
		return toolError[EditOutput](err)
	}

	s.log("edit", safePath, int(result.Matcher), time.Since(start), nil)
	return nil, EditOutput{
		Diff:         result.Diff,
		Replacements: result.Replacements,
		Matcher:      int(result.Matcher),
	}, nil
}

// ReadInput is the read tool's input.
type ReadInput struct {
	FilePath string `json:"filePath"`
}

// ReadOutput is the read tool's output.
type ReadOutput struct {
	Content string `json:"content"`
}

func (s *Server) handleRead(ctx context.Context, req *mcp.CallToolRequest, in ReadInput) (*mcp.CallToolResult, ReadOutput, error) {
	start := time.Now()

	safePath, err := pathguard.Resolve(s.deps.WorkspaceRoot, in.FilePath, pathguard.RequireFile)
	if err != nil {
		return toolError[ReadOutput](err)
	}

	file, err := fsio.Read(safePath.String())
	if err != nil {
		return toolError[ReadOutput](err)
	}
	if err := fsio.ValidateUTF8(safePath.String(), file.Bytes); err != nil {
		return toolError[ReadOutput](err)
	}

	s.log("read_file", safePath, 0, time.Since(start), nil)
	return nil, ReadOutput{Content: string(file.Bytes)}, nil
}

// WriteInput is the write tool's input.
type WriteInput struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

// WriteOutput is the write tool's output.
type WriteOutput struct {
	BytesWritten int `json:"bytesWritten"`
}

func (s *Server) handleWrite(ctx context.Context, req *mcp.CallToolRequest, in WriteInput) (*mcp.CallToolResult, WriteOutput, error) {
	start := time.Now()

	safePath, err := pathguard.Resolve(s.deps.WorkspaceRoot, in.FilePath, pathguard.AllowMissing)
	if err != nil {
		return toolError[WriteOutput](err)
	}

	if err := fsio.ValidateUTF8(safePath.String(), []byte(in.Content)); err != nil {
		return toolError[WriteOutput](err)
	}
	if err := fsio.EnsureParentDir(safePath.String()); err != nil {
		return toolError[WriteOutput](err)
	}
	if err := fsio.WriteAtomic(safePath.String(), []byte(in.Content)); err != nil {
		return toolError[WriteOutput](err)
	}

	s.log("write_file", safePath, 0, time.Since(start), nil)
	return nil, WriteOutput{BytesWritten: len(in.Content)}, nil
}

// ShellInput is the shell tool's input.
type ShellInput struct {
	Command        string `json:"command"`
	Dir            string `json:"dir,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// ShellOutput is the shell tool's output.
type ShellOutput struct {
	Output   string `json:"output"`
	ExitCode int    `json:"exitCode"`
}

func (s *Server) handleShell(ctx context.Context, req *mcp.CallToolRequest, in ShellInput) (*mcp.CallToolResult, ShellOutput, error) {
	start := time.Now()

	dir := s.deps.WorkspaceRoot.String()
	if in.Dir != "" {
		safeDir, err := pathguard.Resolve(s.deps.WorkspaceRoot, in.Dir, pathguard.RequireDir)
		if err != nil {
			return toolError[ShellOutput](err)
		}
		dir = safeDir.String()
	}

	result, err := s.deps.Shell.Run(ctx, shelltool.Request{
		Command: in.Command,
		Dir:     dir,
		Timeout: time.Duration(in.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return toolError[ShellOutput](err)
	}

	s.deps.Logger.Info().
		Str("method", "shell").
		Str("dir", dir).
		Dur("duration", time.Since(start)).
		Msg("tool call completed")

	return nil, ShellOutput{Output: result.Output, ExitCode: result.ExitCode}, nil
}

// SearchInput is the search tool's input.
type SearchInput struct {
	Pattern string `json:"pattern"`
}

// SearchOutput is the search tool's output.
type SearchOutput struct {
	Matches []searchtool.Match `json:"matches"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	matches, err := searchtool.Grep(ctx, s.deps.WorkspaceRoot.String(), in.Pattern)
	if err != nil {
		return toolError[SearchOutput](err)
	}
	return nil, SearchOutput{Matches: matches}, nil
}

// GlobInput is the glob tool's input.
type GlobInput struct {
	Pattern string `json:"pattern"`
}

// GlobOutput is the glob tool's output.
type GlobOutput struct {
	Paths []string `json:"paths"`
}

func (s *Server) handleGlob(ctx context.Context, req *mcp.CallToolRequest, in GlobInput) (*mcp.CallToolResult, GlobOutput, error) {
	paths, err := searchtool.Glob(s.deps.WorkspaceRoot.String(), in.Pattern)
	if err != nil {
		return toolError[GlobOutput](err)
	}
	return nil, GlobOutput{Paths: paths}, nil
}

// log emits one structured line per edit/read/write request: method,
// workspace-relative path, matcher id, duration.
func (s *Server) log(method string, path pathguard.SafePath, matcher int, dur time.Duration, err error) {
	ev := s.deps.Logger.Info()
	if err != nil {
		ev = s.deps.Logger.Error().Err(err)
	}
	ev.
		Str("method", method).
		Str("path", path.RelativeToWorkspace()).
		Int("matcher", matcher).
		Dur("duration", dur).
		Msg("tool call completed")
}

// toolError converts a *types.CoreError (or any error) into the (result,
// output, error) triple the SDK expects. The error handed to the SDK is
// the *agenterr.RPCError built by agenterr.FromCore, which carries the
// kind's numeric code and user-message family and unwraps to the
// original error; this package does not read the code itself.
func toolError[T any](err error) (*mcp.CallToolResult, T, error) {
	var zero T
	return nil, zero, agenterr.FromCore(err)
}
