// Package capability provides local implementations of the execution
// context: interpreters, a confined workspace, document search, and SQLite.
package capability

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"toolcall/internal/tools"
)

// Options selects and bounds the local capabilities.
type Options struct {
	Workspace      string
	SQLitePath     string
	PythonBin      string
	NodeBin        string
	ExecTimeout    time.Duration
	MaxFileBytes   int64
	MaxOutputBytes int
	MaxRows        int
	// Disable names capabilities (tools.Cap*) to leave unset.
	Disable []string
	Logger  *zap.Logger
}

// Build assembles an ExecutionContext. The returned close function
// releases the SQLite handle and is always safe to call.
func Build(opts Options) (tools.ExecutionContext, func() error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() error { return nil }
	disabled := make(map[string]bool, len(opts.Disable))
	for _, name := range opts.Disable {
		disabled[strings.ToLower(strings.TrimSpace(name))] = true
	}
	enabled := func(name string) bool { return !disabled[strings.ToLower(name)] }

	workspace, err := NewWorkspace(opts.Workspace, opts.MaxFileBytes)
	if err != nil {
		return tools.ExecutionContext{}, noop, fmt.Errorf("workspace: %w", err)
	}

	var ec tools.ExecutionContext
	if enabled(tools.CapReadFile) {
		ec.ReadFile = workspace.ReadFile
	}
	if enabled(tools.CapWriteFile) {
		ec.WriteFile = workspace.WriteFile
	}
	if enabled(tools.CapListFiles) {
		ec.ListFiles = workspace.ListFiles
	}
	if enabled(tools.CapSearchDocuments) {
		ec.SearchDocuments = NewDocumentIndex(workspace).Search
	}
	if enabled(tools.CapAnalyzeImage) {
		ec.AnalyzeImage = NewImageInspector(workspace).Analyze
	}

	if enabled(tools.CapRunPython) && opts.PythonBin != "" {
		python := NewPythonRunner(opts.PythonBin, workspace.Root(), opts.ExecTimeout, opts.MaxOutputBytes)
		if python.Available() {
			ec.RunPython = python.Run
		} else {
			logger.Debug("python interpreter not found", zap.String("bin", opts.PythonBin))
		}
	}
	if enabled(tools.CapRunJavaScript) && opts.NodeBin != "" {
		node := NewNodeRunner(opts.NodeBin, workspace.Root(), opts.ExecTimeout, opts.MaxOutputBytes)
		if node.Available() {
			ec.RunJavaScript = node.Run
		} else {
			logger.Debug("node interpreter not found", zap.String("bin", opts.NodeBin))
		}
	}

	closer := noop
	if enabled(tools.CapExecuteSQL) {
		store, err := OpenSQLStore(opts.SQLitePath, opts.MaxRows)
		if err != nil {
			return tools.ExecutionContext{}, noop, err
		}
		ec.ExecuteSQL = store.Execute
		closer = store.Close
	}

	logger.Debug("capabilities ready",
		zap.String("workspace", workspace.Root()),
		zap.Strings("available", ec.Available()))
	return ec, closer, nil
}
