package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIDiagnostic is a JSON-friendly diagnostic.
type CLIDiagnostic struct {
	Identity string `json:"identity,omitempty"`
	Category string `json:"category"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
}

// CLICompileResult reports one compile run.
type CLICompileResult struct {
	Identity string          `json:"identity"`
	Failed   bool            `json:"failed"`
	Errors   []CLIDiagnostic `json:"errors,omitempty"`
	JSPath   string          `json:"js_path,omitempty"`
	MapPath  string          `json:"map_path,omitempty"`
}

// CLICheckResult reports one whole-program check.
type CLICheckResult struct {
	Global      []CLIDiagnostic `json:"global,omitempty"`
	Diagnostics []CLIDiagnostic `json:"diagnostics,omitempty"`
	ErrorCount  int             `json:"error_count"`
}

// CLIUnit is one unit of a dependency closure.
type CLIUnit struct {
	Identity string   `json:"identity"`
	Kind     string   `json:"kind"`
	Deps     []string `json:"deps,omitempty"`
}
