package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	typescript "github.com/OliverJAsh/plugin-typescript"
)

var (
	errorColor      = color.New(color.FgRed, color.Bold)
	warningColor    = color.New(color.FgYellow, color.Bold)
	suggestionColor = color.New(color.FgCyan)
)

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as
// a CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// outputResultText dispatches to the appropriate text formatter based on
// the result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case CLICompileResult:
		formatCompileText(w, v)
	case CLICheckResult:
		formatCheckText(w, v)
	case []CLIUnit:
		formatUnitsText(w, v)
	case nil:
		// No output for nil results.
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatDiagnosticText renders one diagnostic with a severity-colored
// category, e.g. "src/main.ts:3:7: error TS2304: Cannot find name 'x'."
func formatDiagnosticText(w io.Writer, d CLIDiagnostic) {
	category := d.Category
	switch d.Category {
	case "error":
		category = errorColor.Sprint(d.Category)
	case "warning":
		category = warningColor.Sprint(d.Category)
	case "suggestion":
		category = suggestionColor.Sprint(d.Category)
	}
	if d.Identity != "" && d.Line > 0 {
		fmt.Fprintf(w, "%s:%d:%d: %s TS%d: %s\n", d.Identity, d.Line, d.Col, category, d.Code, d.Message)
		return
	}
	fmt.Fprintf(w, "%s TS%d: %s\n", category, d.Code, d.Message)
}

func formatCompileText(w io.Writer, res CLICompileResult) {
	for _, d := range res.Errors {
		formatDiagnosticText(w, d)
	}
	if !res.Failed {
		fmt.Fprintln(w, res.JSPath)
		fmt.Fprintln(w, res.MapPath)
	}
}

func formatCheckText(w io.Writer, res CLICheckResult) {
	for _, d := range res.Global {
		formatDiagnosticText(w, d)
	}
	for _, d := range res.Diagnostics {
		formatDiagnosticText(w, d)
	}
	if res.ErrorCount == 0 {
		fmt.Fprintln(w, "No errors found.")
	}
}

func formatUnitsText(w io.Writer, units []CLIUnit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IDENTITY\tKIND\tDEPS")
	for _, u := range units {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Identity, u.Kind, strings.Join(u.Deps, ", "))
	}
	tw.Flush()
}

// diagnosticsToCLI converts engine diagnostics to their JSON shape.
func diagnosticsToCLI(diags []typescript.Diagnostic) []CLIDiagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := make([]CLIDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, CLIDiagnostic{
			Identity: d.Identity,
			Category: d.Category.String(),
			Code:     d.Code,
			Message:  d.Message,
			Line:     d.Line,
			Col:      d.Col,
		})
	}
	return out
}

// countErrors counts error-category diagnostics across slices.
func countErrors(lists ...[]CLIDiagnostic) int {
	n := 0
	for _, list := range lists {
		for _, d := range list {
			if d.Category == "error" {
				n++
			}
		}
	}
	return n
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
