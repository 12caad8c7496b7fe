package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/praetorian-inc/testweave/pkg/sarif"
	"github.com/praetorian-inc/testweave/pkg/types"
)

// styles holds color formatters for human output
type styles struct {
	testCase *color.Color
	title    *color.Color
	heading  *color.Color
	location *color.Color
	warning  *color.Color
	metadata *color.Color
}

// newStyles creates color formatters. enabled=false yields plain text.
func newStyles(enabled bool) *styles {
	s := &styles{
		testCase: color.New(color.Bold, color.FgHiGreen),
		title:    color.New(color.FgHiWhite),
		heading:  color.New(color.Bold),
		location: color.New(color.FgHiBlue),
		warning:  color.New(color.Bold, color.FgYellow),
		metadata: color.New(color.Faint),
	}

	if !enabled {
		s.testCase.DisableColor()
		s.title.DisableColor()
		s.heading.DisableColor()
		s.location.DisableColor()
		s.warning.DisableColor()
		s.metadata.DisableColor()
	}

	return s
}

// colorEnabled resolves a --color value. "auto" colors only a terminal
// stdout with NO_COLOR unset.
func colorEnabled(mode string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("unknown color mode: %s (want auto, always or never)", mode)
	}
}

func validateFormat(format string) error {
	switch format {
	case "human", "json", "sarif":
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// writeResult renders result in format.
func writeResult(out io.Writer, result *types.ScanResult, format string, s *styles) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "sarif":
		jsonBytes, err := sarif.FromInventory(result.Inventory, version).ToJSON()
		if err != nil {
			return fmt.Errorf("serializing SARIF: %w", err)
		}
		if _, err := out.Write(append(jsonBytes, '\n')); err != nil {
			return fmt.Errorf("writing SARIF output: %w", err)
		}
		return nil
	case "human":
		writeHuman(out, result, s)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeHuman(out io.Writer, result *types.ScanResult, s *styles) {
	inv := result.Inventory

	header := fmt.Sprintf("Scan %s of %s", result.ID, result.Workspace)
	if result.Cycle != "" {
		header += fmt.Sprintf(" (cycle %s)", result.Cycle)
	}
	fmt.Fprintln(out, s.metadata.Sprint(header))

	if len(inv.TestCases) == 0 {
		fmt.Fprintf(out, "\nNo test cases found.\n")
	}

	for _, tc := range inv.TestCases {
		fmt.Fprintln(out)
		if tc.Title != "" {
			fmt.Fprintf(out, "%s  %s\n", s.testCase.Sprint(tc.ID), s.title.Sprint(tc.Title))
		} else {
			fmt.Fprintf(out, "%s\n", s.testCase.Sprint(tc.ID))
		}
		for _, o := range tc.Definitions {
			fmt.Fprintf(out, "  %s %s\n", s.heading.Sprint("defined   "), s.location.Sprint(position(o)))
		}
		for _, o := range tc.References {
			fmt.Fprintf(out, "  %s %s\n", s.heading.Sprint("referenced"), s.location.Sprint(position(o)))
		}
	}

	if len(inv.Diagnostics) > 0 {
		fmt.Fprintf(out, "\n%s\n", s.heading.Sprint("Diagnostics:"))
		for _, d := range inv.Diagnostics {
			fmt.Fprintf(out, "  %s %s: %s\n", s.warning.Sprint("warning"), d.Code, d.Message)
		}
	}

	st := inv.Stats
	fmt.Fprintf(out, "\n%d test cases (%d defined), %d definitions, %d references, %d diagnostics in %d documents\n",
		st.TestCases, st.Defined, st.Definitions, st.References, len(inv.Diagnostics), result.Documents)
}

// position formats an occurrence as path:line:column.
func position(o types.Occurrence) string {
	return fmt.Sprintf("%s:%s", o.Path, o.Location.Source.Start)
}
