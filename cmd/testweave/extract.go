package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/pkg/enum"
	"github.com/praetorian-inc/testweave/pkg/serve"
	"github.com/praetorian-inc/testweave/pkg/tcid"
	"github.com/praetorian-inc/testweave/pkg/types"
)

var (
	extractJSON bool
	checkJSON   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [FILE|-]",
	Short: "Print the test case identifiers in a file",
	Long: `Print every test case identifier in FILE (or stdin when FILE is "-" or
omitted) with its line, column and byte offsets. Text is extracted from
.pdf, .docx and .xlsx files first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var checkCmd = &cobra.Command{
	Use:   "check ID...",
	Short: "Validate test case identifiers",
	Long: `Check that each argument, with surrounding whitespace trimmed, is a
complete test case identifier. Invalid identifiers are reported with the
reason and make the command fail.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Output JSON")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output JSON")
}

// extracted is the JSON form of one scanned text.
type extracted struct {
	Source  string       `json:"source"`
	Matches []tcid.Match `json:"matches"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	name := "-"
	if len(args) == 1 {
		name = args[0]
	}

	texts, err := readTexts(cmd.InOrStdin(), name)
	if err != nil {
		return err
	}

	results := make([]extracted, 0, len(texts))
	for _, t := range texts {
		results = append(results, extracted{Source: t.source, Matches: serve.Extract(t.text).Matches})
	}

	out := cmd.OutOrStdout()
	if extractJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	for i, r := range results {
		lines := types.NewLineIndex(texts[i].text)
		for _, m := range r.Matches {
			fmt.Fprintf(out, "%s:%s\t%s\t[%d,%d)\n", r.Source, lines.Position(m.Start), m.ID, m.Start, m.End)
		}
	}
	return nil
}

type namedText struct {
	source string
	text   string
}

// readTexts loads name ("-" for stdin) as UTF-8 text, extracting the text
// parts of binary documents.
func readTexts(stdin io.Reader, name string) ([]namedText, error) {
	var (
		content []byte
		err     error
	)
	if name == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	if name != "-" && enum.IsExtractable(filepath.Ext(name)) {
		parts, err := enum.ExtractText(name, content)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", name, err)
		}
		texts := make([]namedText, 0, len(parts))
		for _, p := range parts {
			texts = append(texts, namedText{source: name + ":" + p.Name, text: string(p.Content)})
		}
		return texts, nil
	}

	decoded, err := enum.DecodeText(content)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return []namedText{{source: name, text: string(decoded)}}, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ids := make([]string, len(args))
	for i, a := range args {
		ids[i] = tcid.Normalize(a)
	}
	result := serve.Validate(ids)

	out := cmd.OutOrStdout()
	invalid := 0
	for _, v := range result.Results {
		if !v.Valid {
			invalid++
		}
	}

	if checkJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		for _, v := range result.Results {
			if v.Valid {
				fmt.Fprintf(out, "ok       %s\n", v.ID)
			} else {
				fmt.Fprintf(out, "invalid  %q: %s\n", v.ID, v.Reason)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d identifiers are invalid", invalid, len(ids))
	}
	return nil
}
