package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatRenameText renders a rename result as readable text.
func formatRenameText(w io.Writer, r CLIRenameResult) {
	verb := "Renamed"
	if r.DryRun {
		verb = "Would rename"
	}
	fmt.Fprintf(w, "%s %s %s -> %s (%d occurrence(s))\n", verb, r.Kind, r.OldName, r.NewName, r.Occurrences)
	for _, f := range r.ModifiedFiles {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

// formatMatchesText renders query matches as aligned columns.
func formatMatchesText(w io.Writer, matches []CLIMatch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CAPTURE\tTYPE\tSPAN\tTEXT")
	for _, m := range matches {
		names := make([]string, 0, len(m.Captures))
		for name := range m.Captures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c := m.Captures[name]
			text := c.Text
			if idx := strings.IndexByte(text, '\n'); idx >= 0 {
				text = text[:idx] + "..."
			}
			fmt.Fprintf(tw, "@%s\t%s\t[%d,%d)\t%s\n", name, c.NodeType, c.StartByte, c.EndByte, text)
		}
	}
	tw.Flush()
}

// formatFilesText renders discovered source files, one per line.
func formatFilesText(w io.Writer, files []CLISourceFile) {
	for _, f := range files {
		fmt.Fprintln(w, f.Path)
	}
}

// formatCursorInfoText renders cursor info as key: value lines.
func formatCursorInfoText(w io.Writer, info CLICursorInfo) {
	fmt.Fprintf(w, "Text: %s\n", info.Text)
	fmt.Fprintf(w, "Node: %s [%d,%d)\n", info.NodeType, info.StartByte, info.EndByte)
	if info.Kind != "" {
		fmt.Fprintf(w, "Kind: %s\n", info.Kind)
	}
	if info.Package != "" {
		fmt.Fprintf(w, "Package: %s\n", info.Package)
	}
	if info.IsEntity {
		fmt.Fprintf(w, "Entity: %s (id type %s)\n", info.EntityName, info.EntityIDType)
	}
}

// outputResultText dispatches to the text formatter for the result type and
// writes to stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case CLIRenameResult:
		formatRenameText(w, v)
	case CLIResolvedType:
		if v.Type == "" {
			fmt.Fprintf(w, "%s: unresolved\n", v.Receiver)
		} else {
			fmt.Fprintf(w, "%s: %s\n", v.Receiver, v.Type)
		}
	case CLICursorInfo:
		formatCursorInfoText(w, v)
	case CLIClassLocation:
		fmt.Fprintf(w, "%s\t%s\n", v.Class, v.File)
	case []CLISourceFile:
		formatFilesText(w, v)
	case CLICreatedFile:
		fmt.Fprintf(w, "Created %s (%s)\n", v.Path, v.Template)
	case []CLIMatch:
		formatMatchesText(w, v)
	case nil:
		// No output for empty results.
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
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
