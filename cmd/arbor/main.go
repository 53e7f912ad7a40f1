package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jward/arbor"
	"github.com/spf13/cobra"
)

var (
	flagRoot    string
	flagFormat  string
	flagNoCache bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "arbor",
	Short:         "Scope-aware source intelligence and refactoring for Java",
	Long:          "Arbor parses Java sources with tree-sitter and answers structural queries, resolves receiver types, and performs scope-aware cross-file renames.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "project root directory")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable the class index cache")

	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(findClassCmd)
	rootCmd.AddCommand(mainClassCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(newFileCmd)
	rootCmd.AddCommand(parseCmd)
}

// resolveRoot returns the absolute project root from --root.
func resolveRoot() (string, error) {
	abs, err := filepath.Abs(flagRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", flagRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// newEngine builds an Engine rooted at root, with the cache at
// <root>/.arbor/index.db unless --no-cache is set.
func newEngine(root string) (*arbor.Engine, error) {
	var opts []arbor.Option
	if !flagNoCache {
		cacheDir := filepath.Join(root, ".arbor")
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", cacheDir, err)
		}
		opts = append(opts, arbor.WithCachePath(filepath.Join(cacheDir, "index.db")))
	}
	return arbor.New(opts...)
}

// parseIntArg parses a positional argument as a positive integer.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	return n, nil
}

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
// can propagate it to Cobra. In JSON mode the error goes to stdout as a
// CLIResult envelope; in text mode to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// --- rename ---

var flagDryRun bool

var renameCmd = &cobra.Command{
	Use:   "rename <file> <line> <col> <new-name>",
	Short: "Rename the declaration at a cursor position, project-wide",
	Long:  "Classifies the identifier under the 1-based cursor position and renames the declaration together with every usage whose receiver resolves to the declaring type. Files are saved unless --dry-run is given.",
	Args:  cobra.ExactArgs(4),
	RunE:  runRename,
}

func init() {
	renameCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report changes without writing files")
}

func runRename(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return outputError("rename", err)
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("rename", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("rename", err)
	}

	eng, err := newEngine(root)
	if err != nil {
		return outputError("rename", err)
	}
	defer eng.Close()

	res, err := eng.RenameAt(context.Background(), root, args[0], line, col, args[3], !flagDryRun)
	if err != nil {
		return outputError("rename", err)
	}

	out := CLIRenameResult{
		OldName:     res.OldName,
		NewName:     res.NewName,
		Kind:        res.Kind.String(),
		Occurrences: res.Occurrences,
		DryRun:      flagDryRun,
	}
	for _, f := range res.ModifiedFiles {
		out.ModifiedFiles = append(out.ModifiedFiles, f.Path())
	}
	return outputResult(CLIResult{Command: "rename", Results: out})
}

// --- resolve ---

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <line> <col>",
	Short: "Resolve the static type of the receiver at a cursor position",
	Args:  cobra.ExactArgs(3),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("resolve", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("resolve", err)
	}
	f, err := arbor.LoadSourceFile(args[0])
	if err != nil {
		return outputError("resolve", err)
	}
	defer f.Close()

	node := f.NodeAt(line, col)
	if node == nil {
		return outputError("resolve", fmt.Errorf("no node at %d:%d", line, col))
	}
	out := CLIResolvedType{
		Receiver: f.TextOf(node),
		Type:     arbor.ResolveReceiverType(f, node),
	}
	return outputResult(CLIResult{Command: "resolve", Results: out})
}

// --- info ---

var infoCmd = &cobra.Command{
	Use:   "info <file> <line> <col>",
	Short: "Describe the node under a cursor position",
	Args:  cobra.ExactArgs(3),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("info", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("info", err)
	}
	f, err := arbor.LoadSourceFile(args[0])
	if err != nil {
		return outputError("info", err)
	}
	defer f.Close()

	node := f.NodeAt(line, col)
	if node == nil {
		return outputError("info", fmt.Errorf("no node at %d:%d", line, col))
	}
	out := CLICursorInfo{
		Text:      f.TextOf(node),
		NodeType:  node.Type(),
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
		Package:   f.PackageName(),
		IsEntity:  f.IsJPAEntity(),
	}
	if kind, _, err := arbor.IdentifierKindAt(f, line, col); err == nil {
		out.Kind = kind.String()
	}
	if out.IsEntity {
		out.EntityName = f.EntityName()
		out.EntityIDType = f.IDFieldType()
	}
	return outputResult(CLIResult{Command: "info", Results: out})
}

// --- find-class ---

var findClassCmd = &cobra.Command{
	Use:   "find-class <name>",
	Short: "Locate the file declaring a class",
	Args:  cobra.ExactArgs(1),
	RunE:  runFindClass,
}

func runFindClass(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return outputError("find-class", err)
	}
	eng, err := newEngine(root)
	if err != nil {
		return outputError("find-class", err)
	}
	defer eng.Close()

	path, err := eng.FindClassAcrossProject(context.Background(), root, args[0])
	if err != nil {
		return outputError("find-class", err)
	}
	return outputResult(CLIResult{Command: "find-class", Results: CLIClassLocation{
		Class: args[0],
		File:  path,
	}})
}

// --- main-class ---

var mainClassCmd = &cobra.Command{
	Use:   "main-class",
	Short: "Locate the project's main class",
	Args:  cobra.NoArgs,
	RunE:  runMainClass,
}

func runMainClass(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return outputError("main-class", err)
	}
	eng, err := newEngine(root)
	if err != nil {
		return outputError("main-class", err)
	}
	defer eng.Close()

	path, class, err := eng.MainClass(context.Background(), root)
	if err != nil {
		return outputError("main-class", err)
	}
	return outputResult(CLIResult{Command: "main-class", Results: CLIClassLocation{
		Class: class,
		File:  path,
	}})
}

// --- files ---

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the project's Java source files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return outputError("files", err)
	}
	eng, err := newEngine(root)
	if err != nil {
		return outputError("files", err)
	}
	defer eng.Close()

	paths, err := eng.JavaFiles(root)
	if err != nil {
		return outputError("files", err)
	}
	out := make([]CLISourceFile, 0, len(paths))
	for _, p := range paths {
		out = append(out, CLISourceFile{Path: p})
	}
	count := len(out)
	return outputResult(CLIResult{Command: "files", Results: out, TotalCount: &count})
}

// --- new-file ---

var flagTemplate string

var newFileCmd = &cobra.Command{
	Use:   "new-file <package> <name>",
	Short: "Create a new Java source file from a template",
	Args:  cobra.ExactArgs(2),
	RunE:  runNewFile,
}

func init() {
	newFileCmd.Flags().StringVar(&flagTemplate, "template", "class", "file template: class|interface|enum|record|annotation|repository")
}

func runNewFile(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return outputError("new-file", err)
	}
	template, err := arbor.ParseFileTemplate(flagTemplate)
	if err != nil {
		return outputError("new-file", err)
	}
	eng, err := newEngine(root)
	if err != nil {
		return outputError("new-file", err)
	}
	defer eng.Close()

	path, err := eng.CreateFile(context.Background(), root, args[0], args[1], template)
	if err != nil {
		return outputError("new-file", err)
	}
	return outputResult(CLIResult{Command: "new-file", Results: CLICreatedFile{
		Path:     path,
		Template: template.String(),
	}})
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse <file> <pattern>",
	Short: "Run a tree-sitter query pattern against a file",
	Long:  "Executes a tree-sitter S-expression pattern, with extended predicate support (#eq?, #match?, #any-of?, ...), and prints the surviving matches.",
	Args:  cobra.ExactArgs(2),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	f, err := arbor.LoadSourceFile(args[0])
	if err != nil {
		return outputError("parse", err)
	}
	defer f.Close()

	matches, err := f.Query(args[1]).Execute()
	if err != nil {
		return outputError("parse", err)
	}
	var out []CLIMatch
	for _, set := range matches {
		m := CLIMatch{Captures: map[string]CLICapture{}}
		for name, node := range set {
			m.Captures[name] = CLICapture{
				Text:      f.TextOf(node),
				NodeType:  node.Type(),
				StartByte: int(node.StartByte()),
				EndByte:   int(node.EndByte()),
			}
		}
		out = append(out, m)
	}
	count := len(out)
	return outputResult(CLIResult{Command: "parse", Results: out, TotalCount: &count})
}
