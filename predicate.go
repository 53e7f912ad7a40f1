package arbor

import (
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Predicate evaluation for the extended tree-sitter query operators that the
// C library does not apply itself: #eq?, #not-eq?, #match?, #not-match?,
// #any-of?, #not-any-of?, #contains?, #not-contains?, #is?, #is-not?.
// Predicates are stripped from the pattern before compilation and applied as
// a post-filter over each match's capture map.

var (
	predicateBlockRe = regexp.MustCompile(`\(\s*(#[a-z-]+\?[^)]+)\)`)
	predicateStripRe = regexp.MustCompile(`\s*\(\s*#[a-z-]+\?[^)]+\)`)
	predicateHeadRe  = regexp.MustCompile(`^#([a-z-]+)\?\s*(.*)$`)
	captureArgRe     = regexp.MustCompile(`@([a-zA-Z_][a-zA-Z0-9_]*)`)
	stringArgRe      = regexp.MustCompile(`"([^"\\]*(\\.[^"\\]*)*)"`)
)

// extractPredicates pulls the predicate expressions out of a query pattern,
// in source order.
func extractPredicates(pattern string) []string {
	var preds []string
	for _, m := range predicateBlockRe.FindAllStringSubmatch(pattern, -1) {
		preds = append(preds, strings.TrimSpace(m[1]))
	}
	return preds
}

// stripPredicates returns the pattern with all predicate expressions removed,
// suitable for handing to the tree-sitter compiler.
func stripPredicates(pattern string) string {
	return predicateStripRe.ReplaceAllString(pattern, "")
}

// evaluatePredicates reports whether a match's captures satisfy every
// predicate. An empty predicate list is vacuously true.
func evaluatePredicates(f *SourceFile, match CaptureSet, predicates []string) bool {
	for _, p := range predicates {
		if !evaluatePredicate(f, match, p) {
			return false
		}
	}
	return true
}

func evaluatePredicate(f *SourceFile, match CaptureSet, predicate string) bool {
	head := predicateHeadRe.FindStringSubmatch(predicate)
	if head == nil {
		return false
	}
	name, args := head[1], strings.TrimSpace(head[2])
	switch name {
	case "eq":
		return evalEq(f, match, args)
	case "not-eq":
		return !evalEq(f, match, args)
	case "match":
		return evalMatch(f, match, args)
	case "not-match":
		return !evalMatch(f, match, args)
	case "any-of":
		return evalAnyOf(f, match, args)
	case "not-any-of":
		return !evalAnyOf(f, match, args)
	case "contains":
		return evalContains(f, match, args)
	case "not-contains":
		return !evalContains(f, match, args)
	case "is":
		return evalIs(f, match, args)
	case "is-not":
		return !evalIs(f, match, args)
	default:
		// Unknown predicates (e.g. #set! style annotations written for other
		// tools) must not filter out matches.
		return true
	}
}

func evalEq(f *SourceFile, match CaptureSet, args string) bool {
	argv := parsePredicateArgs(args)
	if len(argv) != 2 {
		return false
	}
	v1, ok1 := resolvePredicateValue(f, match, argv[0])
	v2, ok2 := resolvePredicateValue(f, match, argv[1])
	return ok1 && ok2 && v1 == v2
}

func evalMatch(f *SourceFile, match CaptureSet, args string) bool {
	argv := parsePredicateArgs(args)
	if len(argv) != 2 {
		return false
	}
	value, ok := resolvePredicateValue(f, match, argv[0])
	if !ok {
		return false
	}
	re, err := regexp.Compile(stripQuotes(argv[1]))
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func evalAnyOf(f *SourceFile, match CaptureSet, args string) bool {
	argv := parsePredicateArgs(args)
	if len(argv) < 2 {
		return false
	}
	value, ok := resolvePredicateValue(f, match, argv[0])
	if !ok {
		return false
	}
	for _, candidate := range argv[1:] {
		if value == stripQuotes(candidate) {
			return true
		}
	}
	return false
}

func evalContains(f *SourceFile, match CaptureSet, args string) bool {
	argv := parsePredicateArgs(args)
	if len(argv) != 2 {
		return false
	}
	value, ok := resolvePredicateValue(f, match, argv[0])
	if !ok {
		return false
	}
	return strings.Contains(value, stripQuotes(argv[1]))
}

// evalIs classifies the captured node: definition, reference, or local.
func evalIs(f *SourceFile, match CaptureSet, args string) bool {
	argv := parsePredicateArgs(args)
	if len(argv) != 2 {
		return false
	}
	node := match[strings.TrimPrefix(argv[0], "@")]
	if node == nil {
		return false
	}
	switch stripQuotes(argv[1]) {
	case "definition", "definition.method", "definition.function", "definition.class":
		return isDefinitionNode(node)
	case "reference", "reference.call":
		return isReferenceNode(node)
	case "local":
		return f.ParentOfType(node, "method_declaration") != nil ||
			f.ParentOfType(node, "constructor_declaration") != nil
	default:
		return false
	}
}

func isDefinitionNode(node *sitter.Node) bool {
	t := node.Type()
	return strings.Contains(t, "declaration") ||
		strings.Contains(t, "definition") ||
		t == "class" || t == "interface"
}

func isReferenceNode(node *sitter.Node) bool {
	t := node.Type()
	return strings.Contains(t, "call") ||
		strings.Contains(t, "invocation") ||
		strings.Contains(t, "reference") ||
		t == "identifier"
}

// parsePredicateArgs extracts the @capture and "string" tokens of a predicate
// argument list, ordered by their position in the text.
func parsePredicateArgs(args string) []string {
	type span struct{ start, end int }
	var spans []span
	for _, loc := range stringArgRe.FindAllStringIndex(args, -1) {
		spans = append(spans, span{loc[0], loc[1]})
	}
	for _, loc := range captureArgRe.FindAllStringIndex(args, -1) {
		spans = append(spans, span{loc[0], loc[1]})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	argv := make([]string, 0, len(spans))
	for _, s := range spans {
		argv = append(argv, args[s.start:s.end])
	}
	return argv
}

// resolvePredicateValue turns an argument token into comparable text: the
// captured node's source text for @captures, the unquoted literal for
// strings. A capture absent from the match resolves to nothing.
func resolvePredicateValue(f *SourceFile, match CaptureSet, arg string) (string, bool) {
	if strings.HasPrefix(arg, "@") {
		node := match[arg[1:]]
		if node == nil {
			return "", false
		}
		return f.TextOf(node), true
	}
	if strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`) {
		return stripQuotes(arg), true
	}
	return arg, true
}

func stripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
