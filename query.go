package arbor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// CaptureSet maps capture names (without the @ prefix) to the nodes a single
// query match bound them to.
type CaptureSet map[string]*sitter.Node

// Query is a fluent builder for structural queries over a SourceFile. The
// pattern is a tree-sitter S-expression, optionally carrying extended
// predicates (#eq?, #match?, #any-of?, ...) that are evaluated as a
// post-filter. Build with [SourceFile.Query], narrow with [Query.Within],
// select with [Query.Returning], then run one of the terminal methods.
type Query struct {
	file      *SourceFile
	pattern   string
	scope     *sitter.Node
	returning string
}

// Query starts a structural query over the file.
func (f *SourceFile) Query(pattern string) *Query {
	return &Query{file: f, pattern: pattern}
}

// Within restricts matching to the subtree rooted at node. A nil node leaves
// the scope at the file root.
func (q *Query) Within(node *sitter.Node) *Query {
	q.scope = node
	return q
}

// Returning selects which capture the node-returning terminals yield. The
// name is given without the @ prefix. Unset, the primary node of each match
// is returned instead.
func (q *Query) Returning(captureName string) *Query {
	q.returning = strings.TrimPrefix(captureName, "@")
	return q
}

// Execute runs the query and returns one CaptureSet per surviving match, in
// source order of the match's primary node. A pattern that does not compile
// is reported as a predicate/pattern error.
func (q *Query) Execute() ([]CaptureSet, error) {
	clean := stripPredicates(q.pattern)
	predicates := extractPredicates(q.pattern)

	query, err := sitter.NewQuery([]byte(clean), java.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredicate, err)
	}
	defer query.Close()

	root := q.scope
	if root == nil {
		root = q.file.Root()
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, root)

	var matches []CaptureSet
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		set := CaptureSet{}
		for _, capture := range match.Captures {
			set[query.CaptureNameForId(capture.Index)] = capture.Node
		}
		if len(set) == 0 {
			continue
		}
		if !evaluatePredicates(q.file, set, predicates) {
			continue
		}
		matches = append(matches, set)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := q.primaryNode(matches[i]), q.primaryNode(matches[j])
		if a == nil || b == nil {
			return a != nil
		}
		return a.StartByte() < b.StartByte()
	})
	return matches, nil
}

// Captures runs the query and returns the surviving capture sets, swallowing
// pattern errors into an empty result. Use Execute to observe them.
func (q *Query) Captures() []CaptureSet {
	matches, err := q.Execute()
	if err != nil {
		return nil
	}
	return matches
}

// Nodes runs the query and returns one node per match: the Returning capture
// if set, else the primary node. Matches lacking the selected capture are
// dropped.
func (q *Query) Nodes() []*sitter.Node {
	matches, err := q.Execute()
	if err != nil {
		return nil
	}
	nodes := make([]*sitter.Node, 0, len(matches))
	for _, set := range matches {
		if n := q.primaryNode(set); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// First returns the first node Nodes would return, or nil.
func (q *Query) First() *sitter.Node {
	nodes := q.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Texts returns the source text of each node Nodes would return.
func (q *Query) Texts() []string {
	nodes := q.Nodes()
	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, q.file.TextOf(n))
	}
	return texts
}

var trailingCaptureRe = regexp.MustCompile(`[)\]]\s*@([a-zA-Z_][a-zA-Z0-9_.]*)\s*$`)

// primaryNode picks the node a match stands for: the Returning capture when
// set, the pattern's trailing top-level capture when one exists, else the
// largest-span capture whose name does not look auxiliary.
func (q *Query) primaryNode(set CaptureSet) *sitter.Node {
	if q.returning != "" {
		return set[q.returning]
	}
	if m := trailingCaptureRe.FindStringSubmatch(stripPredicates(q.pattern)); m != nil {
		if n := set[m[1]]; n != nil {
			return n
		}
	}
	var primary *sitter.Node
	var largest int64 = -1
	for name, node := range set {
		if auxiliaryCaptureNames[strings.ToLower(name)] {
			continue
		}
		if span := int64(node.EndByte()) - int64(node.StartByte()); span > largest {
			largest, primary = span, node
		}
	}
	if primary != nil {
		return primary
	}
	for _, node := range set {
		if span := int64(node.EndByte()) - int64(node.StartByte()); span > largest {
			largest, primary = span, node
		}
	}
	return primary
}

// auxiliaryCaptureNames are captures that exist to feed predicates, not to
// name the match itself.
var auxiliaryCaptureNames = map[string]bool{
	"name": true, "value": true, "key": true, "id": true, "identifier": true,
	"type": true, "param": true, "arg": true, "attr": true, "prop": true,
}
