package arbor

import (
	"regexp"
	"strings"
	"unicode"
)

// Naming heuristics used when a type rename ripples into variable names:
// a local conventionally named after its type (user of type User, users of
// type List<User>) follows the type to its new name. Also the case
// conversion and pluralization that backs file templates and generated
// variable names.

// CaseFormat identifies a naming convention.
type CaseFormat int

const (
	CaseUnknown CaseFormat = iota
	CaseCamel
	CasePascal
	CaseSnake
	CaseScreamingSnake
	CaseKebab
)

var (
	camelBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separatorRe     = regexp.MustCompile(`[_\-.]+`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

// DetectCase classifies the naming convention of an identifier.
func DetectCase(s string) CaseFormat {
	switch {
	case s == "":
		return CaseUnknown
	case strings.Contains(s, "-"):
		return CaseKebab
	case strings.Contains(s, "_"):
		if s == strings.ToUpper(s) {
			return CaseScreamingSnake
		}
		return CaseSnake
	case unicode.IsUpper(rune(s[0])):
		return CasePascal
	case unicode.IsLower(rune(s[0])):
		return CaseCamel
	default:
		return CaseUnknown
	}
}

// splitWords breaks an identifier in any supported convention into its
// lowercase-comparable words.
func splitWords(s string) []string {
	spaced := camelBoundaryRe.ReplaceAllString(s, "$1 $2")
	spaced = separatorRe.ReplaceAllString(spaced, " ")
	var words []string
	for _, w := range spacesRe.Split(spaced, -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func capitalizeWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

// ToCamelCase converts an identifier in any convention to camelCase.
func ToCamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(capitalizeWord(w))
	}
	return b.String()
}

// ToPascalCase converts an identifier in any convention to PascalCase.
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(capitalizeWord(w))
	}
	return b.String()
}

// ToSnakeCase converts an identifier in any convention to snake_case.
func ToSnakeCase(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// ToScreamingSnakeCase converts an identifier to SCREAMING_SNAKE_CASE.
func ToScreamingSnakeCase(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w)
	}
	return strings.Join(words, "_")
}

// ToKebabCase converts an identifier in any convention to kebab-case.
func ToKebabCase(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// PascalToCamel lowercases only the first character.
func PascalToCamel(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// CamelToPascal uppercases only the first character.
func CamelToPascal(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Pluralize applies basic English pluralization to a single lowercase word.
func Pluralize(word string) string {
	switch {
	case word == "":
		return word
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(word[len(word)-2]):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"),
		strings.HasSuffix(word, "z"), strings.HasSuffix(word, "ch"),
		strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// PluralizeCamelCase pluralizes the last word of a camelCase or PascalCase
// identifier, preserving the leading words: shoppingCart becomes
// shoppingCarts, Category becomes Categories.
func PluralizeCamelCase(s string) string {
	if s == "" {
		return s
	}
	idx := lastUpperBoundary(s)
	head, last := s[:idx], s[idx:]
	upper := last != "" && unicode.IsUpper(rune(last[0]))
	plural := Pluralize(strings.ToLower(last))
	if upper {
		plural = CamelToPascal(plural)
	}
	return head + plural
}

// lastUpperBoundary returns the index where the final camel word starts.
func lastUpperBoundary(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		if unicode.IsUpper(rune(s[i])) {
			return i
		}
	}
	return 0
}

// collectionTypePrefixes are the collection spellings the variable naming
// heuristics recognize.
var collectionTypePrefixes = []string{
	"List<", "Set<", "ArrayList<", "LinkedList<",
	"HashSet<", "LinkedHashSet<", "TreeSet<", "Collection<",
}

// IsCollectionType reports whether a type's source text spells a known
// collection of some element type.
func IsCollectionType(typeText string) bool {
	for _, prefix := range collectionTypePrefixes {
		if strings.HasPrefix(typeText, prefix) {
			return true
		}
	}
	return false
}

// GenerateVariableName derives the conventional variable name for a type:
// User becomes user, and a collection of User becomes users.
func GenerateVariableName(typeName string, isCollection bool) string {
	if isCollection {
		return PascalToCamel(PluralizeCamelCase(typeName))
	}
	return PascalToCamel(typeName)
}

// ShouldRenameVariable reports whether a variable follows the naming
// convention for its type, and so should track a rename of that type.
func ShouldRenameVariable(currentName, typeName string, isCollection bool) bool {
	return currentName == GenerateVariableName(typeName, isCollection)
}

// GenerateNewVariableName returns the variable's name after its type is
// renamed: the conventional name for the new type when the current name was
// conventional for the old one, otherwise the current name unchanged.
func GenerateNewVariableName(currentName, oldTypeName, newTypeName string, isCollection bool) string {
	if ShouldRenameVariable(currentName, oldTypeName, isCollection) {
		return GenerateVariableName(newTypeName, isCollection)
	}
	return currentName
}
