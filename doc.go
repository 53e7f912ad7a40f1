// Package arbor provides deterministic, scope-aware source intelligence and
// refactoring for Java, built on tree-sitter.
//
// The core abstraction is [SourceFile]: one file's text plus the concrete
// syntax tree derived from it. Structural questions are asked with the fluent
// [Query] builder (tree-sitter patterns plus predicate filtering), and
// declaration-level lookups live on the same SourceFile surface:
// classes, methods, fields, formal parameters, and local variables.
//
// On top of that sit the scope-aware layers:
//
//   - [ResolveReceiverType] — resolve the static type of a call receiver by
//     walking the lexical scope chain (this, parameters, locals, fields).
//   - [Renamer] — cross-file rename of a declaration together with every
//     usage whose receiver resolves to the declaring type, and nothing else.
//   - Import consistency — [SourceFile.AddImport], [SourceFile.UpdateImport],
//     and [SourceFile.IsClassImported] keep import lists coherent after
//     cross-package renames.
//
// Project-wide operations (file discovery, main-class lookup, rename across
// a source tree) go through [Engine], which caches per-file declaration data
// in SQLite so repeated invocations skip unchanged files.
//
//	eng, err := arbor.New(arbor.WithCachePath("arbor.db"))
//	if err != nil { ... }
//	defer eng.Close()
//
//	res, err := eng.RenameAt(ctx, root, "src/main/java/Calculator.java", 3, 16, "computeSum", true)
package arbor
