// Package diag defines the diagnostic model of dvgen.
//
// Two kinds of failure exist:
//
//   - Input diagnostics: problems in a class-table file (unknown type name, duplicate
//     class, cyclic inheritance, malformed type expression). They are collected in a Bag
//     through a Reporter, carry a primary source.Span and are printed by the CLI.
//   - Internal compiler errors (ICE): broken invariants inside the backend, such as a
//     method without a resolvable slot or a symbol redeclared with a different type.
//     The backend assumes validated input, so an ICE aborts the compilation: Abort panics
//     with *InternalError and the pipeline boundary turns it back into an error via Recover.
//
// Codes are grouped by range: 1xxx hierarchy input, 2xxx project configuration,
// 9xxx internal errors.
package diag
