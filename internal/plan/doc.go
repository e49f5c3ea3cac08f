// Package plan resolves a rule file against loaded types without running
// any mapping, producing what the code generator consumes.
//
// Resolution pipeline:
//  1. Validate the rule file against the type graph
//  2. For each mapping, create a type mapper and its engine, then apply
//     the rule file sections through the engine
//  3. Flatten: propose overridable computed rules for members still
//     without one, accepting only pairs with a conversion strategy
//  4. Classify every member rule into a conversion strategy and report
//     unmapped and unconvertible members as diagnostics
package plan
