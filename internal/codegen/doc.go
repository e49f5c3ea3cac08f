// Package codegen renders resolved plans as Go source.
//
// Generation uses text/template + go/format for readable, reflection-free
// Go code. One file is produced per type pair, holding one function:
//
//	func StoreOrderToWarehouseOrder(in store.Order) warehouse.Order
//
// Codegen patterns:
//   - Direct assignment and scalar conversion
//   - Pointer wrap/deref with nil checks, nil-guarded nested source reads
//   - Allocation of nil pointers along destination paths
//   - Slice and map mapping (make, loop, per-element conversion)
//   - Nested struct calls (composed generated mappers)
//   - Literal values and named transform calls
//
// Hooks, constructors and unnamed transforms only exist at run time and
// are rejected with ErrNotGeneratable.
package codegen
