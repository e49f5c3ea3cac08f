// Package compile turns the resolved plan of a type mapper into a callable
// transform.
//
// Two backends share one instruction list:
//   - ModeDelegate interprets the instructions on every call
//   - ModeGenerated specialises one closure per instruction at build time
//
// Both produce identical results. Ignore instructions never touch the
// destination member, which keeps whatever the construction step produced.
package compile
