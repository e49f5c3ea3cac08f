// Package match compares member names: case folding for flattening,
// identifier normalisation, and Levenshtein ranking for "did you mean"
// suggestions on unknown members.
package match
