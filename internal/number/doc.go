// Package number implements the exact rational arithmetic used throughout a
// recipe's lifetime. Quantities parsed from recipe sources are kept as exact
// rationals so that scaling a recipe up or down never accumulates rounding
// error; precision is only sacrificed at display time.
//
// A Number remembers whether it was written as a decimal (e.g. "1.5") or as
// an integer/fraction (e.g. "1 1/2") so that it can be formatted back in the
// style the author used.
package number
