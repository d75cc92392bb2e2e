//go:build protozoa_strict

package numeric

const strictDefault = true
