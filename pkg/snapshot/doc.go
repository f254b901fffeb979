// Package snapshot builds the file-free, label-keyed record of a submitted
// form. Combined-field groups collapse into a single entry so every value
// appears exactly once.
package snapshot
