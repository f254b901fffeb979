// Package document renders submissions into downloadable documents behind the
// narrow Renderer interface. PDFRenderer is the statically linked default.
package document
