// Package compiler provides the toyc scanner, parser and code generator
// that target the toyc 16-bit CPU assembly language.
//
// Pipeline: source → Scanner → TokenStream → Parser → *Program → Generate → assembly text
package compiler
