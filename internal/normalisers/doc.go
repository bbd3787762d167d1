// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type.
//
// Normalisers are registered with the Registry at startup; RegisterDefaults
// adds the built-in text, Markdown, HTML, PDF, DOCX and email normalisers.
package normalisers
