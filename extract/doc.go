// Package extract turns uploaded document bytes into plain text.
//
// PDFs are detected by their magic header or a .pdf extension and read with
// github.com/ledongthuc/pdf. Anything else must be valid UTF-8 text.
package extract
