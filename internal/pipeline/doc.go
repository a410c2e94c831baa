// Package pipeline builds the HTML that sits between fetched teletext pages
// and the rendered PDF, plus the HTML alternative of the email body.
//
//   - Document layout: one <section> per teletext page from an html/template
//   - CSS injection into the laid out document
//   - Markdown to HTML conversion of the email body via Goldmark
//
// PDF generation is handled by the root teletext package using headless
// Chrome (go-rod).
package pipeline
