// Package query answers questions about a session's document.
//
// Ask records the question on the session before doing anything that can
// fail, then embeds it, retrieves the nearest chunks from the session's own
// namespace and asks the generator to answer from that context. Malformed
// generator replies are replaced with MalformedAnswer so the transcript
// always holds text.
//
// A failure after the question is recorded leaves it in the transcript with
// no answer appended.
package query
