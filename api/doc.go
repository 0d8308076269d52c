// Package api exposes the chat service over HTTP.
//
// Routes live under /api/chat and mirror the browser client: create and list
// sessions, upload a document into a session, ask a question, rename and
// delete. Responses are JSON. Failures are reported as {"error": "..."} with a
// status chosen from the error's category.
package api
