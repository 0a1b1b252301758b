// Package docs provides a client for the Google Docs API.
//
// The client supports creating documents, appending text, and reading
// document content either raw or converted to Markdown or plain text.
// File metadata comes from the Drive API, which is why the docs service
// depends on drive in the capability catalog.
package docs
