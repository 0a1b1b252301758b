// Package gmail provides a client for the Gmail API.
//
// The client covers message search, reading, sending, and draft creation.
// Outgoing mail is assembled as an RFC 2822 message with RFC 2047 header
// encoding for non-ASCII subjects, then submitted base64url-encoded the way
// the Gmail API expects.
package gmail
