// Package drive provides a client for the Google Drive API, scoped to
// files the application created or the user opened with it
// (drive.file). It covers listing and searching files, uploads,
// folders, and deletion.
package drive
