// Package files holds the client-visible state of the storage bucket and
// orchestrates list, upload, download and delete requests against a Storage
// backend.
//
// # Overview
//
// Orchestrator owns the in-memory list of FileRecord values and the
// UploadTask list of the running batch. Every operation talks to the
// backend through the Storage contract, records failures as notifications
// (see internal/notify) plus a logged error, and publishes the new State to
// subscribers.
//
// # Ordering
//
// Uploads inside one batch are strictly sequential. Only one batch runs at a
// time (ErrUploadInProgress). Overlapping Refresh calls are allowed; the
// response of the most recently issued request wins and stale responses are
// dropped.
//
// # Error Handling
//
// Sentinel errors: ErrUploadInProgress, ErrNotFound, ErrSigningUnsupported.
// Backend errors are wrapped and returned to the caller after notification.
package files
