// Package cli provides the interactive FileDeck terminal client.
//
// It wires configuration, the storage and identity backends, the file
// browser and the authentication flow into a read-eval-print loop.
//
// Key features:
//   - Browse, search, upload, download and delete files
//   - Public and signed links copied to the terminal clipboard (OSC 52)
//   - Email, phone and Google sign-in; password recovery; invite codes
//   - The session survives restarts in the OS keyring
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
