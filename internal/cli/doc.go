// Package cli holds the presentation helpers shared by the pokemcp commands.
//
// The error types map to the process exit codes used by cmd:
//
//	AuthRequiredError  -> 2  no session; run 'pokemcp auth login'
//	AuthExpiredError   -> 2  the session could not be refreshed
//	AuthFailedError    -> 3  the identity provider rejected the credentials
//
// ClassifyConnectionError turns transport errors into a short category for
// user feedback. RenderSessionStatus prints the table behind
// 'pokemcp auth status' and RunWithSpinner wraps slow calls in a progress
// indicator.
package cli
