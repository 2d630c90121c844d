// Package agent implements the pokemcp chat client.
//
// The client connects to a pokemcp server over streamable-http or SSE. Its
// HTTP client is built by NewHTTPClient, which asks a session token source
// for the current bearer token on every request. Expiring tokens are
// therefore refreshed transparently, and requests without a usable session
// are sent anonymously.
//
// The REPL offers a small command set:
//
//	pokemon <name>         look up a Pokémon (pokedex tool)
//	weakness <type>        attacking types that hurt a type (type_weakness)
//	effectiveness <type>   defending types a type hurts (type_effectiveness)
//	tools                  list the server's tools
//	whoami                 show the signed-in user
//	login [email]          sign in; the password is read without echo
//	logout                 sign out and delete the stored session
//	help, exit
//
// The prompt shows [AUTH REQUIRED] while no usable token exists. The REPL
// only uses IsAuthenticated, CurrentToken, Login and Logout of the session
// manager (see commands.AuthInterface).
package agent
