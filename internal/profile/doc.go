// Package profile stores the per-user enrichment record the server attaches
// to an authenticated principal.
//
// A profile is keyed by the identity provider's user id and holds
// application data (favorite Pokémon, battle teams, usage counters). It is an
// enrichment, never a gate: Store.Get returns nil on any failure and
// Store.Create reports failure as false, so a profile outage never rejects a
// request.
//
// Two implementations are provided. RESTStore talks to the Supabase
// PostgREST API with the service role key; SQLiteStore keeps profiles in a
// local SQLite database for deployments without Supabase.
package profile
