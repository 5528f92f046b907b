/*
Package session manages many independent playthroughs by ID.

Each session is guarded by its own reference-counted lock, so concurrent requests
for different sessions never block each other while requests for the same session
are serialized. Finished sessions are archived to a TranscriptStore and dropped from
memory; stepping them again reports domain.ErrSessionAlreadyTerminal.
*/
package session
