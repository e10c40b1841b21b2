/*
Package session hands out exclusive leases over browser sessions.

An editor.Editor never locks: driving one page from two workflows at once
corrupts both. The Manager serializes callers per session key (an account
or site) inside the process and, when configured with a DistributedLocker,
across replicas. It also persists run records under a per-run lease.
*/
package session
