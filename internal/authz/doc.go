// Package authz implements permission resolution for the platform.
//
// Three layers compose into the single source of truth callers use to
// authorize actions:
//
//   - Resolver computes the role closure: the deduplicated union of all
//     permissions reachable from a user through every role they hold. It
//     never caches, so it always reflects the latest role membership.
//   - Store holds direct per-resource grants that bypass roles.
//   - Authority combines both behind the TTL permission cache. Direct grants
//     and role grants are OR-ed: either is sufficient, neither is necessary.
//
// Every mutation invalidates the affected user's full cached permission set.
// Over-invalidation is preferred to staleness: a single grant change clears
// all of that user's cached checks rather than only the touched tuple.
package authz
