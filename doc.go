// Package identity exposes a normalized account model (users, roles, external
// logins, claims, lockout and two-factor state) over a pluggable persistence
// collaborator.
//
// Stores:
//   - UserStore implements account lookup, creation, update, and deletion plus
//     role membership, external login linkage, claim attachment, password hash
//     and security stamp storage, email/phone metadata, and lockout/two-factor
//     state. Every mutating operation returns a uniform Result.
//   - RoleStore is the parallel, smaller surface over role records.
//
// Capabilities:
//   - Roles, logins, and claims are independently optional per deployment.
//     Each is enabled at construction with the record constructor for its
//     entity kind, or left disabled, in which case reads answer with empty
//     results and writes are unavailable. See Capability.
//
// Persistence:
//   - The Database interface is the narrow collaborator surface the stores
//     drive; it owns durability, transactions, and key encoding. The
//     repository subpackage provides a Bun-backed implementation.
package identity
