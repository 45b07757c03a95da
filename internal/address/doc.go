// Package address derives stable identifiers for every ledger entity.
//
// An address is a pure function of its lineage: the parent address, the
// kind of entity, and a discriminating seed. No index or registry is
// consulted, so any component can locate an event, ticket class, ticket,
// collaborator, vault, token account, or attendance credential from the
// references it already holds.
//
// Derivation uses BLAKE3 in keyed mode with one domain key per Kind. The
// parent is always 32 bytes, so (parent, seed) maps injectively onto the
// hash input; different kinds never share a key, so a ticket and a vault
// derived from the same parent and seed land on different addresses.
//
// Multi-part seeds must be built with Seed, which length-prefixes each
// part. Concatenating parts directly would let ("ab","c") and ("a","bc")
// collide.
package address
