// Package auditchain implements the hash-chained audit log for crop
// tokenization events.
//
// Every state-changing operation appends one entry. Each entry records the
// CurrentHash of its predecessor as PreviousHash, so a retroactive edit to
// any stored entry is detectable by Verify. The first entry chains from
// GenesisHash (64 hex zeros); an empty trail is valid by definition.
//
// Two implementations of the Chain interface are provided:
//   - MemoryChain: in-process, for testing and development.
//   - PostgresChain: durable, for production use.
package auditchain
