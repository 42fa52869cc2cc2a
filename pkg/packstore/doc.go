// Package packstore provides a reusable library for content-addressable
// streaming storage: stable logical names resolve to content identifiers
// through a layered index map, and byte ranges of packed binary containers
// are materialized into memory on demand.
//
// It exposes a single Service interface that orchestrates name resolution,
// storage registration, and chunk reads. Implementations of writable index
// backends (e.g., memory, Postgres, Redis) and file providers (e.g., memory,
// filesystem, S3) are provided under subpackages.
//
// Chunk Lifetime
//
// A Chunk owns at most one resident buffer at a time. GetData materializes
// the buffer through a FileProvider, Unload releases it, and LastAccessTime
// exposes the usage data an external cache manager needs to implement an
// eviction policy. The library itself never evicts; see the cache subpackage
// for a caller-side manager built on the exported data.
package packstore
