// Package domain defines the core domain models for memkv.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Value: the String/List/Set tagged union stored under a key
//   - Entry: a value plus its last-write time and optional expiry
//   - TTLMarker and ExpiryQueue: the min-ordered expiry schedule
//   - Errors: stable, coded error values shared by store, broker and
//     protocol
package domain
