// Package storage defines persistence interfaces and serialization for the
// document store.
//
// The DocumentRepository interface is the single storage abstraction the
// retrieval and indexing layers depend on. The concrete BadgerDB-backed
// implementation lives in storage/badger.
//
// Stored documents are serialized with the MUS binary format; the codecs are
// hand-written against the mus-go primitive serializers.
package storage
