// Package retrieval provides vector-similarity search over stored documents.
//
// Search compares a query embedding against every candidate in a course
// scope using cosine similarity, ranks candidates, keeps the top K, and
// then drops anything below the similarity floor. The order matters:
// ranking happens before the floor is applied, so the floor can only
// shrink the result set, never promote a lower-ranked candidate.
package retrieval
