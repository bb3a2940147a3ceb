package badger

import "testing"

// NewMemoryRepository creates a document repository backed by an in-memory
// database. Intended for tests; the database is closed when the test ends.
func NewMemoryRepository(t *testing.T) *DocumentRepository {
	t.Helper()

	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("open in-memory backend: %v", err)
	}
	t.Cleanup(func() {
		if err := backend.Close(); err != nil {
			t.Errorf("close backend: %v", err)
		}
	})

	repo, err := NewDocumentRepository(backend)
	if err != nil {
		t.Fatalf("create document repository: %v", err)
	}
	return repo
}
