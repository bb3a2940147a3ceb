package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored documents.
// It is generated from document content so reprocessing the same note
// resolves to the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus describes the lifecycle state of a stored document.
// Only active documents participate in similarity search.
type DocumentStatus int

const (
	// DocumentStatusActive marks a document as live and searchable.
	DocumentStatusActive DocumentStatus = iota + 1
	// DocumentStatusArchived marks a document as retained but excluded from retrieval.
	DocumentStatusArchived
)

// DocumentType classifies the kind of source material a note came from.
type DocumentType string

const (
	DocumentTypeLecture  DocumentType = "lecture"
	DocumentTypeNotes    DocumentType = "notes"
	DocumentTypeTextbook DocumentType = "textbook"
	DocumentTypeExercise DocumentType = "exercise"
	DocumentTypeSummary  DocumentType = "summary"
	DocumentTypeOther    DocumentType = "other"
)

// DocumentTypes lists every valid DocumentType value.
var DocumentTypes = []DocumentType{
	DocumentTypeLecture,
	DocumentTypeNotes,
	DocumentTypeTextbook,
	DocumentTypeExercise,
	DocumentTypeSummary,
	DocumentTypeOther,
}

// SpanKind identifies a class of special content found in recognized text.
type SpanKind string

const (
	SpanKindFormula    SpanKind = "formula"
	SpanKindCode       SpanKind = "code"
	SpanKindTable      SpanKind = "table"
	SpanKindDiagramRef SpanKind = "diagram_ref"
)

// BlockKind identifies the semantic role of a text block.
type BlockKind string

const (
	BlockKindTitle     BlockKind = "title"
	BlockKindHeading   BlockKind = "heading"
	BlockKindParagraph BlockKind = "paragraph"
	BlockKindList      BlockKind = "list"
	BlockKindCode      BlockKind = "code"
	BlockKindQuote     BlockKind = "quote"
)

// Difficulty grades a review question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// SpecialSpan is a region of recognized text carrying non-prose content
// such as a formula or a code fragment.
type SpecialSpan struct {
	Kind       SpanKind
	RawText    string  // Text as recognized
	Rendered   string  // Processed form, e.g. LaTeX for a formula
	Offset     int     // Character offset in the source text
	Confidence float64 // Detection confidence in [0,1]
}

// TextBlock is one structural unit of a note.
type TextBlock struct {
	Content  string
	Kind     BlockKind
	Level    int // Heading level (1-6) or list nesting depth
	Metadata map[string]string
}

// HeadingNode is one node of the heading tree extracted from a note.
type HeadingNode struct {
	Text     string
	Level    int
	Offset   int
	Children []HeadingNode
}

// Concept is a key term extracted from a note.
type Concept struct {
	Term       string
	Definition string  // Empty when no definition was found
	Context    string  // Surrounding text the term appeared in
	Importance float64 // Relevance score in [0,1]
}

// RelatedDocument references a historical document surfaced by retrieval.
type RelatedDocument struct {
	Id         ID
	Title      string
	Excerpt    string
	Similarity float64
	CreatedAt  time.Time // Zero when the source record carries no date
}

// CrossReference links a concept in a new note to a historical document.
type CrossReference struct {
	Concept        string
	ReferenceTitle string
	Relationship   string
	Position       string // Where in the new note the link applies
}

// ReviewItem is a generated study question with a reference answer.
type ReviewItem struct {
	Question   string
	Answer     string
	Difficulty Difficulty
	Concept    string // Related concept, empty when none
}

// Flashcard is a front/back study card.
type Flashcard struct {
	Front   string
	Back    string
	Tags    []string
	Concept string
}

// StoredDocument is a processed note persisted in the document store.
// Vector is populated by the indexer or at save time and may be empty
// until then.
type StoredDocument struct {
	Id        ID
	CourseId  string // Retrieval scope; empty for unscoped documents
	Title     string
	Excerpt   string
	Contents  string // Full assembled markdown
	Status    DocumentStatus
	Vector    []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SimilarityCandidate pairs a stored document with its similarity to a query.
// It is a transient read-side projection and is never persisted.
type SimilarityCandidate struct {
	Document   *StoredDocument
	Similarity float64
}
