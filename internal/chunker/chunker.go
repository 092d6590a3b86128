// Package chunker splits extracted segments into model-sized windows.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"answerpath-backend/internal/extract"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 200

// Separators are tried in order; the empty separator splits between runes.
var Separators = []string{"\n\n", "\n", " ", ""}

// Chunk is a window of segment text submitted to the model as one unit.
// Position is inherited from the segment the chunk was cut from. Start and
// End are rune offsets of Text inside that segment.
type Chunk struct {
	Index    int
	Text     string
	Position *int
	Start    int
	End      int
}

// Chunker splits segment text into overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
	splitter  textsplitter.RecursiveCharacter
}

// Option configures the Chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.overlap),
		textsplitter.WithSeparators(Separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
	return c
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split windows every segment independently and numbers the chunks in order.
// The output is a pure function of the input and the configuration.
func (c *Chunker) Split(segments []extract.Segment) ([]Chunk, error) {
	out := []Chunk{}
	for i, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		texts, err := c.splitter.SplitText(seg.Text)
		if err != nil {
			return nil, fmt.Errorf("split segment %d: %w", i, err)
		}

		prevStart, prevEnd := -1, 0
		for _, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			at := locate(seg.Text, text, prevStart, prevEnd)
			prevStart, prevEnd = at, at+len(text)
			start := utf8.RuneCountInString(seg.Text[:at])
			out = append(out, Chunk{
				Index:    len(out),
				Text:     text,
				Position: copyPosition(seg.Position),
				Start:    start,
				End:      start + utf8.RuneCountInString(text),
			})
		}
	}
	return out, nil
}

// locate returns the byte offset of text in src. Every chunk is a substring
// of its segment that starts after the previous chunk's start and no later
// than the whitespace following the previous chunk's end. Repetitive text
// can match several offsets in that range; the latest one is used.
func locate(src, text string, prevStart, prevEnd int) int {
	bound := prevEnd
	for bound < len(src) {
		r, w := utf8.DecodeRuneInString(src[bound:])
		if !unicode.IsSpace(r) {
			break
		}
		bound += w
	}
	if bound > len(src)-len(text) {
		bound = len(src) - len(text)
	}
	for at := bound; at > prevStart; at-- {
		if utf8.RuneStart(src[at]) && strings.HasPrefix(src[at:], text) {
			return at
		}
	}

	from := prevStart
	if from < 0 {
		from = 0
	}
	if i := strings.Index(src[from:], text); i >= 0 {
		return from + i
	}
	if i := strings.Index(src, text); i >= 0 {
		return i
	}
	return 0
}

func copyPosition(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
