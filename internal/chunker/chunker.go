// Package chunker splits message and attachment text into bounded,
// overlapping segments cut at sentence boundaries.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLen is the default maximum segment length in bytes.
const DefaultMaxLen = 1200

// DefaultOverlap is the default number of overlapping bytes carried from
// the previous segment's tail.
const DefaultOverlap = 200

// boundaryWindow is how far the splitter scans backward from a hard cut
// looking for a sentence terminator.
const boundaryWindow = 100

// Splitter cuts text into overlapping segments. It is a pure function over
// its configuration: no I/O, deterministic output.
type Splitter struct {
	maxLen  int
	overlap int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxLen sets the maximum segment length.
func WithMaxLen(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// WithOverlap sets the overlap between consecutive segments.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// New creates a Splitter with the given options. An overlap that meets or
// exceeds the segment length is clamped so the loop always advances.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		maxLen:  DefaultMaxLen,
		overlap: DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.overlap >= s.maxLen {
		s.overlap = s.maxLen / 4
	}

	return s
}

// MaxLen returns the configured maximum segment length.
func (s *Splitter) MaxLen() int { return s.maxLen }

// Overlap returns the configured overlap length.
func (s *Splitter) Overlap() int { return s.overlap }

// Split cuts text into ordered segments. Segments are trimmed of
// surrounding whitespace and empty segments are dropped. Each segment is at
// most MaxLen bytes; consecutive segments share up to Overlap bytes so a
// sentence straddling a cut remains searchable in one piece. Cuts never
// land inside a multi-byte rune.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.maxLen {
		return []string{strings.TrimSpace(text)}
	}

	estimated := len(text)/(s.maxLen-s.overlap) + 1
	segments := make([]string, 0, estimated)

	start := 0
	for start < len(text) {
		end := start + s.maxLen
		switch {
		case end >= len(text):
			end = len(text)
		default:
			end = runeStart(text, end)
			if end == start {
				// A single rune wider than the limit still gets emitted.
				end = start + runeLen(text, start)
			} else {
				end = s.sentenceBoundary(text, start, end)
			}
		}

		if seg := strings.TrimSpace(text[start:end]); seg != "" {
			segments = append(segments, seg)
		}

		if end >= len(text) {
			break
		}

		// The cut may land close enough to start that backing off by the
		// overlap would re-emit the same window. Force advancement.
		next := runeStart(text, end-s.overlap)
		if next <= start {
			next = start + runeLen(text, start)
		}
		start = next
	}

	return segments
}

// runeStart backs i off to the nearest rune boundary at or before it.
func runeStart(text string, i int) int {
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// runeLen is the byte length of the rune starting at i.
func runeLen(text string, i int) int {
	_, size := utf8.DecodeRuneInString(text[i:])
	return size
}

// sentenceBoundary scans backward from the hard cut at end, within the
// boundary window, for a sentence terminator. It returns the position just
// after the terminator, or end unchanged when none is found.
func (s *Splitter) sentenceBoundary(text string, start, end int) int {
	limit := end - boundaryWindow
	if limit < start {
		limit = start
	}

	for i := end - 1; i > limit; i-- {
		switch text[i] {
		case '.', '!', '?':
			return i + 1
		case '\n':
			if i > 0 && text[i-1] == '\n' {
				return i + 1
			}
		}
	}

	return end
}
