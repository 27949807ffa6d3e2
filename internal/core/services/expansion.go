package services

import "strings"

// maxQueryVariants caps how many queries one search fans out to,
// original included. Each variant costs a full vector query.
const maxQueryVariants = 4

// fuzzyThreshold is the minimum similarity ratio for a query word to be
// treated as a misspelling of a known proper noun.
const fuzzyThreshold = 0.8

// businessVocabulary maps domain terms to the synonyms a query should also
// match. Keys with underscores match both their spaced and collapsed
// spellings.
var businessVocabulary = map[string][]string{
	"exit_strategies":            {"severance negotiation", "departure planning", "transition strategy", "career transition", "employment exit"},
	"entrepreneurial_settlement": {"business opportunity conversion", "consulting transition", "alternative arrangement", "business opportunity"},
	"leverage":                   {"utilize", "capitalize on", "employ strategically", "take advantage of", "maximize"},
	"consulting":                 {"advisory", "professional services", "expertise", "guidance", "consultation"},
	"triepod":                    {"tripod", "tri-pod", "triad", "three-pod"},
	"severance":                  {"separation package", "exit package", "departure benefits", "termination benefits"},
	"business_opportunity":       {"commercial opportunity", "venture", "business venture", "entrepreneurial chance"},
	"settlement":                 {"agreement", "arrangement", "resolution", "deal", "negotiated outcome"},
	"favorable_outcome":          {"positive result", "beneficial arrangement", "advantageous deal", "win-win"},
	"strategic_planning":         {"business strategy", "planning", "strategic thinking", "roadmap"},
}

// properNounVariations maps names to spellings that show up in transcripts
// when speech-to-text or typos mangle them.
var properNounVariations = map[string][]string{
	"triepod": {"tripod", "tri-pod", "triad"},
	"claude":  {"cloud", "claud"},
	"ai":      {"artificial intelligence", "machine learning", "ml"},
}

// expandQuery produces the set of query strings to fan out, the original
// first. Vocabulary expansion appends synonym-augmented copies; fuzzy
// expansion substitutes likely misspellings of known proper nouns. The
// result is deduplicated and capped at maxQueryVariants.
func expandQuery(query string, vocabulary, fuzzy bool) []string {
	variants := []string{query}
	seen := map[string]struct{}{strings.ToLower(query): {}}

	add := func(v string) {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup || len(variants) >= maxQueryVariants {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}

	lower := strings.ToLower(query)

	if vocabulary {
		for key, synonyms := range businessVocabulary {
			spaced := strings.ReplaceAll(key, "_", " ")
			collapsed := strings.ReplaceAll(key, "_", "")
			if !strings.Contains(lower, spaced) && !strings.Contains(lower, collapsed) {
				continue
			}
			for _, syn := range synonyms {
				if !strings.Contains(lower, syn) {
					add(query + " " + syn)
				}
			}
		}
	}

	if fuzzy {
		for _, word := range strings.Fields(lower) {
			for noun, spellings := range properNounVariations {
				if matchRatio(word, noun) <= fuzzyThreshold {
					continue
				}
				for _, alt := range spellings {
					if alt != word {
						add(strings.ReplaceAll(lower, word, alt))
					}
				}
			}
		}
	}

	return variants
}

// matchRatio is a similarity ratio over two strings: twice the number of
// matching characters found by repeatedly taking the longest common
// substring, divided by the total length. Equal strings score 1.0.
func matchRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	m := matchingChars(a, b)
	return 2.0 * float64(m) / float64(len(a)+len(b))
}

// matchingChars counts characters covered by common substrings: find the
// longest common substring, then recurse into the unmatched prefixes and
// suffixes on either side.
func matchingChars(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonSubstring(a, b string) (ai, bi, size int) {
	// lengths[j] is the common-suffix length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
