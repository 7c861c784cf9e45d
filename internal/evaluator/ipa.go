package evaluator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// closeMatchThreshold is the minimum positional similarity for two IPA
// transcriptions to count as equivalent.
const closeMatchThreshold = 0.8

// ipaSegmentDensity is the minimum share of IPA symbols a segment must
// carry before it is taken as the transcription itself.
const ipaSegmentDensity = 0.5

// Delimiter styles models wrap transcriptions in. The first pattern
// that matches wins and unwraps every occurrence.
var ipaDelimiters = []*regexp.Regexp{
	regexp.MustCompile(`/(.+?)/`),
	regexp.MustCompile(`\[(.+?)\]`),
	regexp.MustCompile(`\((.+?)\)`),
}

var ipaSegmentPattern = regexp.MustCompile(`[^\s,;:]+`)

// ipaSymbols contains the characters treated as IPA notation when
// scoring segment density, including stress marks, length marks and
// combining diacritics.
var ipaSymbols = func() map[rune]struct{} {
	const chars = "ɪiɛeæaɑɔoʊuʌəɚɝɜː̩̯̆͡ˌˈʰʷ.ptksʒʃθðŋnmɹrlvfbdgzʤʧywχѲ"
	set := make(map[rune]struct{}, utf8.RuneCountInString(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}()

// closePairs maps IPA symbols commonly confused across transcription
// conventions. A pair in either direction scores half a match.
var closePairs = map[rune][]rune{
	'i': {'ɪ'},
	'ɪ': {'i'},
	'e': {'ɛ'},
	'ɛ': {'e'},
	'æ': {'a', 'ɑ'},
	'a': {'æ', 'ɑ'},
	'ɑ': {'a', 'æ', 'ɒ'},
	'ɒ': {'ɑ', 'o', 'ɔ'},
	'ɔ': {'o', 'ɒ'},
	'o': {'ɔ', 'ɒ'},
	'u': {'ʊ'},
	'ʊ': {'u'},
	'ʌ': {'ə', 'ɜ'},
	'ə': {'ʌ', 'ɜ', 'ɚ'},
	'ɝ': {'ɚ', 'ɜ'},
	'ɚ': {'ɝ', 'ə'},
	'ɹ': {'r'},
	'r': {'ɹ'},
	't': {'ɾ'},
	'ɾ': {'t'},
}

// NormalizeIPA strips delimiter wrapping from a transcription and, when
// the text still carries prose around it, keeps only the segment
// densest in IPA symbols.
func NormalizeIPA(s string) string {
	for _, re := range ipaDelimiters {
		if re.MatchString(s) {
			s = re.ReplaceAllString(s, "$1")
			break
		}
	}
	s = strings.TrimSpace(s)

	segments := ipaSegmentPattern.FindAllString(s, -1)
	if len(segments) > 0 {
		best := segments[0]
		bestDensity := symbolDensity(best)
		for _, seg := range segments[1:] {
			if d := symbolDensity(seg); d > bestDensity {
				best, bestDensity = seg, d
			}
		}
		if bestDensity > ipaSegmentDensity {
			s = best
		}
	}
	return s
}

func symbolDensity(segment string) float64 {
	total := 0
	hits := 0
	for _, r := range strings.ToLower(segment) {
		total++
		if _, ok := ipaSymbols[r]; ok {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// CloseMatch compares two transcriptions position by position. An
// identical symbol scores a full match, a confusable pair half a
// match, and the sum is scaled by the longer length.
func CloseMatch(a, b string) bool {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return false
	}

	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	score := 0.0
	for i := 0; i < n; i++ {
		switch {
		case ra[i] == rb[i]:
			score += 1.0
		case confusable(ra[i], rb[i]) || confusable(rb[i], ra[i]):
			score += 0.5
		}
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return score/float64(longest) >= closeMatchThreshold
}

func confusable(a, b rune) bool {
	for _, r := range closePairs[a] {
		if r == b {
			return true
		}
	}
	return false
}

// MatchIPA checks a transcription against the expected form and any
// accepted alternatives: exact match after normalization first, then a
// positional close match against the expected form.
func MatchIPA(response, expected string, alternatives []string) bool {
	got := NormalizeIPA(response)
	if got == "" {
		return false
	}
	want := NormalizeIPA(expected)
	if got == want {
		return true
	}
	for _, alt := range alternatives {
		if got == NormalizeIPA(alt) {
			return true
		}
	}
	return CloseMatch(got, want)
}
