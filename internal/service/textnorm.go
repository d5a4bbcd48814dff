package service

import (
	"sort"
	"strings"
	"unicode"
)

// Synonym groups canonicalised to the lexicographically smallest member.
// Groups (not pairs) guarantee one consistent canonical for a whole
// equivalence class regardless of iteration order.
var synonymGroups = [][]string{
	{"decrease", "lower", "reduce"},
	{"hike", "increase", "raise"},
	{"ban", "forbid", "prohibit"},
	{"allow", "enable", "permit"},
	{"build", "construct"},
	{"buy", "purchase"},
	{"end", "stop", "terminate"},
	{"fix", "repair", "resolve"},
	{"beneficial", "good"},
	{"bad", "detrimental", "harmful"},
	{"clever", "intelligent", "smart"},
	{"foolish", "stupid", "unintelligent"},
	{"fast", "quick", "rapid"},
	{"slow", "sluggish"},
	{"rich", "wealthy"},
	{"impoverished", "poor"},
	{"accurate", "true"},
	{"false", "inaccurate", "incorrect"},
	{"tax", "taxation", "taxes"},
}

var canonicalTokens = func() map[string]string {
	m := make(map[string]string)
	for _, group := range synonymGroups {
		canon := group[0]
		for _, w := range group {
			if w < canon {
				canon = w
			}
		}
		for _, w := range group {
			m[w] = canon
		}
	}
	return m
}()

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "shall": true, "should": true, "may": true,
	"might": true, "must": true, "can": true, "could": true, "nor": true,
	"so": true, "yet": true, "both": true, "either": true, "neither": true,
	"for": true, "and": true, "but": true, "or": true, "as": true, "at": true,
	"by": true, "in": true, "of": true, "on": true, "to": true, "up": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "i": true, "we": true, "you": true, "he": true, "she": true,
	"they": true, "them": true, "their": true, "our": true, "your": true,
	"my": true, "his": true, "her": true,
}

var negationWords = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
}

var antonymPairs = [][2]string{
	{"intelligent", "unintelligent"},
	{"intelligent", "stupid"},
	{"smart", "dumb"},
	{"good", "bad"},
	{"good", "evil"},
	{"true", "false"},
	{"correct", "incorrect"},
	{"honest", "dishonest"},
	{"legal", "illegal"},
	{"moral", "immoral"},
	{"possible", "impossible"},
	{"responsible", "irresponsible"},
	{"relevant", "irrelevant"},
	{"effective", "ineffective"},
	{"efficient", "inefficient"},
	{"logical", "illogical"},
	{"rational", "irrational"},
	{"similar", "dissimilar"},
	{"agree", "disagree"},
	{"like", "dislike"},
	{"trust", "distrust"},
	{"approve", "disapprove"},
	{"beneficial", "harmful"},
	{"safe", "dangerous"},
	// Canonical-form pairs so polarity flips survive synonym canonicalization.
	{"beneficial", "bad"},
	{"clever", "foolish"},
	{"fast", "slow"},
	{"rich", "impoverished"},
	{"accurate", "false"},
}

var antonyms = func() map[string]string {
	m := make(map[string]string)
	for _, p := range antonymPairs {
		m[p[0]] = p[1]
		m[p[1]] = p[0]
	}
	return m
}()

// canonicalize strips text down to its semantically load-bearing tokens:
// lowercase, punctuation removed, stopwords dropped, synonyms mapped to a
// canonical member, and negated antonyms collapsed to the positive form
// ("not unintelligent" -> "intelligent"). The result is sorted so word order
// does not affect comparison.
func canonicalize(text string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || unicode.IsSpace(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	tokens := strings.Fields(sb.String())

	cleaned := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if negationWords[tok] && i+1 < len(tokens) {
			if ant, ok := antonyms[tokens[i+1]]; ok {
				if canon, ok := canonicalTokens[ant]; ok {
					ant = canon
				}
				cleaned = append(cleaned, ant)
				i++
				continue
			}
		}

		if stopwords[tok] || negationWords[tok] {
			continue
		}
		if canon, ok := canonicalTokens[tok]; ok {
			tok = canon
		}
		cleaned = append(cleaned, tok)
	}

	sort.Strings(cleaned)
	return cleaned
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// jaccard returns |A∩B| / |A∪B| over canonical token sets. Two texts that
// both normalize to nothing are treated as identical.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// mechanicalSimilarity is the layer-1 duplication signal: token-set Jaccard
// after canonicalization.
func mechanicalSimilarity(textA, textB string) float64 {
	return jaccard(tokenSet(canonicalize(textA)), tokenSet(canonicalize(textB)))
}

// flipAntonyms maps every token with a known antonym to that antonym. Used to
// detect statements that oppose each other through polarity rather than
// wording.
func flipAntonyms(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if ant, ok := antonyms[t]; ok {
			if canon, ok := canonicalTokens[ant]; ok {
				ant = canon
			}
			out[i] = ant
		} else {
			out[i] = t
		}
	}
	sort.Strings(out)
	return out
}

// opposes reports whether textA reads as the polarity-flipped form of textB:
// the antonym-mapped token set matches markedly better than the plain one.
func opposes(textA, textB string) bool {
	aTokens := canonicalize(textA)
	bSet := tokenSet(canonicalize(textB))

	plain := jaccard(tokenSet(aTokens), bSet)
	flipped := jaccard(tokenSet(flipAntonyms(aTokens)), bSet)

	return flipped >= 0.6 && flipped > plain
}
