package textnorm

import (
	"regexp"
	"strings"
)

// Tier classifications derived from token matching against synonym sets.
const (
	TierGoldCopper = "gold_copper"
	TierSilver     = "silver"
	TierOther      = "other"
)

var (
	tokenPattern = regexp.MustCompile(`(?i)[a-z0-9çğıöşü]+`)

	legacyGoldSilverSuffix = regexp.MustCompile(`(?i)\(\s*gold\s*,\s*silver\s*\)\s*$`)

	tierSuffixPattern = regexp.MustCompile(
		`(?i)\(\s*(?:silver|gumus|gümüş|gümus|gold|altin|altın|copper|bakir|bakır|bronze|pirinc|pirinç|rosegold)` +
			`(?:\s*,\s*(?:silver|gumus|gümüş|gümus|gold|altin|altın|copper|bakir|bakır|bronze|pirinc|pirinç|rosegold))*\s*\)\s*$`)

	spaceRun         = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.)\]])`)
	spaceAfterPunct  = regexp.MustCompile(`([(\[])\s+`)
)

// stopTokens are sizing/connective filler words that carry no matching signal.
var stopTokens = map[string]struct{}{
	"cm": {}, "x": {}, "adet": {}, "li": {}, "ve": {}, "ile": {},
	"icin": {}, "için": {},
	"metal": {}, "ahsap": {}, "ahşap": {}, "cam": {},
	"boyali": {}, "boyalı": {}, "kaplama": {},
}

var silverTokens = map[string]struct{}{
	"silver": {}, "gumus": {}, "gümüş": {}, "gümus": {},
}

var goldCopperTokens = map[string]struct{}{
	"gold": {}, "altin": {}, "altın": {},
	"copper": {}, "bakir": {}, "bakır": {},
	"bronze": {}, "pirinc": {}, "pirinç": {},
	"rosegold": {},
}

// turkishLower maps the Turkish dotted/dotless I pair correctly and lowercases
// the rest. strings.ToLower alone turns "İ" into "i̇" (combining dot), which
// breaks token comparison against catalog names typed without the dot.
func turkishLower(s string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case 'İ':
			return 'i'
		case 'I':
			return 'ı'
		}
		return r
	}, s)
	return strings.ToLower(replaced)
}

// Normalize lowercases text with locale-aware folding, collapses whitespace
// runs and trims spacing around punctuation. Total for any input.
func Normalize(s string) string {
	out := turkishLower(strings.TrimSpace(s))
	out = spaceRun.ReplaceAllString(out, " ")
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	out = spaceAfterPunct.ReplaceAllString(out, "$1")
	return out
}

// Tokenize extracts lowercased alphanumeric runs longer than one character,
// dropping stopwords. The result is a set: order and duplicates are gone.
func Tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	if s == "" {
		return tokens
	}
	for _, tok := range tokenPattern.FindAllString(turkishLower(s), -1) {
		if len([]rune(tok)) <= 1 {
			continue
		}
		if _, stop := stopTokens[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// DetectTier unions the tokens of all inputs and classifies them.
// The gold/copper family wins over silver when both are present.
func DetectTier(values ...string) string {
	tokens := make(map[string]struct{})
	for _, v := range values {
		for tok := range Tokenize(v) {
			tokens[tok] = struct{}{}
		}
	}
	for tok := range tokens {
		if _, ok := goldCopperTokens[tok]; ok {
			return TierGoldCopper
		}
	}
	for tok := range tokens {
		if _, ok := silverTokens[tok]; ok {
			return TierSilver
		}
	}
	return TierOther
}

// GroupKey builds the "name||tier" compound key used to group kaplama
// selections per child name and detected tier. Empty name yields "".
func GroupKey(name, tier string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	tier = strings.ToLower(strings.TrimSpace(tier))
	if tier == "" {
		tier = TierOther
	}
	return name + "||" + tier
}

// SplitTierSuffix splits a cost name into its base name and a trailing
// parenthesized tier suffix. Names without a recognizable suffix return the
// whole name and TierOther.
func SplitTierSuffix(name string) (base, tier string) {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return "", TierOther
	}
	loc := tierSuffixPattern.FindStringIndex(raw)
	if loc == nil {
		return raw, TierOther
	}
	base = strings.TrimSpace(raw[:loc[0]])
	suffix := strings.TrimSpace(raw[loc[0]:loc[1]])
	return base, DetectTier(suffix)
}

// CanonicalizeCostName rewrites the legacy "(gold,silver)" suffix to
// "(gold,copper)". Idempotent; other names pass through trimmed.
func CanonicalizeCostName(name string) string {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return ""
	}
	return legacyGoldSilverSuffix.ReplaceAllString(raw, "(gold,copper)")
}

// NormalizeCostNames trims, optionally canonicalizes and de-duplicates
// (case-insensitively, first occurrence wins) a list of cost names.
func NormalizeCostNames(values []string, canonicalize bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if canonicalize {
			name = CanonicalizeCostName(name)
			if name == "" {
				continue
			}
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Overlap counts tokens common to both sets.
func Overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}

// Union adds every token of src into dst.
func Union(dst, src map[string]struct{}) {
	for tok := range src {
		dst[tok] = struct{}{}
	}
}
