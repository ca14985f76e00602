package transcript

import (
	"regexp"
	"strings"
)

// TokenKind distinguishes the two kinds of token produced by Segment.
type TokenKind int

const (
	// TokenSegment is the text between two delimiters (or a document edge and a delimiter).
	TokenSegment TokenKind = iota
	// TokenDelimiter is a horizontal-rule run of three or more hyphens, kept verbatim.
	TokenDelimiter
)

func (k TokenKind) String() string {
	switch k {
	case TokenSegment:
		return "segment"
	case TokenDelimiter:
		return "delimiter"
	default:
		return "unknown"
	}
}

// Token is one piece of a segmented markdown transcript.
type Token struct {
	Kind TokenKind
	Text string
}

// Exchange is a prompt/response pair extracted from a single segment.
type Exchange struct {
	Prompt   string
	Response string
}

var (
	delimiterPattern = regexp.MustCompile(`-{3,}`)
	boldSpanPattern  = regexp.MustCompile(`(?s)\*\*(.*?)\*\*`)
)

// Segment splits doc on runs of three or more hyphens. Segments and delimiters alternate
// in document order, always starting and ending with a segment (possibly empty).
func Segment(doc string) []Token {
	locs := delimiterPattern.FindAllStringIndex(doc, -1)
	tokens := make([]Token, 0, 2*len(locs)+1)

	prev := 0
	for _, loc := range locs {
		tokens = append(tokens,
			Token{Kind: TokenSegment, Text: doc[prev:loc[0]]},
			Token{Kind: TokenDelimiter, Text: doc[loc[0]:loc[1]]},
		)
		prev = loc[1]
	}
	tokens = append(tokens, Token{Kind: TokenSegment, Text: doc[prev:]})
	return tokens
}

// ExtractExchange returns the first bold span of segment as the prompt and everything after
// its closing marker as the response. Later bold spans stay in the response as literal text.
func ExtractExchange(segment string) (Exchange, bool) {
	loc := boldSpanPattern.FindStringSubmatchIndex(segment)
	if loc == nil {
		return Exchange{}, false
	}
	return Exchange{
		Prompt:   strings.TrimSpace(segment[loc[2]:loc[3]]),
		Response: strings.TrimSpace(segment[loc[1]:]),
	}, true
}

// IsDelimiter reports whether s consists solely of a delimiter run.
func IsDelimiter(s string) bool {
	if len(s) < 3 {
		return false
	}
	return strings.Trim(s, "-") == ""
}
