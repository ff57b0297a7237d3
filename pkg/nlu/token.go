package nlu

import (
	"fmt"
	"strings"
)

// Token is one position in a tokenised utterance. Tokens are produced by
// external preprocessing (tokeniser + optional POS tagger) and consumed
// read-only here.
type Token struct {
	// Text is the surface form of the token.
	Text string

	// POS is the part-of-speech tag supplied by preprocessing, or empty when
	// no POS tagger ran. It is forwarded to the sequence tagger as a feature
	// and plays no role in span decoding.
	POS string
}

// Tokenize splits an utterance on whitespace into POS-less tokens. This
// matches the tokenisation the sequence tagger was trained against.
func Tokenize(text string) []Token {
	fields := strings.Fields(text)
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token{Text: f}
	}
	return tokens
}

// TagKind distinguishes the three BIO tag shapes.
type TagKind int

const (
	// TagOutside is the "O" tag: the token belongs to no slot span.
	TagOutside TagKind = iota

	// TagBegin is a "B-<slot>" tag opening a new span.
	TagBegin

	// TagInside is an "I-<slot>" tag continuing the span opened by the
	// preceding B-/I- tag of the same slot name.
	TagInside
)

// Tag is one parsed BIO label, aligned 1:1 with a token.
type Tag struct {
	Kind TagKind

	// Slot is the slot name for B-/I- tags; empty for O.
	Slot string
}

// MalformedTagError reports a raw tag string that is not "O", "B-<slot>" or
// "I-<slot>".
type MalformedTagError struct {
	// Raw is the offending tag string.
	Raw string

	// Position is the token index the tag was aligned with.
	Position int
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("nlu: malformed tag %q at position %d", e.Raw, e.Position)
}

// ParseTag parses a raw BIO label. pos is only used for error reporting.
func ParseTag(raw string, pos int) (Tag, error) {
	switch {
	case raw == "O":
		return Tag{Kind: TagOutside}, nil
	case strings.HasPrefix(raw, "B-") && len(raw) > 2:
		return Tag{Kind: TagBegin, Slot: raw[2:]}, nil
	case strings.HasPrefix(raw, "I-") && len(raw) > 2:
		return Tag{Kind: TagInside, Slot: raw[2:]}, nil
	}
	return Tag{}, &MalformedTagError{Raw: raw, Position: pos}
}

// ParseTags parses a full label sequence, failing on the first malformed tag.
func ParseTags(raw []string) ([]Tag, error) {
	tags := make([]Tag, len(raw))
	for i, r := range raw {
		t, err := ParseTag(r, i)
		if err != nil {
			return nil, err
		}
		tags[i] = t
	}
	return tags, nil
}
