package nlu

import (
	"errors"
	"strings"
)

// ErrLengthMismatch is returned by [DecodeSlots] when the token and tag
// sequences have different lengths. This is a caller bug, not a property of
// the input text.
var ErrLengthMismatch = errors.New("nlu: token and tag sequences have different lengths")

// SlotMap maps a slot name to the space-joined text of its span.
type SlotMap map[string]string

// Clone returns a shallow copy of m. A nil map clones to an empty map.
func (m SlotMap) Clone() SlotMap {
	out := make(SlotMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// spanState is the decoder's scan state: either idle (no open span) or
// inside a span collecting tokens. Keeping it explicit makes the edge cases
// (orphan I-, back-to-back B- for the same name) auditable in isolation.
type spanState struct {
	open bool
	slot string
	buf  []string
}

// close commits the open span (if any) into out and resets the state.
// Spans are only written on close, so a duplicate slot name later in the
// sequence overwrites the earlier value: last span wins.
func (s *spanState) close(out SlotMap) {
	if !s.open {
		return
	}
	out[s.slot] = strings.Join(s.buf, " ")
	s.open = false
	s.slot = ""
	s.buf = nil
}

// openSpan starts a new span for slot with tok as its first token.
func (s *spanState) openSpan(slot, tok string) {
	s.open = true
	s.slot = slot
	s.buf = []string{tok}
}

// DecodeSlots reduces a BIO-tagged token sequence into a [SlotMap].
//
// The scan rules:
//
//   - B-<name> closes any open span and opens a new one for <name>.
//   - I-<name> extends the open span only when <name> matches the open
//     slot. An orphan I- (no open span, or a different slot name) closes
//     the open span and contributes its token to nothing — a decode-time
//     normalisation, not an error.
//   - O closes any open span.
//   - A span still open after the last token is closed.
//
// Spans are committed only when closed, so the result never contains a
// partially built value, and decoding the same input twice yields the same
// map. When the same slot name is closed more than once the last span wins.
//
// Returns [ErrLengthMismatch] when the sequences disagree in length; the
// function is otherwise pure.
func DecodeSlots(tokens []Token, tags []Tag) (SlotMap, error) {
	if len(tokens) != len(tags) {
		return nil, ErrLengthMismatch
	}

	out := make(SlotMap)
	var state spanState

	for i, tag := range tags {
		switch {
		case tag.Kind == TagBegin:
			state.close(out)
			state.openSpan(tag.Slot, tokens[i].Text)
		case tag.Kind == TagInside && state.open && tag.Slot == state.slot:
			state.buf = append(state.buf, tokens[i].Text)
		default:
			// O, or an orphan/mismatched I-. The token is dropped.
			state.close(out)
		}
	}
	state.close(out)

	return out, nil
}

// DecodeRawSlots parses raw BIO label strings and decodes them in one step.
// It surfaces [*MalformedTagError] for unparseable labels and
// [ErrLengthMismatch] for misaligned sequences.
func DecodeRawSlots(tokens []Token, rawTags []string) (SlotMap, error) {
	if len(tokens) != len(rawTags) {
		return nil, ErrLengthMismatch
	}
	tags, err := ParseTags(rawTags)
	if err != nil {
		return nil, err
	}
	return DecodeSlots(tokens, tags)
}
