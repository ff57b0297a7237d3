package nlu_test

import (
	"errors"
	"maps"
	"testing"

	"github.com/vaani-labs/vaani/pkg/nlu"
)

func tokens(texts ...string) []nlu.Token {
	out := make([]nlu.Token, len(texts))
	for i, t := range texts {
		out[i] = nlu.Token{Text: t}
	}
	return out
}

func TestDecodeRawSlots(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		tokens []nlu.Token
		tags   []string
		want   nlu.SlotMap
	}{
		{
			name:   "two single-token slots",
			tokens: tokens("send", "500", "to", "Raj"),
			tags:   []string{"O", "B-amount", "O", "B-recipient"},
			want:   nlu.SlotMap{"amount": "500", "recipient": "Raj"},
		},
		{
			name:   "multi-token span joins with spaces",
			tokens: tokens("to", "John", "Smith"),
			tags:   []string{"O", "B-recipient", "I-recipient"},
			want:   nlu.SlotMap{"recipient": "John Smith"},
		},
		{
			name:   "orphan I- is dropped entirely",
			tokens: tokens("pay", "rent", "now"),
			tags:   []string{"O", "I-amount", "O"},
			want:   nlu.SlotMap{},
		},
		{
			name:   "I- for a different slot closes the open span and is dropped",
			tokens: tokens("send", "500", "rupees", "today"),
			tags:   []string{"O", "B-amount", "I-recipient", "O"},
			want:   nlu.SlotMap{"amount": "500"},
		},
		{
			name:   "back-to-back B- for the same name keeps the last span",
			tokens: tokens("500", "600"),
			tags:   []string{"B-amount", "B-amount"},
			want:   nlu.SlotMap{"amount": "600"},
		},
		{
			name:   "duplicate slot later in sequence wins",
			tokens: tokens("send", "500", "no", "700", "to", "Raj"),
			tags:   []string{"O", "B-amount", "O", "B-amount", "O", "B-recipient"},
			want:   nlu.SlotMap{"amount": "700", "recipient": "Raj"},
		},
		{
			name:   "span open at end of sequence is closed",
			tokens: tokens("transfer", "to", "Priya", "Nair"),
			tags:   []string{"O", "O", "B-recipient", "I-recipient"},
			want:   nlu.SlotMap{"recipient": "Priya Nair"},
		},
		{
			name:   "empty input decodes to empty map",
			tokens: nil,
			tags:   nil,
			want:   nlu.SlotMap{},
		},
		{
			name:   "all O tags",
			tokens: tokens("hello", "there"),
			tags:   []string{"O", "O"},
			want:   nlu.SlotMap{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := nlu.DecodeRawSlots(tc.tokens, tc.tags)
			if err != nil {
				t.Fatalf("DecodeRawSlots: unexpected error: %v", err)
			}
			if !maps.Equal(got, tc.want) {
				t.Fatalf("DecodeRawSlots: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecodeRawSlotsIdempotent(t *testing.T) {
	t.Parallel()

	toks := tokens("send", "500", "to", "John", "Smith")
	tags := []string{"O", "B-amount", "O", "B-recipient", "I-recipient"}

	first, err := nlu.DecodeRawSlots(toks, tags)
	if err != nil {
		t.Fatalf("DecodeRawSlots: unexpected error: %v", err)
	}
	second, err := nlu.DecodeRawSlots(toks, tags)
	if err != nil {
		t.Fatalf("DecodeRawSlots: unexpected error: %v", err)
	}
	if !maps.Equal(first, second) {
		t.Fatalf("DecodeRawSlots: not idempotent: %v vs %v", first, second)
	}
}

func TestDecodeRawSlotsErrors(t *testing.T) {
	t.Parallel()

	t.Run("length mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := nlu.DecodeRawSlots(tokens("a", "b"), []string{"O"})
		if !errors.Is(err, nlu.ErrLengthMismatch) {
			t.Fatalf("DecodeRawSlots: expected ErrLengthMismatch, got %v", err)
		}
	})

	t.Run("malformed tag reports position", func(t *testing.T) {
		t.Parallel()
		_, err := nlu.DecodeRawSlots(tokens("a", "b", "c"), []string{"O", "X-amount", "O"})
		var tagErr *nlu.MalformedTagError
		if !errors.As(err, &tagErr) {
			t.Fatalf("DecodeRawSlots: expected MalformedTagError, got %v", err)
		}
		if tagErr.Position != 1 || tagErr.Raw != "X-amount" {
			t.Fatalf("DecodeRawSlots: MalformedTagError = %+v", tagErr)
		}
	})

	t.Run("bare B- prefix is malformed", func(t *testing.T) {
		t.Parallel()
		_, err := nlu.DecodeRawSlots(tokens("a"), []string{"B-"})
		var tagErr *nlu.MalformedTagError
		if !errors.As(err, &tagErr) {
			t.Fatalf("DecodeRawSlots: expected MalformedTagError, got %v", err)
		}
	})
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := nlu.Tokenize("  send 500   to Raj ")
	want := []string{"send", "500", "to", "Raj"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize: got %d tokens, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Fatalf("Tokenize: token %d = %q, want %q", i, got[i].Text, w)
		}
	}
}

func TestIntentIsKnown(t *testing.T) {
	t.Parallel()

	if !nlu.IntentTransfer.IsKnown() {
		t.Fatal("IntentTransfer should be known")
	}
	if nlu.Intent("order_pizza").IsKnown() {
		t.Fatal("unmodelled intent should not be known")
	}
	if !nlu.SubIntentNone.IsKnown() {
		t.Fatal("SubIntentNone should be known")
	}
}
