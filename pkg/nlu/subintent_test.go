package nlu_test

import (
	"testing"

	"github.com/vaani-labs/vaani/pkg/nlu"
)

func TestSubIntentResolver(t *testing.T) {
	t.Parallel()

	r := nlu.NewSubIntentResolver()

	cases := []struct {
		name   string
		intent nlu.Intent
		text   string
		want   nlu.SubIntent
	}{
		{
			name:   "loan status",
			intent: nlu.IntentLoanInquiry,
			text:   "what is the status of my home loan",
			want:   nlu.SubIntentLoanStatus,
		},
		{
			name:   "loan eligibility via stem",
			intent: nlu.IntentLoanInquiry,
			text:   "am I eligible for a personal loan",
			want:   nlu.SubIntentLoanEligibility,
		},
		{
			name:   "loan eligibility survives STT misspelling",
			intent: nlu.IntentLoanInquiry,
			text:   "check my eligability for a loan",
			want:   nlu.SubIntentLoanEligibility,
		},
		{
			name:   "loan interest rate",
			intent: nlu.IntentLoanInquiry,
			text:   "what rate do you charge on car loans",
			want:   nlu.SubIntentLoanInterestRate,
		},
		{
			name:   "loan fallback",
			intent: nlu.IntentLoanInquiry,
			text:   "tell me about my loans",
			want:   nlu.SubIntentGeneralLoanQuery,
		},
		{
			name:   "status beats eligibility when both appear",
			intent: nlu.IntentLoanInquiry,
			text:   "status of my loan eligibility request",
			want:   nlu.SubIntentLoanStatus,
		},
		{
			name:   "credit available",
			intent: nlu.IntentCreditLimit,
			text:   "how much credit do I have available",
			want:   nlu.SubIntentCreditLimitAvailable,
		},
		{
			name:   "credit used",
			intent: nlu.IntentCreditLimit,
			text:   "how much of my limit have I used",
			want:   nlu.SubIntentCreditLimitUsed,
		},
		{
			name:   "credit fallback",
			intent: nlu.IntentCreditLimit,
			text:   "tell me about my credit card",
			want:   nlu.SubIntentGeneralCreditQuery,
		},
		{
			name:   "intents without routing resolve to none",
			intent: nlu.IntentCheckBalance,
			text:   "what is my balance",
			want:   nlu.SubIntentNone,
		},
		{
			name:   "unknown intent resolves to none",
			intent: nlu.Intent("order_pizza"),
			text:   "status report",
			want:   nlu.SubIntentNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Resolve(tc.intent, tc.text); got != tc.want {
				t.Fatalf("Resolve(%q, %q) = %q, want %q", tc.intent, tc.text, got, tc.want)
			}
		})
	}
}
