package wealthsimple

import (
	"encoding/json"
	"testing"
)

func TestDecimalTextPreservesForm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing zeros", `"10.00"`, "10.00"},
		{"number literal", `10.00`, "10.00"},
		{"negative", `"-0.50"`, "-0.50"},
		{"integer", `7`, "7"},
		{"null", `null`, ""},
		{"high precision", `"433.12500000001"`, "433.12500000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d decimalText
			if err := json.Unmarshal([]byte(tt.in), &d); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if string(d) != tt.want {
				t.Errorf("got %q, want %q", d, tt.want)
			}
		})
	}
}

func TestMapActivityType(t *testing.T) {
	tests := []struct {
		feedType string
		subType  string
		want     TransactionType
	}{
		{"SPEND", "", TypeCardPurchase},
		{"SPEND", "PREPAID", TypeCardPurchase},
		{"SPEND", "REFUND", TypeCardRefund},
		{"SPEND", "ATM", TypeATMWithdrawal},
		{"DEPOSIT", "", TypeDeposit},
		{"DEPOSIT", "AFT", TypeDirectDeposit},
		{"INTERNAL_TRANSFER", "SOURCE", TypeTransferOut},
		{"INTERNAL_TRANSFER", "DESTINATION", TypeTransferIn},
		{"CREDIT_CARD", "PAYMENT", TypeCardPayment},
		// An unmapped subtype falls back to the bare type.
		{"DIVIDEND", "SPECIAL", TypeDividend},
	}
	for _, tt := range tests {
		got, err := mapActivityType(tt.feedType, tt.subType)
		if err != nil {
			t.Errorf("mapActivityType(%s, %s): %v", tt.feedType, tt.subType, err)
			continue
		}
		if got != tt.want {
			t.Errorf("mapActivityType(%s, %s) = %q, want %q", tt.feedType, tt.subType, got, tt.want)
		}
	}

	if _, err := mapActivityType("TELEPORT", ""); err == nil {
		t.Error("unknown type did not error")
	}
}

func TestParseTransactionType(t *testing.T) {
	if _, err := ParseTransactionType("buy"); err != nil {
		t.Errorf("ParseTransactionType(buy): %v", err)
	}
	if _, err := ParseTransactionType("teleport"); err == nil {
		t.Error("unknown type did not error")
	}
}

func TestAccountTypeDispatch(t *testing.T) {
	for _, at := range []AccountType{AccountTypeCash, AccountTypeCreditCard} {
		if !at.UsesActivityFeed() {
			t.Errorf("%s should use the activity feed", at)
		}
	}
	for _, at := range []AccountType{
		AccountTypeTFSA, AccountTypeRRSP, AccountTypeRESP, AccountTypeLIRA,
		AccountTypeRRIF, AccountTypeNonRegistered, AccountTypeNonRegisteredCrypto,
	} {
		if at.UsesActivityFeed() {
			t.Errorf("%s should use the REST resource", at)
		}
	}
	if AccountType("ca_mystery").Valid() {
		t.Error("unknown account type reported valid")
	}
}

func TestDateLayouts(t *testing.T) {
	if _, err := parseRESTDate("2026-07-30"); err != nil {
		t.Errorf("parseRESTDate: %v", err)
	}
	if _, err := parseOccurredAt("2026-07-03T14:22:05.000000Z"); err != nil {
		t.Errorf("parseOccurredAt: %v", err)
	}
	if _, err := parseSettledAt("2026-07-04 09:00:00 UTC"); err != nil {
		t.Errorf("parseSettledAt: %v", err)
	}
	// Formats are producer-specific, not interchangeable.
	if _, err := parseRESTDate("2026-07-03T14:22:05.000000Z"); err == nil {
		t.Error("REST layout accepted an activity timestamp")
	}
	if _, err := parseOccurredAt("2026-07-04 09:00:00 UTC"); err == nil {
		t.Error("occurredAt layout accepted a settledAt timestamp")
	}
}
