package wealthsimple

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wealthlink/internal/broker"
	apperrors "wealthlink/internal/errors"
)

// newTestClient builds a client against a mock API server with a valid
// credential already in storage, so tests exercise the data paths without
// authentication traffic beyond one introspection call.
func newTestClient(t *testing.T, mux *http.ServeMux, now func() time.Time) *Client {
	t.Helper()

	mux.HandleFunc(tokenInfoPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resource_owner_id":"user-1"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	storage := newMemStorage()
	storage.seed("test-access", "test-refresh", time.Now().Add(time.Hour))

	client, err := NewClient(Config{
		BaseURL:           server.URL,
		ClientID:          "client-1",
		RequestsPerSecond: 1000,
		Now:               now,
	}, storage, broker.AuthPromptFunc(func(ctx context.Context) (broker.Credentials, error) {
		t.Fatal("unexpected interactive prompt")
		return broker.Credentials{}, nil
	}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

var investAccount = Account{ID: "acct-1", Type: AccountTypeTFSA, Currency: "CAD"}

func TestGetTransactionsREST(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var gotQuery map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc(transactionsPath, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{
			"object": "transaction",
			"results": [
				{
					"id": "txn-1",
					"account_id": "acct-1",
					"type": "buy",
					"description": "Bought 2 shares",
					"symbol": "VEQT",
					"quantity": "2",
					"market_price": {"amount": "41.25", "currency": "CAD"},
					"market_value": {"amount": "82.50", "currency": "CAD"},
					"net_cash": {"amount": "-82.50", "currency": "CAD"},
					"fx_rate": "1.0",
					"effective_date": "2026-07-30",
					"process_date": "2026-07-31"
				},
				{
					"id": "txn-2",
					"type": "dividend",
					"net_cash": {"amount": 12.34, "currency": "CAD"},
					"effective_date": "2026-07-28",
					"process_date": "2026-07-28"
				}
			]
		}`))
	})

	client := newTestClient(t, mux, func() time.Time { return now })
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	txns, err := client.GetTransactions(context.Background(), investAccount, &start)
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}

	if gotQuery["account_id"] != "acct-1" {
		t.Errorf("account_id = %q, want acct-1", gotQuery["account_id"])
	}
	if gotQuery["limit"] != "250" {
		t.Errorf("limit = %q, want 250", gotQuery["limit"])
	}
	if gotQuery["effective_date_start"] != "2026-05-01" {
		t.Errorf("effective_date_start = %q, want 2026-05-01", gotQuery["effective_date_start"])
	}
	if gotQuery["process_date_start"] != "2026-05-01" {
		t.Errorf("process_date_start = %q, want 2026-05-01", gotQuery["process_date_start"])
	}
	// End of the window sits a week past the injected clock.
	if gotQuery["effective_date_end"] != "2026-08-08" {
		t.Errorf("effective_date_end = %q, want 2026-08-08", gotQuery["effective_date_end"])
	}

	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}

	first := txns[0]
	if first.ID != "txn-1" || first.Type != TypeBuy || first.Symbol != "VEQT" {
		t.Errorf("unexpected first transaction: %+v", first)
	}
	if first.NetCash.Amount != "-82.50" || first.NetCash.Currency != "CAD" {
		t.Errorf("net cash = %+v, want -82.50 CAD", first.NetCash)
	}
	if first.MarketPrice.Amount != "41.25" || first.MarketValue.Amount != "82.50" {
		t.Errorf("market price/value = %+v / %+v", first.MarketPrice, first.MarketValue)
	}
	if !first.EffectiveDate.Equal(time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("effective date = %v", first.EffectiveDate)
	}
	if !first.ProcessDate.Equal(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("process date = %v", first.ProcessDate)
	}

	second := txns[1]
	// A numeric JSON amount keeps its exact textual form.
	if second.NetCash.Amount != "12.34" {
		t.Errorf("numeric amount = %q, want 12.34", second.NetCash.Amount)
	}
	// No account_id in the record falls back to the requested account.
	if second.AccountID != "acct-1" {
		t.Errorf("account id = %q, want acct-1", second.AccountID)
	}
	// Absent fx_rate defaults to 1.0.
	if second.FXRate != "1.0" {
		t.Errorf("fx rate = %q, want 1.0", second.FXRate)
	}
}

func TestGetTransactionsEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(error) bool
		kind  string
	}{
		{"empty body", ``, apperrors.IsNoData, "no-data"},
		{"not json", `<html>`, apperrors.IsMalformedBody, "malformed-body"},
		{"missing object", `{"results": []}`, apperrors.IsMissingField, "missing-field"},
		{"object mismatch", `{"object": "position", "results": []}`, apperrors.IsInvalidField, "invalid-field"},
		{"missing results", `{"object": "transaction"}`, apperrors.IsMissingField, "missing-field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc(transactionsPath, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			client := newTestClient(t, mux, nil)

			_, err := client.GetTransactions(context.Background(), investAccount, nil)
			if err == nil || !tt.check(err) {
				t.Fatalf("error = %v, want %s kind", err, tt.kind)
			}
		})
	}
}

func TestGetTransactionsRecordErrors(t *testing.T) {
	tests := []struct {
		name   string
		record string
		check  func(error) bool
	}{
		{
			"missing id",
			`{"type": "buy", "net_cash": {"amount": "1"}, "effective_date": "2026-01-01", "process_date": "2026-01-01"}`,
			apperrors.IsMissingField,
		},
		{
			"missing net_cash amount",
			`{"id": "t", "type": "buy", "net_cash": {"currency": "CAD"}, "effective_date": "2026-01-01", "process_date": "2026-01-01"}`,
			apperrors.IsMissingField,
		},
		{
			"unknown type",
			`{"id": "t", "type": "teleport", "net_cash": {"amount": "1"}, "effective_date": "2026-01-01", "process_date": "2026-01-01"}`,
			apperrors.IsInvalidField,
		},
		{
			"bad effective date",
			`{"id": "t", "type": "buy", "net_cash": {"amount": "1"}, "effective_date": "01/02/2026", "process_date": "2026-01-01"}`,
			apperrors.IsInvalidField,
		},
		{
			"non-decimal amount",
			`{"id": "t", "type": "buy", "net_cash": {"amount": "lots"}, "effective_date": "2026-01-01", "process_date": "2026-01-01"}`,
			apperrors.IsInvalidField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc(transactionsPath, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"object": "transaction", "results": [` + tt.record + `]}`))
			})
			client := newTestClient(t, mux, nil)

			// One bad record aborts the whole call.
			_, err := client.GetTransactions(context.Background(), investAccount, nil)
			if err == nil || !tt.check(err) {
				t.Fatalf("error = %v", err)
			}
		})
	}
}

func TestGetTransactionsRejectsStartDateForCardAccounts(t *testing.T) {
	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tokenInfoPath {
			called = true
		}
	})
	client := newTestClient(t, mux, nil)

	start := time.Now()
	for _, accountType := range []AccountType{AccountTypeCash, AccountTypeCreditCard} {
		account := Account{ID: "card-1", Type: accountType, Currency: "CAD"}
		_, err := client.GetTransactions(context.Background(), account, &start)
		if !apperrors.IsInvalidParameter(err) {
			t.Errorf("%s: error = %v, want invalid-parameter kind", accountType, err)
		}
	}
	if called {
		t.Error("rejected call still reached the server")
	}
}

func TestGetTransactionsUnknownAccountType(t *testing.T) {
	client := newTestClient(t, http.NewServeMux(), nil)
	account := Account{ID: "x", Type: "ca_mystery"}
	_, err := client.GetTransactions(context.Background(), account, nil)
	if !apperrors.IsInvalidParameter(err) {
		t.Fatalf("error = %v, want invalid-parameter kind", err)
	}
}

func TestGetTransactionsCredentialRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(transactionsPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client := newTestClient(t, mux, nil)

	_, err := client.GetTransactions(context.Background(), investAccount, nil)
	if !apperrors.IsCredential(err) {
		t.Fatalf("error = %v, want credential kind", err)
	}
}
