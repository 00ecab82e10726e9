package wealthsimple

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	apperrors "wealthlink/internal/errors"
)

const (
	transactionsPath      = "/account/transactions"
	transactionsPageLimit = 250

	// The end of the effective-date window sits a week past now so pending
	// settlements survive clock skew between client and server.
	settlementSkew = 7 * 24 * time.Hour
)

// GetTransactions returns the full ordered transaction history for an
// account, masking the two backend protocols: card and spend accounts are
// served by the GraphQL activity feed, every other account type by the REST
// transactions resource. start narrows the REST date range; the activity
// feed does not support it and rejects it as invalid rather than ignoring
// it.
func (c *Client) GetTransactions(ctx context.Context, account Account, start *time.Time) ([]Transaction, error) {
	if !account.Type.Valid() {
		return nil, apperrors.InvalidParameter("account",
			fmt.Sprintf("unknown account type %q", account.Type))
	}
	if account.Type.UsesActivityFeed() {
		if start != nil {
			return nil, apperrors.InvalidParameter("start",
				"the activity feed does not support date filtering")
		}
		return c.activityFeedTransactions(ctx, account)
	}
	return c.restTransactions(ctx, account, start)
}

func (c *Client) restTransactions(ctx context.Context, account Account, start *time.Time) ([]Transaction, error) {
	query := url.Values{}
	query.Set("account_id", account.ID)
	query.Set("limit", strconv.Itoa(transactionsPageLimit))
	if start != nil {
		query.Set("effective_date_start", start.Format(restDateLayout))
		query.Set("process_date_start", start.Format(restDateLayout))
	}
	query.Set("effective_date_end", c.now().Add(settlementSkew).Format(restDateLayout))

	body, err := c.doGet(ctx, transactionsPath, query)
	if err != nil {
		return nil, err
	}

	records, err := decodeEnvelope(body, "transaction")
	if err != nil {
		return nil, err
	}

	// A single undecodable record aborts the whole call; there is no
	// partial-success result.
	txns := make([]Transaction, 0, len(records))
	for _, raw := range records {
		txn, err := decodeRESTTransaction(raw, account)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// restMoney is an amount object inside a REST transaction record.
type restMoney struct {
	Amount   *decimalText `json:"amount"`
	Currency string       `json:"currency"`
}

// restTransaction mirrors one REST transaction record. Required fields are
// pointers so absence is distinguishable from a zero value.
type restTransaction struct {
	ID            *string      `json:"id"`
	AccountID     *string      `json:"account_id"`
	Type          *string      `json:"type"`
	Description   string       `json:"description"`
	Symbol        string       `json:"symbol"`
	Quantity      decimalText  `json:"quantity"`
	MarketPrice   *restMoney   `json:"market_price"`
	MarketValue   *restMoney   `json:"market_value"`
	NetCash       *restMoney   `json:"net_cash"`
	FXRate        decimalText  `json:"fx_rate"`
	EffectiveDate *string      `json:"effective_date"`
	ProcessDate   *string      `json:"process_date"`
}

func decodeRESTTransaction(raw json.RawMessage, account Account) (Transaction, error) {
	var rec restTransaction
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Transaction{}, apperrors.MalformedBody("transaction record is not valid JSON", raw, err)
	}

	switch {
	case rec.ID == nil:
		return Transaction{}, apperrors.MissingField("id", raw)
	case rec.Type == nil:
		return Transaction{}, apperrors.MissingField("type", raw)
	case rec.NetCash == nil:
		return Transaction{}, apperrors.MissingField("net_cash", raw)
	case rec.NetCash.Amount == nil:
		return Transaction{}, apperrors.MissingField("net_cash.amount", raw)
	case rec.EffectiveDate == nil:
		return Transaction{}, apperrors.MissingField("effective_date", raw)
	case rec.ProcessDate == nil:
		return Transaction{}, apperrors.MissingField("process_date", raw)
	}

	txnType, err := ParseTransactionType(*rec.Type)
	if err != nil {
		return Transaction{}, apperrors.InvalidField("type", err.Error(), raw)
	}

	effective, err := parseRESTDate(*rec.EffectiveDate)
	if err != nil {
		return Transaction{}, apperrors.InvalidField("effective_date",
			fmt.Sprintf("cannot parse effective_date %q", *rec.EffectiveDate), raw)
	}
	process, err := parseRESTDate(*rec.ProcessDate)
	if err != nil {
		return Transaction{}, apperrors.InvalidField("process_date",
			fmt.Sprintf("cannot parse process_date %q", *rec.ProcessDate), raw)
	}

	netCash, err := checkDecimal("net_cash.amount", *rec.NetCash.Amount, raw)
	if err != nil {
		return Transaction{}, err
	}
	quantity, err := checkDecimal("quantity", rec.Quantity, raw)
	if err != nil {
		return Transaction{}, err
	}
	fxRate, err := checkDecimal("fx_rate", rec.FXRate, raw)
	if err != nil {
		return Transaction{}, err
	}
	if fxRate == "" {
		fxRate = "1.0"
	}

	marketPrice, err := moneyFromREST("market_price", rec.MarketPrice, raw)
	if err != nil {
		return Transaction{}, err
	}
	marketValue, err := moneyFromREST("market_value", rec.MarketValue, raw)
	if err != nil {
		return Transaction{}, err
	}

	accountID := account.ID
	if rec.AccountID != nil {
		accountID = *rec.AccountID
	}

	return Transaction{
		ID:          *rec.ID,
		AccountID:   accountID,
		Type:        txnType,
		Description: rec.Description,
		Symbol:      rec.Symbol,
		Quantity:    quantity,
		MarketPrice: marketPrice,
		MarketValue: marketValue,
		NetCash: Money{
			Amount:   netCash,
			Currency: rec.NetCash.Currency,
		},
		FXRate:        fxRate,
		EffectiveDate: effective,
		ProcessDate:   process,
	}, nil
}

// checkDecimal validates a decimal-preserving text value without converting
// it. Empty values pass through; malformed ones fail the whole record.
func checkDecimal(field string, v decimalText, raw []byte) (string, error) {
	if v == "" {
		return "", nil
	}
	if _, err := decimal.NewFromString(string(v)); err != nil {
		return "", apperrors.InvalidField(field,
			fmt.Sprintf("%q is not a decimal value", string(v)), raw)
	}
	return string(v), nil
}

func moneyFromREST(field string, m *restMoney, raw []byte) (Money, error) {
	if m == nil || m.Amount == nil {
		return Money{}, nil
	}
	amount, err := checkDecimal(field+".amount", *m.Amount, raw)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: m.Currency}, nil
}
