package wealthsimple

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	apperrors "wealthlink/internal/errors"
)

const (
	accountListPath = "/account/list"
	positionsPath   = "/account/positions"
)

// GetAccounts fetches all accounts visible to the authenticated user.
func (c *Client) GetAccounts(ctx context.Context) ([]Account, error) {
	body, err := c.doGet(ctx, accountListPath, nil)
	if err != nil {
		return nil, err
	}

	records, err := decodeEnvelope(body, "account")
	if err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(records))
	for _, raw := range records {
		account, err := decodeAccount(raw)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

type restAccount struct {
	ID            *string `json:"id"`
	Type          *string `json:"account_type"`
	Currency      *string `json:"currency"`
	DisplayNumber string  `json:"display_number"`
}

func decodeAccount(raw json.RawMessage) (Account, error) {
	var rec restAccount
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Account{}, apperrors.MalformedBody("account record is not valid JSON", raw, err)
	}
	switch {
	case rec.ID == nil:
		return Account{}, apperrors.MissingField("id", raw)
	case rec.Type == nil:
		return Account{}, apperrors.MissingField("account_type", raw)
	case rec.Currency == nil:
		return Account{}, apperrors.MissingField("currency", raw)
	}

	accountType := AccountType(*rec.Type)
	if !accountType.Valid() {
		return Account{}, apperrors.InvalidField("account_type",
			fmt.Sprintf("unknown account type %q", *rec.Type), raw)
	}

	return Account{
		ID:            *rec.ID,
		Type:          accountType,
		Currency:      *rec.Currency,
		DisplayNumber: rec.DisplayNumber,
	}, nil
}

// GetPositions fetches the holdings of one account.
func (c *Client) GetPositions(ctx context.Context, accountID string) ([]Position, error) {
	query := url.Values{}
	query.Set("account_id", accountID)

	body, err := c.doGet(ctx, positionsPath, query)
	if err != nil {
		return nil, err
	}

	records, err := decodeEnvelope(body, "position")
	if err != nil {
		return nil, err
	}

	positions := make([]Position, 0, len(records))
	for _, raw := range records {
		position, err := decodePosition(raw, accountID)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}
	return positions, nil
}

type restPosition struct {
	Symbol       *string      `json:"symbol"`
	Name         string       `json:"name"`
	SecurityType string       `json:"security_type"`
	Quantity     *decimalText `json:"quantity"`
	Currency     string       `json:"currency"`
	MarketPrice  *restMoney   `json:"market_price"`
	MarketValue  *restMoney   `json:"market_value"`
}

func decodePosition(raw json.RawMessage, accountID string) (Position, error) {
	var rec restPosition
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Position{}, apperrors.MalformedBody("position record is not valid JSON", raw, err)
	}
	switch {
	case rec.Symbol == nil:
		return Position{}, apperrors.MissingField("symbol", raw)
	case rec.Quantity == nil:
		return Position{}, apperrors.MissingField("quantity", raw)
	}

	quantity, err := checkDecimal("quantity", *rec.Quantity, raw)
	if err != nil {
		return Position{}, err
	}
	marketPrice, err := moneyFromREST("market_price", rec.MarketPrice, raw)
	if err != nil {
		return Position{}, err
	}
	marketValue, err := moneyFromREST("market_value", rec.MarketValue, raw)
	if err != nil {
		return Position{}, err
	}

	return Position{
		AccountID:    accountID,
		Symbol:       *rec.Symbol,
		Name:         rec.Name,
		SecurityType: rec.SecurityType,
		Quantity:     quantity,
		Currency:     rec.Currency,
		MarketPrice:  marketPrice,
		MarketValue:  marketValue,
	}, nil
}
