package wealthsimple

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "wealthlink/internal/errors"
)

const activityPageSize = 50

// activityFeedTransactions retrieves an account's full activity feed. Pages
// are fetched sequentially: each page's raw nodes are enriched with a
// batched foreign-exchange detail query before being decoded, and the next
// page is requested with the cursor from the previous one, preserving the
// server's newest-first ordering across pages.
func (c *Client) activityFeedTransactions(ctx context.Context, account Account) ([]Transaction, error) {
	var out []Transaction
	cursor := ""
	for {
		page, err := c.fetchActivityPage(ctx, account.ID, cursor)
		if err != nil {
			return nil, err
		}

		if len(page.nodes) > 0 {
			ids := make([]string, len(page.nodes))
			for i, node := range page.nodes {
				ids[i] = *node.CanonicalID
			}
			details, err := c.fetchActivityDetails(ctx, ids)
			if err != nil {
				return nil, err
			}
			for i := range page.nodes {
				txn, err := decodeActivityTransaction(page.nodes[i], details[i], account)
				if err != nil {
					return nil, err
				}
				out = append(out, txn)
			}
		}

		if !page.pageInfo.HasNextPage {
			return out, nil
		}
		cursor = page.pageInfo.EndCursor
	}
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// activityNode mirrors one raw activity-feed node. Required fields are
// pointers so absence is distinguishable from a zero value; raw keeps the
// original fragment for error context.
type activityNode struct {
	raw json.RawMessage

	CanonicalID   *string      `json:"canonicalId"`
	AccountID     *string      `json:"accountId"`
	Type          *string      `json:"type"`
	SubType       string       `json:"subType"`
	Status        *string      `json:"status"`
	OccurredAt    *string      `json:"occurredAt"`
	SettledAt     string       `json:"settledAt"`
	Amount        *decimalText `json:"amount"`
	AmountSign    string       `json:"amountSign"`
	Currency      *string      `json:"currency"`
	AssetSymbol   string       `json:"assetSymbol"`
	AssetQuantity decimalText  `json:"assetQuantity"`
}

type activityPage struct {
	nodes    []activityNode
	pageInfo pageInfo
}

func (c *Client) fetchActivityPage(ctx context.Context, accountID, cursor string) (*activityPage, error) {
	data, err := c.doGraphQL(ctx, newActivityFeedRequest(accountID, activityPageSize, cursor))
	if err != nil {
		return nil, err
	}

	var payload struct {
		ActivityFeedItems *struct {
			Edges []struct {
				Node json.RawMessage `json:"node"`
			} `json:"edges"`
			PageInfo *pageInfo `json:"pageInfo"`
		} `json:"activityFeedItems"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, apperrors.MalformedBody("activity feed payload is not valid JSON", data, err)
	}
	if payload.ActivityFeedItems == nil {
		return nil, apperrors.MissingField("activityFeedItems", data)
	}
	if payload.ActivityFeedItems.PageInfo == nil {
		return nil, apperrors.MissingField("pageInfo", data)
	}

	nodes := make([]activityNode, 0, len(payload.ActivityFeedItems.Edges))
	for _, edge := range payload.ActivityFeedItems.Edges {
		if edge.Node == nil {
			return nil, apperrors.MissingField("node", data)
		}
		var node activityNode
		if err := json.Unmarshal(edge.Node, &node); err != nil {
			return nil, apperrors.MalformedBody("activity node is not valid JSON", edge.Node, err)
		}
		if node.CanonicalID == nil {
			return nil, apperrors.MissingField("canonicalId", edge.Node)
		}
		node.raw = edge.Node
		nodes = append(nodes, node)
	}

	return &activityPage{
		nodes:    nodes,
		pageInfo: *payload.ActivityFeedItems.PageInfo,
	}, nil
}

// activityDetail is the enrichment payload for one node: the
// foreign-exchange fields the feed itself omits.
type activityDetail struct {
	raw json.RawMessage

	FXRate          decimalText `json:"fxRate"`
	ForeignAmount   decimalText `json:"foreignAmount"`
	ForeignCurrency string      `json:"foreignCurrency"`
	MerchantName    string      `json:"merchantName"`
}

// fetchActivityDetails issues one batched enrichment query for a page of
// node ids and walks the aliased response object back into positional
// order. A missing alias or an unparseable alias index is an unrecoverable
// parse error for the page.
func (c *Client) fetchActivityDetails(ctx context.Context, ids []string) ([]activityDetail, error) {
	data, err := c.doGraphQL(ctx, newActivityDetailsRequest(ids))
	if err != nil {
		return nil, err
	}

	var aliased map[string]json.RawMessage
	if err := json.Unmarshal(data, &aliased); err != nil {
		return nil, apperrors.MalformedBody("enrichment payload is not valid JSON", data, err)
	}

	slots := make([]*activityDetail, len(ids))
	for alias, raw := range aliased {
		if !strings.HasPrefix(alias, "a") {
			return nil, apperrors.InvalidField(alias, "unexpected enrichment alias "+alias, data)
		}
		idx, err := strconv.Atoi(alias[1:])
		if err != nil {
			return nil, apperrors.InvalidField(alias, "cannot parse enrichment alias index", data)
		}
		if idx < 0 || idx >= len(ids) {
			return nil, apperrors.InvalidField(alias, "enrichment alias index out of range", data)
		}
		if len(raw) == 0 || string(raw) == "null" {
			return nil, apperrors.MissingField(alias, data)
		}
		var detail activityDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			return nil, apperrors.MalformedBody("enrichment node is not valid JSON", raw, err)
		}
		detail.raw = raw
		slots[idx] = &detail
	}

	details := make([]activityDetail, len(ids))
	for i, d := range slots {
		if d == nil {
			return nil, apperrors.MissingField(fmt.Sprintf("a%d", i), data)
		}
		details[i] = *d
	}
	return details, nil
}

// decodeActivityTransaction merges a raw feed node with its enrichment
// detail into one transaction record.
func decodeActivityTransaction(node activityNode, detail activityDetail, account Account) (Transaction, error) {
	switch {
	case node.Type == nil:
		return Transaction{}, apperrors.MissingField("type", node.raw)
	case node.Status == nil:
		return Transaction{}, apperrors.MissingField("status", node.raw)
	case node.OccurredAt == nil:
		return Transaction{}, apperrors.MissingField("occurredAt", node.raw)
	case node.Amount == nil:
		return Transaction{}, apperrors.MissingField("amount", node.raw)
	case node.Currency == nil:
		return Transaction{}, apperrors.MissingField("currency", node.raw)
	}

	txnType, err := mapActivityType(*node.Type, node.SubType)
	if err != nil {
		return Transaction{}, apperrors.InvalidField("type", err.Error(), node.raw)
	}

	occurred, err := parseOccurredAt(*node.OccurredAt)
	if err != nil {
		return Transaction{}, apperrors.InvalidField("occurredAt",
			fmt.Sprintf("cannot parse occurredAt %q", *node.OccurredAt), node.raw)
	}

	// Settled activity carries its own settlement timestamp in a distinct
	// textual format; everything else reuses the occurred-at time.
	effective := occurred
	if *node.Status == "settled" {
		if node.SettledAt == "" {
			return Transaction{}, apperrors.MissingField("settledAt", node.raw)
		}
		effective, err = parseSettledAt(node.SettledAt)
		if err != nil {
			return Transaction{}, apperrors.InvalidField("settledAt",
				fmt.Sprintf("cannot parse settledAt %q", node.SettledAt), node.raw)
		}
	}

	amountText := string(*node.Amount)
	amountValue, err := decimal.NewFromString(amountText)
	if err != nil {
		return Transaction{}, apperrors.InvalidField("amount",
			fmt.Sprintf("%q is not a decimal value", amountText), node.raw)
	}
	// The feed reports magnitudes with a separate sign marker; flip the net
	// cash effect to negative without round-tripping through binary.
	if node.AmountSign == "negative" && amountValue.Sign() > 0 {
		amountText = "-" + amountText
	}

	quantity, err := checkDecimal("assetQuantity", node.AssetQuantity, node.raw)
	if err != nil {
		return Transaction{}, err
	}

	// An enrichment node naming a foreign currency flags the transaction as
	// foreign; the fx rate then becomes mandatory.
	fxRate := "1.0"
	if detail.ForeignCurrency != "" && detail.ForeignCurrency != *node.Currency {
		if detail.FXRate == "" {
			return Transaction{}, apperrors.MissingField("fxRate", detail.raw)
		}
		fxRate, err = checkDecimal("fxRate", detail.FXRate, detail.raw)
		if err != nil {
			return Transaction{}, err
		}
	}

	accountID := account.ID
	if node.AccountID != nil {
		accountID = *node.AccountID
	}

	description := detail.MerchantName
	if description == "" {
		description = *node.Type
		if node.SubType != "" {
			description += "/" + node.SubType
		}
	}

	return Transaction{
		ID:          *node.CanonicalID,
		AccountID:   accountID,
		Type:        txnType,
		Description: description,
		Symbol:      node.AssetSymbol,
		Quantity:    quantity,
		NetCash: Money{
			Amount:   amountText,
			Currency: *node.Currency,
		},
		FXRate:        fxRate,
		EffectiveDate: effective,
		ProcessDate:   occurred,
	}, nil
}
