package wealthsimple

import (
	"encoding/json"
	"fmt"
	"strings"
)

// graphqlRequest is a typed GraphQL POST body. Variable values travel
// through the Variables map and are serialized by encoding/json; query text
// is never built by interpolating user data.
type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// graphqlResponse is the generic GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

const activityFeedOperation = "FetchActivityFeedItems"

// activityFeedQuery pages through an account's activity feed newest-first.
const activityFeedQuery = `query FetchActivityFeedItems($accountIds: [String!]!, $first: Int!, $cursor: Cursor, $orderBy: ActivityFeedItemOrder!) {
  activityFeedItems(first: $first, after: $cursor, condition: {accountIds: $accountIds}, orderBy: $orderBy) {
    edges {
      node {
        canonicalId
        accountId
        type
        subType
        status
        occurredAt
        settledAt
        amount
        amountSign
        currency
        assetSymbol
        assetQuantity
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// newActivityFeedRequest builds the paged activity-feed query for one
// account. cursor is empty on the first page.
func newActivityFeedRequest(accountID string, pageSize int, cursor string) *graphqlRequest {
	vars := map[string]any{
		"accountIds": []string{accountID},
		"first":      pageSize,
		"orderBy":    "OCCURRED_AT_DESC",
	}
	if cursor != "" {
		vars["cursor"] = cursor
	}
	return &graphqlRequest{
		OperationName: activityFeedOperation,
		Query:         activityFeedQuery,
		Variables:     vars,
	}
}

const activityDetailsOperation = "FetchActivityFeedItemDetails"

// newActivityDetailsRequest builds the batched enrichment query for one page
// of activity nodes. Each node id becomes a $idN variable and an aN response
// alias; only the synthetic names are generated, the ids themselves travel
// as typed variables.
func newActivityDetailsRequest(ids []string) *graphqlRequest {
	params := make([]string, len(ids))
	fields := make([]string, len(ids))
	vars := make(map[string]any, len(ids))
	for i, id := range ids {
		name := fmt.Sprintf("id%d", i)
		params[i] = fmt.Sprintf("$%s: ID!", name)
		fields[i] = fmt.Sprintf(
			"a%d: activityFeedItem(canonicalId: $%s) { fxRate foreignAmount foreignCurrency merchantName }",
			i, name)
		vars[name] = id
	}
	query := fmt.Sprintf("query %s(%s) {\n  %s\n}",
		activityDetailsOperation,
		strings.Join(params, ", "),
		strings.Join(fields, "\n  "))
	return &graphqlRequest{
		OperationName: activityDetailsOperation,
		Query:         query,
		Variables:     vars,
	}
}
