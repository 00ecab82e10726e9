package wealthsimple

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestNewActivityFeedRequest(t *testing.T) {
	req := newActivityFeedRequest("acct-1", 50, "")
	if req.OperationName != activityFeedOperation {
		t.Errorf("operation = %q", req.OperationName)
	}
	if _, ok := req.Variables["cursor"]; ok {
		t.Error("first page request carries a cursor")
	}
	ids, ok := req.Variables["accountIds"].([]string)
	if !ok || len(ids) != 1 || ids[0] != "acct-1" {
		t.Errorf("accountIds = %v", req.Variables["accountIds"])
	}
	if req.Variables["first"] != 50 {
		t.Errorf("first = %v", req.Variables["first"])
	}
	if req.Variables["orderBy"] != "OCCURRED_AT_DESC" {
		t.Errorf("orderBy = %v", req.Variables["orderBy"])
	}

	next := newActivityFeedRequest("acct-1", 50, "cursor-1")
	if next.Variables["cursor"] != "cursor-1" {
		t.Errorf("cursor = %v", next.Variables["cursor"])
	}
}

func TestNewActivityDetailsRequest(t *testing.T) {
	ids := []string{"act-1", "act-2", "act-3"}
	req := newActivityDetailsRequest(ids)

	if req.OperationName != activityDetailsOperation {
		t.Errorf("operation = %q", req.OperationName)
	}
	for i, id := range ids {
		name := fmt.Sprintf("id%d", i)
		if req.Variables[name] != id {
			t.Errorf("variables[%s] = %v, want %s", name, req.Variables[name], id)
		}
		if !strings.Contains(req.Query, fmt.Sprintf("$%s: ID!", name)) {
			t.Errorf("query lacks parameter $%s", name)
		}
		if !strings.Contains(req.Query, fmt.Sprintf("a%d: activityFeedItem(canonicalId: $%s)", i, name)) {
			t.Errorf("query lacks alias a%d", i)
		}
	}
	// Ids travel as variables, never interpolated into the query text.
	for _, id := range ids {
		if strings.Contains(req.Query, id) {
			t.Errorf("query text contains raw id %q", id)
		}
	}
}

func TestGraphQLRequestSerialization(t *testing.T) {
	req := newActivityFeedRequest("acct-1", 25, "c")
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"operationName", "query", "variables"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("serialized request lacks %q", key)
		}
	}
}
