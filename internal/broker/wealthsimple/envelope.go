package wealthsimple

import (
	"encoding/json"

	apperrors "wealthlink/internal/errors"
)

// restEnvelope is the outer object wrapping every REST collection response:
// {"object": "<kind>", "results": [...]}.
type restEnvelope struct {
	Object  *string           `json:"object"`
	Results []json.RawMessage `json:"results"`
}

// decodeEnvelope validates the response envelope and returns the raw result
// records. The object kind must match the resource being fetched; a mismatch
// means the server contract changed and the whole call is aborted.
func decodeEnvelope(body []byte, wantObject string) ([]json.RawMessage, error) {
	if len(body) == 0 {
		return nil, apperrors.NoData(wantObject)
	}

	var env restEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.MalformedBody("response is not a valid envelope", body, err)
	}
	if env.Object == nil {
		return nil, apperrors.MissingField("object", body)
	}
	if *env.Object != wantObject {
		return nil, apperrors.InvalidField("object",
			"unexpected envelope object kind "+*env.Object, body)
	}
	if env.Results == nil {
		return nil, apperrors.MissingField("results", body)
	}
	return env.Results, nil
}
