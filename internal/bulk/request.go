package bulk

import (
	"bytes"
	"encoding/json"

	errs "todo-bulk-update/pkg/errors"
)

// BatchRequest names the todos to toggle and to delete. The sets may overlap
// and may contain duplicates; neither is normalised.
type BatchRequest struct {
	ToggleIDs []int64 `json:"toggleIds"`
	DeleteIDs []int64 `json:"deleteIds"`
}

// ParseBatchRequest decodes a JSON batch. Both arrays must be present, not
// null, and hold integers only.
func ParseBatchRequest(body []byte) (BatchRequest, error) {
	const op = "bulk.ParseBatchRequest"

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return BatchRequest{}, errs.NewInputParse(op, "Invalid data", err)
	}

	var req BatchRequest
	for _, field := range []struct {
		name string
		dst  *[]int64
	}{
		{"toggleIds", &req.ToggleIDs},
		{"deleteIds", &req.DeleteIDs},
	} {
		v, ok := raw[field.name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return BatchRequest{}, errs.NewInputParse(op, "Invalid data: "+field.name+" must be an array", nil)
		}
		if err := json.Unmarshal(v, field.dst); err != nil {
			return BatchRequest{}, errs.NewInputParse(op, "Invalid data: "+field.name+" must hold integer ids", err)
		}
		if *field.dst == nil {
			*field.dst = []int64{}
		}
	}
	return req, nil
}
