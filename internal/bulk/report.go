package bulk

import "todo-bulk-update/pkg/metrics"

// ItemOutcome is the fate of one id within its sub-batch. Kind is set for
// failed items only.
type ItemOutcome struct {
	ID     int64  `json:"id"`
	Result string `json:"result"`
	Kind   string `json:"kind,omitempty"`
}

// SubBatchReport summarises one sub-batch: committed, rolled_back or empty.
type SubBatchReport struct {
	Outcome string        `json:"outcome"`
	Items   []ItemOutcome `json:"items"`
}

// Report is returned alongside a successful Execute. A rolled back
// sub-batch is not an error for the caller; the report says which ids
// failed and which were discarded with them.
type Report struct {
	Toggles SubBatchReport `json:"toggles"`
	Deletes SubBatchReport `json:"deletes"`
}

// Applied returns the ids whose change was kept.
func (s SubBatchReport) Applied() []int64 {
	return s.ids(metrics.ResultApplied)
}

// Failed returns the ids whose own operation failed.
func (s SubBatchReport) Failed() []int64 {
	return s.ids(metrics.ResultFailed)
}

func (s SubBatchReport) ids(result string) []int64 {
	var out []int64
	for _, it := range s.Items {
		if it.Result == result {
			out = append(out, it.ID)
		}
	}
	return out
}
