package entity

// OpKind is the kind of write a merge plans against a store
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
)

// StoreOp is one planned write. Index is the position of the proposed entry
// that produced it.
type StoreOp struct {
	Kind    OpKind     `json:"kind"`
	EventID string     `json:"event_id,omitempty"`
	Draft   EventDraft `json:"draft"`
	Index   int        `json:"index"`
}

// OpOutcome is the settled result of one StoreOp
type OpOutcome struct {
	Op    StoreOp `json:"op"`
	Event *Event  `json:"event,omitempty"`
	Err   error   `json:"-"`
}

// OK reports whether the op succeeded
func (o OpOutcome) OK() bool {
	return o.Err == nil
}

// MergeResult is everything one apply produced: per-op outcomes in request
// order, counts, and the snapshot reloaded after every op settled.
type MergeResult struct {
	BatchID   string      `json:"batch_id"`
	Outcomes  []OpOutcome `json:"outcomes"`
	Created   int         `json:"created"`
	Updated   int         `json:"updated"`
	Failed    int         `json:"failed"`
	Snapshot  []Event     `json:"snapshot"`
	ReloadErr error       `json:"-"`
}

// Success is true when every op succeeded and the reload worked
func (r MergeResult) Success() bool {
	return r.Failed == 0 && r.ReloadErr == nil
}
