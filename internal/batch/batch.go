package batch

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Failure is one item of a batch that did not go through.
type Failure struct {
	ID  string
	Err error
}

func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}{f.ID, msg})
}

// Result collects per-item outcomes; one failing item never aborts the rest.
type Result struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

func (r *Result) Ok(id string) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *Result) Fail(id string, err error) {
	r.Failed = append(r.Failed, Failure{ID: id, Err: err})
}

func (r Result) HasFailures() bool { return len(r.Failed) > 0 }

// Err joins every failure, or returns nil.
func (r Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.ID, f.Err))
	}
	return errors.Join(errs...)
}
