package harness

import "github.com/roach88/contactq/internal/translate"

// StepTrace records what one step did. Result holds the normalized result:
// contacts become their ids, sub-entities become field maps.
type StepTrace struct {
	Seq        int             `json:"seq"`
	Query      string          `json:"query"`
	Mode       string          `json:"mode"`
	Descriptor *translate.View `json:"descriptor,omitempty"`
	Result     any             `json:"result"`
	Error      string          `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and consistency check held.
	Pass bool `json:"pass"`

	// Trace has one entry per step, in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains failed checks. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step trace.
func (r *Result) AddTrace(st StepTrace) {
	r.Trace = append(r.Trace, st)
}
