package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation and all assertions hold.
	Pass bool `json:"pass"`

	// Tree is the indented rendering of the parsed condition tree.
	Tree string `json:"tree"`

	// Expr is the rendering of the compiled data form. Empty when
	// compilation failed.
	Expr string `json:"expr,omitempty"`

	// Matched lists the key of every selected record, in record order.
	Matched []string `json:"matched"`

	// RemoteMatched lists the keys the SQLite store selected, when the
	// scenario runs remotely.
	RemoteMatched []string `json:"remote_matched,omitempty"`

	// CompileError is the compilation failure, if any.
	CompileError string `json:"compile_error,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Matched: []string{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
