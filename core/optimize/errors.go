package optimize

import "errors"

// ErrInvalidInput indicates the request failed validation before a program
// was built. The caller must fix the request.
var ErrInvalidInput = errors.New("optimize: invalid input")

// ErrInfeasible indicates the program had no feasible solution. Under valid
// input this cannot happen (curtailing everything is always feasible), so it
// signals an internal-consistency bug rather than a business outcome.
var ErrInfeasible = errors.New("optimize: infeasible horizon")

// ErrSolveFailed indicates a solver-internal failure. It is never silently
// converted into a default schedule; fallback behavior is the caller's
// decision.
var ErrSolveFailed = errors.New("optimize: solve failed")
