package optimize

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/sunpeak/dispatchd/core/logger"
	"github.com/sunpeak/dispatchd/core/model"
)

// Tolerance below which a solved value is treated as zero. Matches the
// simplex tolerance passed to gonum.
const solveTol = 1e-7

// exclusivityTol is the threshold above which charge and discharge in the
// same interval are considered simultaneously active, triggering a branch.
const exclusivityTol = 1e-6

// defaultMaxNodes bounds the branch and bound tree. Two binary indicators per
// interval on a six-interval horizon stay far below this.
const defaultMaxNodes = 4096

// Optimizer solves dispatch requests. It is stateless across calls; each
// Solve builds an independent program instance, so a single Optimizer may be
// shared.
type Optimizer struct {
	MaxNodes int
	log      logger.Logger
}

// New returns an Optimizer logging through the given logger.
func New(log logger.Logger) *Optimizer {
	return &Optimizer{MaxNodes: defaultMaxNodes, log: log}
}

// runSimplex solves one LP node with gonum's simplex and maps the
// standard-form solution back onto the original variables.
func runSimplex(p *program) ([]float64, error) {
	cStd, aStd, bStd := lp.Convert(p.c, p.g, p.h, p.a, p.b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, solveTol, nil)
	if err != nil {
		return nil, err
	}
	// Convert splits each free variable into a positive and negative part.
	x := make([]float64, p.nVars)
	for i := range x {
		x[i] = sol[i] - sol[p.nVars+i]
		if x[i] < 0 && x[i] > -solveTol {
			x[i] = 0
		}
	}
	return x, nil
}

// lpSolve points to the LP solver. Tests override it to simulate solver
// failures.
var lpSolve = runSimplex

type node struct {
	banCharge    []bool
	banDischarge []bool
}

func (nd node) child(t int, charge bool) node {
	bc := append([]bool(nil), nd.banCharge...)
	bd := append([]bool(nil), nd.banDischarge...)
	if charge {
		bc[t] = true
	} else {
		bd[t] = true
	}
	return node{banCharge: bc, banDischarge: bd}
}

// violation returns the first interval where charge and discharge are both
// active, or -1 when the solution honors mutual exclusion.
func violation(x []float64, n int) int {
	for t := 0; t < n; t++ {
		if x[varIndex(blockCharge, t, n)] > exclusivityTol && x[varIndex(blockDischarge, t, n)] > exclusivityTol {
			return t
		}
	}
	return -1
}

// Solve validates the request, solves the MILP and projects the solution
// into a DispatchPlan. It fails fast: infeasibility and solver errors are
// returned as distinguishable sentinel errors and never replaced by a
// default schedule.
func (o *Optimizer) Solve(req Request) (model.DispatchPlan, error) {
	if err := req.Plant.Validate(); err != nil {
		return model.DispatchPlan{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := req.Horizon.Validate(); err != nil {
		return model.DispatchPlan{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	n := len(req.Horizon)
	x, err := o.branchAndBound(req, n)
	if err != nil {
		return model.DispatchPlan{}, err
	}

	plan := project(req, x)
	if o.log != nil {
		o.log.Debugw("dispatch solved", map[string]any{
			"intervals":            n,
			"total_curtailment_mw": plan.TotalCurtailmentMW,
			"final_soc_mwh":        plan.FinalSoCMWh,
		})
	}
	return plan, nil
}

// branchAndBound explores the exclusivity indicators depth-first, pruning on
// the incumbent objective. The relaxation already penalizes throughput, so
// for any positive cycle penalty the root solution is usually integral and
// no branching occurs.
func (o *Optimizer) branchAndBound(req Request, n int) ([]float64, error) {
	maxNodes := o.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}

	var (
		best     []float64
		bestObj  float64
		haveBest bool
		explored int
	)

	stack := []node{{banCharge: make([]bool, n), banDischarge: make([]bool, n)}}
	for len(stack) > 0 {
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		explored++
		if explored > maxNodes {
			return nil, fmt.Errorf("%w: node limit %d exceeded", ErrSolveFailed, maxNodes)
		}

		prog := buildProgram(req, nd.banCharge, nd.banDischarge)
		x, err := lpSolve(prog)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			if explored == 1 {
				// The root relaxation admits the trivial curtail-everything
				// schedule, so this indicates corrupt program data.
				return nil, fmt.Errorf("%w: root relaxation infeasible", ErrInfeasible)
			}
			continue
		case err != nil:
			return nil, fmt.Errorf("%w: %v", ErrSolveFailed, err)
		}

		obj := prog.objective(x)
		if haveBest && obj >= bestObj-solveTol {
			continue
		}

		t := violation(x, n)
		if t < 0 {
			best, bestObj, haveBest = x, obj, true
			continue
		}
		stack = append(stack, nd.child(t, true), nd.child(t, false))
	}

	if !haveBest {
		return nil, fmt.Errorf("%w: no integral solution", ErrInfeasible)
	}
	return best, nil
}
