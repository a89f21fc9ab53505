// Package optimize contains the multi-interval BESS dispatch optimizer. It
// formulates charge, discharge, export and curtailment decisions over a
// forecast horizon as a mixed-integer linear program and solves it with
// gonum's simplex implementation plus branch and bound over the
// charge/discharge exclusivity indicators.
//
// The objective minimizes weighted curtailment plus a battery cycling
// penalty. Curtailment weights are orders of magnitude larger than cycle
// penalties, so the solver exports as much as physically possible and uses
// the cycling cost only to break ties between equally curtailment-optimal
// schedules.
package optimize
