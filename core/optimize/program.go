package optimize

import (
	"gonum.org/v1/gonum/mat"

	"github.com/sunpeak/dispatchd/core/model"
)

// Request is a fully normalized solve request: plant scalars plus the
// per-interval horizon produced by the payload builder.
type Request struct {
	Plant   model.PlantState `json:"plant"`
	Horizon model.Horizon    `json:"horizon"`
}

// Variable layout: five blocks of n contiguous variables each. soc[t] is the
// stored energy at the end of interval t.
const (
	blockDispatch = iota
	blockCharge
	blockDischarge
	blockCurtail
	blockSoC
	numBlocks
)

func varIndex(block, t, n int) int { return block*n + t }

// program is one LP node: the relaxation of the MILP with charge or
// discharge forced to zero in the banned intervals.
type program struct {
	c []float64
	g *mat.Dense
	h []float64
	a *mat.Dense
	b []float64

	nVars int
}

// buildProgram assembles the LP for the given ban pattern.
//
// Equalities: per-interval energy balance and the SoC recurrence with
// soc[-1] fixed to the initial stored energy. Inequalities: variable box
// bounds plus, where both charge and discharge are still allowed, the relaxed
// exclusivity coupling charge/maxC + discharge/maxD <= 1.
func buildProgram(req Request, banCharge, banDischarge []bool) *program {
	n := len(req.Horizon)
	nVars := numBlocks * n

	c := make([]float64, nVars)
	for t, iv := range req.Horizon {
		c[varIndex(blockCurtail, t, n)] = iv.CurtailmentWeight
		c[varIndex(blockCharge, t, n)] = iv.CyclePenalty
		c[varIndex(blockDischarge, t, n)] = iv.CyclePenalty
	}

	// Equality rows: n balance + n SoC recurrence.
	a := mat.NewDense(2*n, nVars, nil)
	b := make([]float64, 2*n)
	for t, iv := range req.Horizon {
		// dispatch + charge + curtailment - discharge == forecast
		a.Set(t, varIndex(blockDispatch, t, n), 1)
		a.Set(t, varIndex(blockCharge, t, n), 1)
		a.Set(t, varIndex(blockCurtail, t, n), 1)
		a.Set(t, varIndex(blockDischarge, t, n), -1)
		b[t] = iv.ForecastMW

		// soc[t] - soc[t-1] - charge + discharge == 0 (soc[-1] folded into b)
		row := n + t
		a.Set(row, varIndex(blockSoC, t, n), 1)
		a.Set(row, varIndex(blockCharge, t, n), -1)
		a.Set(row, varIndex(blockDischarge, t, n), 1)
		if t == 0 {
			b[row] = req.Plant.InitialEnergyMWh()
		} else {
			a.Set(row, varIndex(blockSoC, t-1, n), -1)
		}
	}

	maxC := req.Plant.MaxChargeMW
	maxD := req.Plant.MaxDischargeMW
	couple := maxC > 0 && maxD > 0

	// Inequality rows: upper bounds for dispatch/charge/discharge/soc (4n),
	// non-negativity for every variable (5n), optional coupling (n).
	rows := 9 * n
	if couple {
		rows += n
	}
	g := mat.NewDense(rows, nVars, nil)
	h := make([]float64, rows)

	row := 0
	for t, iv := range req.Horizon {
		g.Set(row, varIndex(blockDispatch, t, n), 1)
		h[row] = iv.GridLimitMW
		row++
	}
	for t := 0; t < n; t++ {
		g.Set(row, varIndex(blockCharge, t, n), 1)
		if banCharge[t] {
			h[row] = 0
		} else {
			h[row] = maxC
		}
		row++
	}
	for t := 0; t < n; t++ {
		g.Set(row, varIndex(blockDischarge, t, n), 1)
		if banDischarge[t] {
			h[row] = 0
		} else {
			h[row] = maxD
		}
		row++
	}
	for t := 0; t < n; t++ {
		g.Set(row, varIndex(blockSoC, t, n), 1)
		h[row] = req.Plant.CapacityMWh
		row++
	}
	for i := 0; i < nVars; i++ {
		g.Set(row, i, -1)
		h[row] = 0
		row++
	}
	if couple {
		for t := 0; t < n; t++ {
			if !banCharge[t] {
				g.Set(row, varIndex(blockCharge, t, n), 1/maxC)
			}
			if !banDischarge[t] {
				g.Set(row, varIndex(blockDischarge, t, n), 1/maxD)
			}
			h[row] = 1
			row++
		}
	}

	return &program{c: c, g: g, h: h, a: a, b: b, nVars: nVars}
}

// objective evaluates the linear cost of a candidate solution.
func (p *program) objective(x []float64) float64 {
	var sum float64
	for i, ci := range p.c {
		sum += ci * x[i]
	}
	return sum
}
