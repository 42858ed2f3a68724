package optimizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultWeights balances holding 0.3, ordering 0.2 and service level 0.5.
func DefaultWeights() Weights {
	return Weights{Holding: 0.3, Ordering: 0.2, ServiceLevel: 0.5}
}

// Normalize clamps weights to >= 0 and rescales them to sum to 1. All-zero
// (or non-finite) weights restore the defaults.
func (w Weights) Normalize() Weights {
	clean := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0
		}
		return v
	}
	w.Holding = clean(w.Holding)
	w.Ordering = clean(w.Ordering)
	w.ServiceLevel = clean(w.ServiceLevel)

	sum := w.Holding + w.Ordering + w.ServiceLevel
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Holding:      w.Holding / sum,
		Ordering:     w.Ordering / sum,
		ServiceLevel: w.ServiceLevel / sum,
	}
}

// MultiCriteriaInput is the problem of one item.
type MultiCriteriaInput struct {
	AnnualDemand    float64
	StdDaily        float64
	LeadTimeDays    float64
	UnitCost        float64
	HoldingPerUnit  float64 // annual holding cost per unit
	OrderingCost    float64
	MinServiceLevel float64
	MaxServiceLevel float64
	Weights         Weights
	// StartQuantity seeds q, normally the classical EOQ.
	StartQuantity float64
}

// SolverOptions bounds the numerical search.
type SolverOptions struct {
	MaxIterations int
	Tolerance     float64
}

// MultiCriteriaSolution is the optimized (q, z) pair.
type MultiCriteriaSolution struct {
	OrderQuantity  float64
	Z              float64
	ServiceLevel   float64
	Objective      float64
	Iterations     int
	Converged      bool
	SigmaLeadTime  float64
	NormalizedCost [3]float64 // holding, ordering, service
}

// mcProblem holds the normalized objective and its bounds.
type mcProblem struct {
	in          MultiCriteriaInput
	w           Weights
	sigmaLT     float64
	maxHolding  float64
	maxOrdering float64
	maxShortage float64
	zLo, zHi    float64
	qLo, qHi    float64
}

func newMCProblem(in MultiCriteriaInput) (*mcProblem, error) {
	if !(in.AnnualDemand > 0) || math.IsInf(in.AnnualDemand, 0) {
		return nil, ErrInvalidAnnualDemand
	}
	minSL := clampRange(in.MinServiceLevel, minServiceLevel, maxServiceLevel)
	maxSL := in.MaxServiceLevel
	if !(maxSL > minSL) || maxSL >= 1 {
		maxSL = 0.9999
	}
	if maxSL <= minSL {
		maxSL = minSL
	}

	std := math.Max(0, in.StdDaily)
	lt := math.Max(0, in.LeadTimeDays)

	p := &mcProblem{
		in:      in,
		w:       in.Weights.Normalize(),
		sigmaLT: std * math.Sqrt(lt),
		zLo:     distuv.UnitNormal.Quantile(minSL),
		zHi:     distuv.UnitNormal.Quantile(maxSL),
		qLo:     1,
		qHi:     math.Max(1, in.AnnualDemand),
	}
	// Upper estimates; not tight, so normalized terms may slightly exceed 1.
	p.maxHolding = math.Max(0, in.HoldingPerUnit) * in.AnnualDemand
	p.maxOrdering = math.Max(0, in.OrderingCost) * in.AnnualDemand
	p.maxShortage = 1 - minSL
	return p, nil
}

// terms returns the normalized holding, ordering and service components.
func (p *mcProblem) terms(q, z float64) [3]float64 {
	var t [3]float64
	if p.maxHolding > 0 {
		t[0] = p.in.HoldingPerUnit * (q/2 + z*p.sigmaLT) / p.maxHolding
	}
	if p.maxOrdering > 0 {
		t[1] = p.in.OrderingCost * p.in.AnnualDemand / q / p.maxOrdering
	}
	if p.maxShortage > 0 {
		t[2] = distuv.UnitNormal.Survival(z) / p.maxShortage
	}
	return t
}

func (p *mcProblem) objective(q, z float64) float64 {
	t := p.terms(q, z)
	return p.w.Holding*t[0] + p.w.Ordering*t[1] + p.w.ServiceLevel*t[2]
}

// gradient is the analytic gradient of objective in (q, z).
func (p *mcProblem) gradient(q, z float64) (dq, dz float64) {
	if p.maxHolding > 0 {
		dq += p.w.Holding * p.in.HoldingPerUnit / 2 / p.maxHolding
		dz += p.w.Holding * p.in.HoldingPerUnit * p.sigmaLT / p.maxHolding
	}
	if p.maxOrdering > 0 {
		dq -= p.w.Ordering * p.in.OrderingCost * p.in.AnnualDemand / (q * q) / p.maxOrdering
	}
	if p.maxShortage > 0 {
		dz -= p.w.ServiceLevel * distuv.UnitNormal.Prob(z) / p.maxShortage
	}
	return dq, dz
}

func (p *mcProblem) project(q, z float64) (float64, float64) {
	return clampRange(q, p.qLo, p.qHi), clampRange(z, p.zLo, p.zHi)
}

// OptimizeMultiCriteria minimizes the weighted normalized cost over
// q in [1, max(1, D)] and z in [z(minSL), z(maxSL)] with projected gradient
// descent and Armijo backtracking. The search works on q/q0 so both
// coordinates have comparable scale. It returns ErrNonConvergence when the
// iteration cap is reached or the objective stops being finite.
func OptimizeMultiCriteria(in MultiCriteriaInput, opts SolverOptions) (MultiCriteriaSolution, error) {
	p, err := newMCProblem(in)
	if err != nil {
		return MultiCriteriaSolution{}, err
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 500
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-9
	}

	q0 := in.StartQuantity
	if !(q0 >= 1) || math.IsInf(q0, 0) {
		q0 = 1
	}
	scale := q0

	q, z := p.project(q0, p.zLo)
	f := p.objective(q, z)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return MultiCriteriaSolution{}, fmt.Errorf("%w: objective not finite at start", ErrNonConvergence)
	}

	const (
		armijo   = 1e-4
		shrink   = 0.5
		minStep  = 1e-14
		gradTol  = 1e-8
		initStep = 1.0
	)

	step := initStep
	converged := false
	iter := 0
	for iter = 1; iter <= opts.MaxIterations; iter++ {
		dq, dz := p.gradient(q, z)
		// gradient with respect to x = q/scale
		dx := dq * scale

		// projected gradient norm for the stationarity test
		pq, pz := p.project(q-dx*scale, z-dz)
		pgx := (q - pq) / scale
		pgz := z - pz
		if math.Hypot(pgx, pgz) < gradTol {
			converged = true
			break
		}

		// backtracking along the projected path
		accepted := false
		t := math.Min(step*2, 1e6)
		var nq, nz, nf float64
		for t > minStep {
			nq, nz = p.project(q-t*dx*scale, z-t*dz)
			nf = p.objective(nq, nz)
			decrease := dx*(q-nq)/scale + dz*(z-nz)
			if !math.IsNaN(nf) && nf <= f-armijo*decrease {
				accepted = true
				break
			}
			t *= shrink
		}
		if !accepted {
			// no descent left along the projected gradient: stationary within precision
			converged = math.Hypot(pgx, pgz) < 1e-4
			break
		}
		if math.IsNaN(nf) || math.IsInf(nf, 0) {
			break
		}

		prev := f
		q, z, f, step = nq, nz, nf, t
		if math.Abs(prev-f) <= opts.Tolerance*math.Max(1, math.Max(math.Abs(prev), math.Abs(f))) {
			converged = true
			break
		}
	}

	sol := MultiCriteriaSolution{
		OrderQuantity:  q,
		Z:              z,
		ServiceLevel:   distuv.UnitNormal.CDF(z),
		Objective:      f,
		Iterations:     min(iter, opts.MaxIterations),
		Converged:      converged,
		SigmaLeadTime:  p.sigmaLT,
		NormalizedCost: p.terms(q, z),
	}
	if !converged {
		return sol, fmt.Errorf("%w after %d iterations", ErrNonConvergence, opts.MaxIterations)
	}
	return sol, nil
}
