package stats

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Alternative is the alternative hypothesis of a rank test.
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Greater  Alternative = "greater" // x tends to be larger than y
	Less     Alternative = "less"    // x tends to be smaller than y
)

// ParseAlternative validates a configured alternative.
func ParseAlternative(s string) (Alternative, error) {
	switch a := Alternative(s); a {
	case TwoSided, Greater, Less:
		return a, nil
	case "":
		return TwoSided, nil
	}
	return "", fmt.Errorf("unknown alternative %q (valid: two-sided, greater, less)", s)
}

// Method names the null distribution used for a p-value.
const (
	MethodExact      = "exact"
	MethodAsymptotic = "asymptotic"
)

// exactLimit is the sample size at or below which, without ties, the exact
// null distribution is used.
const exactLimit = 8

// MannWhitneyResult is the outcome of MannWhitneyU.
type MannWhitneyResult struct {
	U      float64 // U statistic of x
	PValue float64
	Method string
	N1, N2 int
}

// MannWhitneyU runs the Mann-Whitney U rank-sum test of x against y.
// The exact distribution is used when either sample has at most 8 values
// and there are no ties; otherwise the normal approximation with tie and
// continuity corrections.
func MannWhitneyU(x, y []float64, alt Alternative) (*MannWhitneyResult, error) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return nil, fmt.Errorf("%w: sizes %d and %d", ErrEmptySample, n1, n2)
	}
	if alt == "" {
		alt = TwoSided
	}

	ranks, ties := rankAll(x, y)
	r1 := 0.0
	for _, r := range ranks[:n1] {
		r1 += r
	}
	u1 := r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1

	var u float64
	switch alt {
	case Greater:
		u = u1
	case Less:
		u = u2
	case TwoSided:
		u = math.Max(u1, u2)
	default:
		return nil, fmt.Errorf("unknown alternative %q", alt)
	}

	res := &MannWhitneyResult{U: u1, N1: n1, N2: n2}
	if (n1 <= exactLimit || n2 <= exactLimit) && len(ties) == 0 {
		res.Method = MethodExact
		res.PValue = exactSurvival(int(u), n1, n2)
	} else {
		res.Method = MethodAsymptotic
		res.PValue = asymptoticSurvival(u, n1, n2, ties)
	}
	if alt == TwoSided {
		res.PValue *= 2
	}
	res.PValue = math.Min(math.Max(res.PValue, 0), 1)
	return res, nil
}

// rankAll assigns average ranks to the concatenation of x and y and
// returns the sizes of every tie group.
func rankAll(x, y []float64) ([]float64, []int) {
	n := len(x) + len(y)
	values := make([]float64, 0, n)
	values = append(values, x...)
	values = append(values, y...)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, n)
	var ties []int
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

func asymptoticSurvival(u float64, n1, n2 int, ties []int) float64 {
	n := float64(n1 + n2)
	mu := float64(n1*n2) / 2

	tieTerm := 0.0
	for _, t := range ties {
		ft := float64(t)
		tieTerm += ft*ft*ft - ft
	}
	s := math.Sqrt(float64(n1*n2) / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	if s == 0 {
		return 1
	}
	z := (u - mu - 0.5) / s
	return distuv.UnitNormal.Survival(z)
}

// exactSurvival returns P(U >= k) under the null for sample sizes m and n.
func exactSurvival(k, m, n int) float64 {
	counts := uFrequencies(m, n)
	if k <= 0 {
		return 1
	}
	if k >= len(counts) {
		return 0
	}
	tail := new(big.Int)
	all := new(big.Int)
	for u, c := range counts {
		all.Add(all, c)
		if u >= k {
			tail.Add(tail, c)
		}
	}
	p, _ := new(big.Rat).SetFrac(tail, all).Float64()
	return p
}

// uFrequencies returns the number of rank arrangements producing each U in
// 0..m*n: the coefficients of the Gaussian binomial [m+n choose m]_q, built
// as the product of (1-q^(n+i))/(1-q^i) for i = 1..min(m,n).
func uFrequencies(m, n int) []*big.Int {
	if m > n {
		m, n = n, m
	}
	coef := make([]*big.Int, m*n+1)
	for i := range coef {
		coef[i] = new(big.Int)
	}
	coef[0].SetInt64(1)

	for i := 1; i <= m; i++ {
		// multiply by (1 - q^(n+i)), highest degree first
		shift := n + i
		for d := len(coef) - 1; d >= shift; d-- {
			coef[d].Sub(coef[d], coef[d-shift])
		}
		// divide by (1 - q^i): running sum with stride i
		for d := i; d < len(coef); d++ {
			coef[d].Add(coef[d], coef[d-i])
		}
	}
	return coef
}
