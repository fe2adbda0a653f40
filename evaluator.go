package mandel

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter marks a precondition violation in a caller supplied value.
var ErrInvalidParameter = errors.New("invalid parameter")

// ResultSet holds one EscapeResult per sampled point of a region.
type ResultSet []EscapeResult

// Evaluator computes escape times for every point of a region.
//
// Stream passes each result to sink exactly once. Sink is never called from two
// goroutines at the same time, but it may be called from a goroutine other than
// the caller's. Results arrive in no particular order unless the evaluator says so.
// A sink that blocks holds up the evaluation: the sequential evaluators wait for
// it directly, VectorParallelEvaluator's kernels once the collector buffer fills.
type Evaluator interface {
	Stream(r Region, sink func(EscapeResult)) error
}

// Strategy names an evaluation strategy.
type Strategy string

const (
	Scalar         Strategy = "scalar"
	Parallel       Strategy = "parallel"
	Vector         Strategy = "vector"
	VectorParallel Strategy = "vector_parallel"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{Scalar, Parallel, Vector, VectorParallel}

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q: %w", name, ErrInvalidParameter)
}

// NewEvaluator returns an evaluator for s with default settings.
func NewEvaluator(s Strategy) (Evaluator, error) {
	switch s {
	case Scalar:
		return ScalarEvaluator{}, nil
	case Parallel:
		return ParallelEvaluator{}, nil
	case Vector:
		return VectorEvaluator{}, nil
	case VectorParallel:
		return VectorParallelEvaluator{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q: %w", s, ErrInvalidParameter)
}

// Stream evaluates r with strategy s and hands every result to sink.
func Stream(r Region, s Strategy, sink func(EscapeResult)) error {
	e, err := NewEvaluator(s)
	if err != nil {
		return err
	}
	return e.Stream(r, sink)
}

// Evaluate evaluates r with strategy s and returns all results.
func Evaluate(r Region, s Strategy) (ResultSet, error) {
	e, err := NewEvaluator(s)
	if err != nil {
		return nil, err
	}
	return collect(e, r)
}

func collect(e Evaluator, r Region) (ResultSet, error) {
	results := make(ResultSet, 0, max(r.Len(), 0))
	if err := e.Stream(r, func(res EscapeResult) {
		results = append(results, res)
	}); err != nil {
		return nil, err
	}
	return results, nil
}
