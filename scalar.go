package mandel

// ScalarEvaluator applies the escape predicate point by point on the calling
// goroutine. Results arrive in sampling order.
type ScalarEvaluator struct{}

func (ScalarEvaluator) Stream(r Region, sink func(EscapeResult)) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for p := range r.Points() {
		sink(escapeResult(p, r.MaxIterations))
	}
	return nil
}

var _ Evaluator = ScalarEvaluator{}
