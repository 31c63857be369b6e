package geofuzz

import "math"

// Validator checks engine results against the engine contract.
//
// There is no tolerance: a score even slightly outside [0, 1] signals a
// defect in the engine under test.
type Validator struct {
	// Permitted is the shape set the run allowed. A result whose kind is not
	// in the set is a contract violation. The zero value skips the check.
	Permitted ShapeSet
}

// Check validates one result produced at step with the given ordinal within
// that step. It returns a *Error of KindValidation wrapping a
// *ValidationError, or nil.
func (v Validator) Check(step, ordinal int, r StepResult) error {
	reason := ""
	switch {
	case math.IsNaN(r.Score):
		reason = "score is NaN"
	case r.Score < 0 || r.Score > 1:
		reason = "score outside [0, 1]"
	case !r.Kind.Valid():
		reason = "unknown shape kind"
	case !v.Permitted.IsEmpty() && !v.Permitted.Contains(r.Kind):
		reason = "shape kind not permitted by " + v.Permitted.String()
	default:
		return nil
	}
	return newError(KindValidation, "validate", "", &ValidationError{
		Step:    step,
		Ordinal: ordinal,
		Kind:    r.Kind,
		Score:   r.Score,
		Reason:  reason,
	})
}
