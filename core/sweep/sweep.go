// Package sweep expands textual range specifications into parameter lists
// and zips several lists into one ordered sweep of parameter tuples.
package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// ParameterError reports a malformed range specification. It always surfaces
// before any network activity.
type ParameterError struct {
	Spec string
	Err  error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter range %q: %v", e.Spec, e.Err)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// Expand turns a range specification into an ordered list of integers.
// Supported forms:
//
//	"5"       -> [5]
//	"1,5,2"   -> [1 5 2]        (order and duplicates preserved)
//	"1:4"     -> [1 2 3 4]      (inclusive)
//	"2:3:10"  -> [2 5 8]        (inclusive, stepping by 3)
func Expand(spec string) ([]int, error) {
	if strings.Contains(spec, ",") {
		parts := strings.Split(spec, ",")
		values := make([]int, 0, len(parts))
		for _, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, &ParameterError{Spec: spec, Err: fmt.Errorf("token %q is not an integer", p)}
			}
			values = append(values, v)
		}
		return values, nil
	}

	parts := strings.Split(spec, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &ParameterError{Spec: spec, Err: fmt.Errorf("token %q is not an integer", p)}
		}
		nums[i] = v
	}

	switch len(nums) {
	case 1:
		return nums, nil
	case 2:
		return expandRange(spec, nums[0], 1, nums[1])
	case 3:
		return expandRange(spec, nums[0], nums[1], nums[2])
	default:
		return nil, &ParameterError{Spec: spec, Err: fmt.Errorf("at most 3 colon-separated parts allowed, got %d", len(nums))}
	}
}

// ExpandPositive expands spec and rejects any value below 1. Used for
// parameters where a zero would make the session arithmetic meaningless,
// such as the message count or the burst size.
func ExpandPositive(spec string) ([]int, error) {
	values, err := Expand(spec)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if v < 1 {
			return nil, &ParameterError{Spec: spec, Err: fmt.Errorf("value %d must be positive", v)}
		}
	}
	return values, nil
}

func expandRange(spec string, from, step, to int) ([]int, error) {
	if step <= 0 {
		return nil, &ParameterError{Spec: spec, Err: fmt.Errorf("step must be positive, got %d", step)}
	}
	var values []int
	for v := from; v <= to; v += step {
		values = append(values, v)
	}
	return values, nil
}

// Zip combines N integer lists into a sweep of N-tuples. The longest list is
// iterated in full and shorter lists cycle to match its length, so one axis
// can vary while others stay fixed or vary in lockstep. The returned xAxis
// holds the values of the first longest list and is used purely for
// reporting.
func Zip(lists ...[]int) (points [][]int, xAxis []int) {
	if len(lists) == 0 {
		return nil, nil
	}
	longest := 0
	for _, l := range lists {
		if len(l) > longest {
			longest = len(l)
		}
	}
	if longest == 0 {
		return nil, nil
	}
	for _, l := range lists {
		if len(l) == longest {
			xAxis = append([]int(nil), l...)
			break
		}
	}
	points = make([][]int, longest)
	for i := 0; i < longest; i++ {
		tuple := make([]int, len(lists))
		for j, l := range lists {
			tuple[j] = l[i%len(l)]
		}
		points[i] = tuple
	}
	return points, xAxis
}
