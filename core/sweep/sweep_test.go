package sweep

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSingleValue(t *testing.T) {
	got, err := Expand("42")
	require.NoError(t, err)
	assert.Equal(t, []int{42}, got)
}

func TestExpandCommaList(t *testing.T) {
	got, err := Expand("3,1,3")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 3}, got, "order and duplicates must be preserved")
}

func TestExpandInclusiveRange(t *testing.T) {
	got, err := Expand("2:5")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 5}, got)
}

func TestExpandSteppedRange(t *testing.T) {
	got, err := Expand("2:3:10")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 8}, got)

	got, err = Expand("10:10:50")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, got)
}

func TestExpandErrors(t *testing.T) {
	for _, spec := range []string{"abc", "1:x", "1,2,z", "1:2:3:4", "1:0:5"} {
		_, err := Expand(spec)
		require.Error(t, err, "spec %q", spec)
		var perr *ParameterError
		assert.True(t, errors.As(err, &perr), "spec %q should yield ParameterError", spec)
	}
}

func TestExpandPositiveRejectsZeroAndNegative(t *testing.T) {
	for _, spec := range []string{"0", "-3", "0:5", "5,0,10", "-2:2"} {
		_, err := ExpandPositive(spec)
		require.Error(t, err, "spec %q", spec)
		var perr *ParameterError
		assert.True(t, errors.As(err, &perr), "spec %q should yield ParameterError", spec)
	}
}

func TestExpandPositiveAcceptsValidSpecs(t *testing.T) {
	got, err := ExpandPositive("1:3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestZipCyclesShorterLists(t *testing.T) {
	points, xAxis := Zip([]int{1}, []int{1, 2, 3})
	assert.Equal(t, [][]int{{1, 1}, {1, 2}, {1, 3}}, points)
	assert.Equal(t, []int{1, 2, 3}, xAxis)
}

func TestZipLockstep(t *testing.T) {
	points, xAxis := Zip([]int{10, 20}, []int{5, 6})
	assert.Equal(t, [][]int{{10, 5}, {20, 6}}, points)
	assert.Equal(t, []int{10, 20}, xAxis, "x axis comes from the first longest list")
}

func TestZipEmpty(t *testing.T) {
	points, xAxis := Zip()
	assert.Nil(t, points)
	assert.Nil(t, xAxis)
}
