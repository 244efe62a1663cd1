package safety

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/safealloc/model/resource"
	msafety "github.com/viant/safealloc/model/safety"
)

func TestService_Check(t *testing.T) {
	testCases := []struct {
		name           string
		state          *msafety.State
		expectSafe     bool
		expectSequence []int
		expectErr      error
	}{
		{
			name:           "default dataset",
			state:          msafety.Default(),
			expectSafe:     true,
			expectSequence: []int{0, 1, 2, 3, 4},
		},
		{
			name:           "no processes",
			state:          &msafety.State{Available: resource.Vector{1, 2, 3}},
			expectSafe:     true,
			expectSequence: []int{},
		},
		{
			name: "lowest index first",
			state: &msafety.State{
				Available:  resource.Vector{1},
				Allocation: []resource.Vector{{0}, {1}, {0}},
				Need:       []resource.Vector{{2}, {1}, {0}},
			},
			expectSafe:     true,
			expectSequence: []int{1, 0, 2},
		},
		{
			name: "nothing can finish",
			state: &msafety.State{
				Available:  resource.Vector{0, 0, 0},
				Allocation: []resource.Vector{{1, 0, 0}, {0, 1, 0}},
				Need:       []resource.Vector{{1, 1, 1}, {2, 0, 0}},
			},
			expectSequence: []int{},
			expectErr:      ErrUnsafe,
		},
		{
			name: "partial sequence",
			state: &msafety.State{
				Available:  resource.Vector{1},
				Allocation: []resource.Vector{{0}, {1}},
				Need:       []resource.Vector{{5}, {1}},
			},
			expectSequence: []int{1},
			expectErr:      ErrUnsafe,
		},
		{
			name: "ragged input",
			state: &msafety.State{
				Available:  resource.Vector{1, 1},
				Allocation: []resource.Vector{{0}},
				Need:       []resource.Vector{{0, 0}},
			},
			expectErr: ErrInvalidInput,
		},
	}
	srv := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := srv.Check(context.Background(), tc.state)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				if tc.expectErr == ErrInvalidInput {
					assert.Nil(t, result)
					return
				}
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, result)
			assert.Equal(t, tc.expectSafe, result.Safe)
			assert.Equal(t, tc.expectSequence, result.Sequence)
		})
	}
}

func TestService_Check_Properties(t *testing.T) {
	state := msafety.Default()
	before := state.Clone()
	result, err := New().Check(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, before, state, "input must not be modified")

	seen := map[int]bool{}
	for _, p := range result.Sequence {
		assert.False(t, seen[p], "P%d repeated", p)
		seen[p] = true
	}
	assert.Len(t, seen, state.Processes())

	expectWork := []resource.Vector{
		{10, 5, 7}, {10, 6, 7}, {12, 6, 7}, {15, 6, 9}, {17, 7, 10}, {17, 7, 12},
	}
	require.Len(t, result.Steps, 5)
	for i, step := range result.Steps {
		assert.Equal(t, expectWork[i], step.Before)
		assert.Equal(t, expectWork[i+1], step.After)
		assert.True(t, state.Need[step.Process].LessOrEqual(step.Before))
		assert.True(t, step.Before.LessOrEqual(step.After), "work must not shrink")
	}
}

func TestService_Request(t *testing.T) {
	testCases := []struct {
		name           string
		state          *msafety.State
		process        int
		request        resource.Vector
		expectErr      error
		expectSequence []int
		expectAvail    resource.Vector
	}{
		{
			name:           "P1 request granted",
			state:          msafety.Default(),
			process:        1,
			request:        resource.Vector{1, 0, 2},
			expectSequence: []int{0, 1, 2, 3, 4},
			expectAvail:    resource.Vector{9, 5, 5},
		},
		{
			name:           "P4 request granted",
			state:          msafety.Default(),
			process:        4,
			request:        resource.Vector{3, 3, 0},
			expectSequence: []int{1, 2, 3, 4, 0},
			expectAvail:    resource.Vector{7, 2, 7},
		},
		{
			name:      "exceeds need",
			state:     msafety.Default(),
			process:   3,
			request:   resource.Vector{1, 0, 0},
			expectErr: ErrInvalidInput,
		},
		{
			name:           "P2 full need granted",
			state:          msafety.Default(),
			process:        2,
			request:        resource.Vector{9, 0, 0},
			expectSequence: []int{2, 0, 1, 3, 4},
			expectAvail:    resource.Vector{1, 5, 7},
		},
		{
			name: "available too small",
			state: &msafety.State{
				Available:  resource.Vector{1},
				Allocation: []resource.Vector{{0}},
				Need:       []resource.Vector{{3}},
			},
			process:   0,
			request:   resource.Vector{2},
			expectErr: ErrResourceExhausted,
		},
		{
			name: "unsafe after grant",
			state: &msafety.State{
				Available:  resource.Vector{2},
				Allocation: []resource.Vector{{1}, {1}},
				Need:       []resource.Vector{{3}, {2}},
			},
			process:   0,
			request:   resource.Vector{1},
			expectErr: ErrUnsafe,
		},
		{
			name:      "process out of range",
			state:     msafety.Default(),
			process:   5,
			request:   resource.Vector{0, 0, 0},
			expectErr: ErrInvalidInput,
		},
		{
			name:      "negative request",
			state:     msafety.Default(),
			process:   0,
			request:   resource.Vector{-1, 0, 0},
			expectErr: ErrInvalidInput,
		},
	}
	srv := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.state.Clone()
			next, result, err := srv.Request(context.Background(), tc.state, tc.process, tc.request)
			assert.Equal(t, before, tc.state, "input must not be modified")
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				assert.Nil(t, next)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, next)
			assert.True(t, result.Safe)
			assert.Equal(t, tc.expectSequence, result.Sequence)
			assert.Equal(t, tc.expectAvail, next.Available)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "system is in a safe state, safe sequence: P0 P1 P2 P3 P4",
		Format(&Result{Safe: true, Sequence: []int{0, 1, 2, 3, 4}}))
	assert.Equal(t, "system is not in a safe state", Format(&Result{Sequence: []int{1}}))
	assert.Equal(t, "system is not in a safe state", Format(nil))
}
