// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeWayMerge_Matrix(t *testing.T) {
	tests := []struct {
		name     string
		base     []string
		ours     []string
		theirs   []string
		preserve []string
		want     []string
	}{
		{
			name:   "all empty",
			want:   []string{},
		},
		{
			name:   "ours unchanged yields theirs",
			base:   []string{"a", "b"},
			ours:   []string{"a", "b"},
			theirs: []string{"b", "c"},
			want:   []string{"b", "c"},
		},
		{
			name:   "our addition applied on top of theirs",
			base:   []string{"a"},
			ours:   []string{"a", "b"},
			theirs: []string{"a", "c"},
			want:   []string{"a", "c", "b"},
		},
		{
			name:   "our removal drops untouched item",
			base:   []string{"a", "b"},
			ours:   []string{"a"},
			theirs: []string{"a", "b", "c"},
			want:   []string{"a", "c"},
		},
		{
			name:   "their re-addition survives our stale base",
			base:   []string{"a"},
			ours:   []string{"a"},
			theirs: []string{"a", "d"},
			want:   []string{"a", "d"},
		},
		{
			name:     "preserve forces marker",
			base:     []string{"a"},
			ours:     []string{"a"},
			theirs:   []string{"a"},
			preserve: []string{"origin"},
			want:     []string{"a", "origin"},
		},
		{
			name:     "preserve wins over our removal",
			base:     []string{"origin", "a"},
			ours:     []string{"a"},
			theirs:   []string{"origin", "a"},
			preserve: []string{"origin"},
			want:     []string{"a", "origin"},
		},
		{
			name:   "new items appended sorted",
			base:   nil,
			ours:   []string{"zeta", "alpha", "mid"},
			theirs: []string{"kept"},
			want:   []string{"kept", "alpha", "mid", "zeta"},
		},
		{
			name:   "duplicates in theirs collapse",
			base:   nil,
			ours:   nil,
			theirs: []string{"a", "a", "b"},
			want:   []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ThreeWayMerge(tt.base, tt.ours, tt.theirs, tt.preserve)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThreeWayMerge_Idempotent(t *testing.T) {
	base := []string{"a", "b"}
	ours := []string{"a", "b", "x"}
	theirs := []string{"a", "y"}

	first := ThreeWayMerge(base, ours, theirs, nil)
	second := ThreeWayMerge(base, ours, theirs, nil)
	require.Equal(t, first, second)

	// Merging the result again with itself as both sides is stable.
	assert.Equal(t, first, ThreeWayMerge(first, first, first, nil))
}

func TestThreeWayMerge_Additive(t *testing.T) {
	a := []string{"p", "q"}
	b := []string{"r", "s"}

	got := ThreeWayMerge(nil, a, b, nil)
	for _, item := range append(append([]string{}, a...), b...) {
		assert.Contains(t, got, item)
	}
}

func TestThreeWayMerge_EndToEndScenario(t *testing.T) {
	// Document adds "b", library independently adds "c".
	got := ThreeWayMerge(
		[]string{"a"},
		[]string{"a", "b"},
		[]string{"a", "c"},
		[]string{"origin"},
	)
	assert.Equal(t, []string{"a", "c", "b", "origin"}, got)
}

func Test_equalAsSets(t *testing.T) {
	assert.True(t, equalAsSets([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, equalAsSets([]string{"a", "a"}, []string{"a"}))
	assert.True(t, equalAsSets(nil, nil))
	assert.False(t, equalAsSets([]string{"a"}, []string{"a", "b"}))
	assert.False(t, equalAsSets([]string{"a", "c"}, []string{"a", "b"}))
}
