package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushRankKeepsTrailingWindow(t *testing.T) {
	var history []int
	for rank := 1; rank <= 13; rank++ {
		history = PushRank(history, rank)
	}
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, history)
}

func TestPushRankDoesNotAliasInput(t *testing.T) {
	base := make([]int, 2, 10)
	base[0], base[1] = 1, 2
	a := PushRank(base, 3)
	b := PushRank(base, 4)
	assert.Equal(t, []int{1, 2, 3}, a)
	assert.Equal(t, []int{1, 2, 4}, b)
}
