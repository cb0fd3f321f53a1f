package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSeats(t *testing.T) {
	assert.Equal(t, []string{"A1"}, SplitSeats("A1"))
	assert.Equal(t, []string{"A1", "A2", "A3"}, SplitSeats("A1,A2,A3"))
	assert.Equal(t, []string{"A1", "A2"}, SplitSeats(" A1 , A2 "))
	assert.Equal(t, []string{"A1", "A2"}, SplitSeats("A1,,A2,"))
	assert.Empty(t, SplitSeats(""))
}

func TestJoinSeats(t *testing.T) {
	assert.Equal(t, "A1,A2,A3", JoinSeats([]string{"A1", "A2", "A3"}))
	assert.Equal(t, "A1", JoinSeats([]string{"A1"}))
	assert.Equal(t, "", JoinSeats(nil))
}

func TestJoinSeatsPreservesInputOrder(t *testing.T) {
	assert.Equal(t, "B2,A1", JoinSeats([]string{"B2", "A1"}))
}

func TestDedupeSeats(t *testing.T) {
	assert.Equal(t, []string{"A1", "A2"}, DedupeSeats([]string{"A1", "A2", "A1"}))
	assert.Equal(t, []string{"B2", "A1"}, DedupeSeats([]string{"B2", " A1 ", "B2"}))
	assert.Empty(t, DedupeSeats([]string{"", "  "}))
}
