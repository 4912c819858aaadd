package session

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestToggleAndAscending(t *testing.T) {
    s := NewSelection(10)

    for _, p := range []int{5, 2, 9} {
        selected, err := s.Toggle(p)
        require.NoError(t, err)
        assert.True(t, selected)
    }
    assert.Equal(t, []int{2, 5, 9}, s.Ascending())
    assert.Equal(t, 3, s.Size())

    selected, err := s.Toggle(5)
    require.NoError(t, err)
    assert.False(t, selected)
    assert.Equal(t, []int{2, 9}, s.Ascending())
    assert.Equal(t, 2, s.Size())
}

func TestDoubleToggleRestoresMembership(t *testing.T) {
    s := NewSelection(20)

    _, err := s.Toggle(7)
    require.NoError(t, err)
    assert.True(t, s.Contains(7))

    _, err = s.Toggle(7)
    require.NoError(t, err)
    assert.False(t, s.Contains(7))
    assert.Equal(t, 0, s.Size())
}

func TestToggleOutOfRangeRejected(t *testing.T) {
    s := NewSelection(10)

    for _, p := range []int{0, -1, 11} {
        _, err := s.Toggle(p)
        assert.Error(t, err, "page %d", p)
    }
    assert.Equal(t, 0, s.Size())
}

func TestClear(t *testing.T) {
    s := NewSelection(10)
    for _, p := range []int{1, 3, 5} {
        _, err := s.Toggle(p)
        require.NoError(t, err)
    }
    s.Clear()
    assert.Equal(t, 0, s.Size())
    assert.Empty(t, s.Ascending())
}

func TestAscendingIsRestartableAndDoesNotMutate(t *testing.T) {
    s := NewSelection(10)
    for _, p := range []int{8, 1, 4} {
        _, err := s.Toggle(p)
        require.NoError(t, err)
    }

    first := s.Ascending()
    second := s.Ascending()
    assert.Equal(t, []int{1, 4, 8}, first)
    assert.Equal(t, first, second)

    // mutating the returned slice must not affect the set
    first[0] = 99
    assert.Equal(t, []int{1, 4, 8}, s.Ascending())
}

func TestAscendingAfterDistinctToggles(t *testing.T) {
    s := NewSelection(100)
    in := []int{42, 7, 99, 13, 58}
    for _, p := range in {
        _, err := s.Toggle(p)
        require.NoError(t, err)
    }
    assert.Equal(t, []int{7, 13, 42, 58, 99}, s.Ascending())
    assert.Equal(t, len(in), s.Size())
}
