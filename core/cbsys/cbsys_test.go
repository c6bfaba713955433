package cbsys

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecNewestFirst(t *testing.T) {
	r := New()
	var order []any
	rec := func(_ Kind, arg any) error { order = append(order, arg); return nil }
	_, err := r.Add(PowerOff, rec, "a")
	require.NoError(t, err)
	_, err = r.Add(PowerOff, rec, "b")
	require.NoError(t, err)
	_, err = r.Add(PowerOn, rec, "other")
	require.NoError(t, err)

	require.NoError(t, r.Exec(PowerOff))
	assert.Equal(t, []any{"b", "a"}, order)
	assert.Equal(t, 2, r.Len(PowerOff))
}

func TestExecStopsOnError(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	ran := false
	_, _ = r.Add(Stop, func(Kind, any) error { ran = true; return nil }, nil)
	_, _ = r.Add(Stop, func(Kind, any) error { return boom }, nil)
	err := r.Exec(Stop)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
}

func TestRemoveAndBadKind(t *testing.T) {
	r := New()
	id, err := r.Add(Start, func(Kind, any) error { return nil }, nil)
	require.NoError(t, err)
	assert.True(t, r.Remove(Start, id))
	assert.False(t, r.Remove(Start, id))
	assert.Zero(t, r.Len(Start))

	_, err = r.Add(Kind(42), func(Kind, any) error { return nil }, nil)
	assert.ErrorIs(t, err, ErrBadKind)
	assert.ErrorIs(t, r.Exec(Kind(-1)), ErrBadKind)
	_, err = r.Add(Start, nil, nil)
	assert.Error(t, err)
	assert.Equal(t, "poweron", PowerOn.String())
}
