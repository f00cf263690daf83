package conditions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
)

const reversionTree = `
and:
  - leaf: indicator-below
    params:
      indicator: percentile
      threshold: 10
  - not:
      leaf: phase-in
      params:
        phases: [strong-bearish]
  - leaf: limit-at
    params:
      indicator: ema
      offset: -0.25
`

func TestLoadTree(t *testing.T) {
	t.Parallel()
	r := NewLeafRegistry()
	c, err := LoadTree([]byte(reversionTree), r)
	require.NoError(t, err)
	assert.Equal(t, "and(indicator-below(percentile,10), not(phase-in(strong-bearish)), limit-at(ema,-0.25))", c.String())

	ctx := testContext(map[string]float64{indicators.Percentile: 4, indicators.EMA: 100}, indicators.WeakBearish)
	res := c.Evaluate(ctx)
	assert.True(t, res.Triggered)
	assert.Equal(t, "75", res.Price.String())

	ctx = testContext(map[string]float64{indicators.Percentile: 4, indicators.EMA: 100}, indicators.StrongBearish)
	assert.False(t, c.Evaluate(ctx).Triggered)
}

func TestBuildNodeErrors(t *testing.T) {
	t.Parallel()
	r := NewLeafRegistry()
	_, err := BuildNode(nil, r)
	if !errors.Is(err, errInvalidNode) {
		t.Errorf("received '%v' expected '%v'", err, errInvalidNode)
	}
	_, err = BuildNode(&Node{Leaf: "stop-loss", Not: &Node{Leaf: "flag-set"}}, r)
	if !errors.Is(err, errInvalidNode) {
		t.Errorf("received '%v' expected '%v'", err, errInvalidNode)
	}
	_, err = BuildNode(&Node{And: []*Node{}}, r)
	if !errors.Is(err, errEmptyCombinator) {
		t.Errorf("received '%v' expected '%v'", err, errEmptyCombinator)
	}
	_, err = BuildNode(&Node{Leaf: "moon-phase"}, r)
	if !errors.Is(err, ErrLeafNotFound) {
		t.Errorf("received '%v' expected '%v'", err, ErrLeafNotFound)
	}
	_, err = BuildNode(&Node{Or: []*Node{{Leaf: "stop-loss", Params: Params{"percent": 2}}}}, r)
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidParam)
	}
}

func TestLeafRegistry(t *testing.T) {
	t.Parallel()
	r := NewLeafRegistry()
	assert.Len(t, r.Names(), 15)

	err := r.Register("stop-loss", newStopLoss)
	if !errors.Is(err, ErrLeafAlreadyRegistered) {
		t.Errorf("received '%v' expected '%v'", err, ErrLeafAlreadyRegistered)
	}
	err = r.Register("custom", nil)
	if !errors.Is(err, errNilFactory) {
		t.Errorf("received '%v' expected '%v'", err, errNilFactory)
	}
	require.NoError(t, r.Register("always", func(Params) (Condition, error) {
		return fixed{result: Triggered("always")}, nil
	}))
	c, err := r.New("ALWAYS", nil)
	require.NoError(t, err)
	assert.True(t, c.Evaluate(testContext(nil, indicators.PhaseUnknown)).Triggered)
}

func TestParams(t *testing.T) {
	t.Parallel()
	p := Params{
		"s":      "x",
		"f":      "0.5",
		"i":      float64(3),
		"bad-i":  1.5,
		"b":      true,
		"list":   []any{"a", "b"},
		"single": "a",
		"mixed":  []any{"a", 2},
	}
	s, err := p.String("s", "")
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	s, err = p.String("missing", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", s)
	_, err = p.String("b", "")
	assert.ErrorIs(t, err, ErrInvalidParam)
	assert.ErrorIs(t, err, gctcommon.ErrTypeAssertFailure)
	_, err = p.RequiredString("missing")
	assert.ErrorIs(t, err, ErrInvalidParam)

	f, err := p.Float("f", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	i, err := p.Int("i", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, i)
	_, err = p.Int("bad-i", 0)
	assert.ErrorIs(t, err, ErrInvalidParam)

	b, err := p.Bool("b", false)
	require.NoError(t, err)
	assert.True(t, b)
	_, err = p.Bool("s", false)
	assert.ErrorIs(t, err, gctcommon.ErrTypeAssertFailure)

	l, err := p.Strings("list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, l)
	l, err = p.Strings("single")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, l)
	_, err = p.Strings("i")
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = p.Strings("mixed")
	assert.ErrorIs(t, err, ErrInvalidParam)
	assert.ErrorIs(t, err, gctcommon.ErrTypeAssertFailure)
}
