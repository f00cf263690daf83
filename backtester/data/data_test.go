package data

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c float64) Bar {
	return Bar{
		Time:   start.Add(time.Duration(i) * time.Hour),
		Open:   decimal.NewFromFloat(o),
		High:   decimal.NewFromFloat(h),
		Low:    decimal.NewFromFloat(l),
		Close:  decimal.NewFromFloat(c),
		Volume: decimal.NewFromInt(10),
	}
}

func TestBarValidate(t *testing.T) {
	t.Parallel()
	b := bar(0, 10, 11, 9, 10.5)
	require.NoError(t, b.Validate())

	b.High = decimal.NewFromInt(10)
	if err := b.Validate(); !errors.Is(err, ErrMalformedBar) {
		t.Errorf("received '%v' expected '%v'", err, ErrMalformedBar)
	}

	b = bar(0, 10, 11, 9, 10.5)
	b.Low = decimal.Zero
	if err := b.Validate(); !errors.Is(err, ErrMalformedBar) {
		t.Errorf("received '%v' expected '%v'", err, ErrMalformedBar)
	}

	b = bar(0, 10, 11, 9, 10.5)
	b.Volume = decimal.NewFromInt(-1)
	assert.ErrorIs(t, b.Validate(), ErrMalformedBar)

	b = bar(0, 10, 11, 9, 10.5)
	b.Time = time.Time{}
	assert.ErrorIs(t, b.Validate(), ErrMalformedBar)
}

func TestNewSeries(t *testing.T) {
	t.Parallel()
	_, err := NewSeries(" ", nil)
	if !errors.Is(err, ErrEmptySymbol) {
		t.Errorf("received '%v' expected '%v'", err, ErrEmptySymbol)
	}
	_, err = NewSeries("BTC", nil)
	if !errors.Is(err, ErrNoBars) {
		t.Errorf("received '%v' expected '%v'", err, ErrNoBars)
	}
	_, err = NewSeries("BTC", []Bar{bar(1, 10, 11, 9, 10), bar(1, 10, 11, 9, 10)})
	if !errors.Is(err, ErrNonMonotonicTime) {
		t.Errorf("received '%v' expected '%v'", err, ErrNonMonotonicTime)
	}

	bars := []Bar{bar(0, 10, 11, 9, 10), bar(1, 10, 12, 9, 11)}
	s, err := NewSeries("BTC", bars)
	require.NoError(t, err)
	assert.Equal(t, "BTC", s.Symbol())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, bars[0].Time, s.Start())
	assert.Equal(t, bars[1].Time, s.End())

	bars[0].Close = decimal.NewFromInt(999)
	b, err := s.At(0)
	require.NoError(t, err)
	assert.True(t, b.Close.Equal(decimal.NewFromInt(10)), "series must not alias the input slice")

	_, err = s.At(2)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)

	cp := s.Bars()
	cp[1].Close = decimal.Zero
	b, err = s.At(1)
	require.NoError(t, err)
	assert.True(t, b.Close.Equal(decimal.NewFromInt(11)))
}

func TestOffsetOf(t *testing.T) {
	t.Parallel()
	s, err := NewSeries("ETH", []Bar{bar(0, 10, 11, 9, 10), bar(2, 10, 11, 9, 10), bar(5, 10, 11, 9, 10)})
	require.NoError(t, err)
	i, ok := s.OffsetOf(start.Add(2 * time.Hour))
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = s.OffsetOf(start.Add(3 * time.Hour))
	assert.False(t, ok)
}

func TestTimeline(t *testing.T) {
	t.Parallel()
	a, err := NewSeries("A", []Bar{bar(0, 10, 11, 9, 10), bar(2, 10, 11, 9, 10), bar(3, 10, 11, 9, 10)})
	require.NoError(t, err)
	b, err := NewSeries("B", []Bar{bar(1, 10, 11, 9, 10), bar(2, 10, 11, 9, 10), bar(4, 10, 11, 9, 10)})
	require.NoError(t, err)
	tl := Timeline(a, b)
	require.Len(t, tl, 5)
	for i := range tl {
		assert.Equal(t, start.Add(time.Duration(i)*time.Hour), tl[i])
	}
}
