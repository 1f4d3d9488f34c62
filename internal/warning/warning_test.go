package warning

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferedPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return NewPrinter(logger), &buf
}

func TestKind_ParseRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("Wrong-Duplicate")
	require.NoError(t, err)
	assert.Equal(t, WrongDuplicate, got)

	_, err = ParseKind("nope")
	assert.Error(t, err)
}

func TestPrinter_LogsWarning(t *testing.T) {
	p, buf := bufferedPrinter()
	require.NoError(t, p.Emit(WrongDuplicate, "child first point differs"))
	out := buf.String()
	assert.Contains(t, out, "child first point differs")
	assert.Contains(t, out, "kind=wrong_duplicate")
	assert.Equal(t, 1, p.Count())
}

func TestPrinter_IgnoredIsSilent(t *testing.T) {
	p, buf := bufferedPrinter()
	p.SetIgnoredWarning(ZeroDiameter, true)
	assert.True(t, p.IsIgnored(ZeroDiameter))
	require.NoError(t, p.Emit(ZeroDiameter, "zero"))
	assert.Empty(t, buf.String())

	p.SetIgnoredWarning(ZeroDiameter, false)
	assert.False(t, p.IsIgnored(ZeroDiameter))
}

func TestPrinter_MaxZeroSilencesAll(t *testing.T) {
	p, buf := bufferedPrinter()
	p.SetMaxWarningCount(0)
	p.SetRaiseWarnings(true)
	assert.NoError(t, p.Emit(OnlyChild, "x"))
	assert.Empty(t, buf.String())
}

func TestPrinter_MaxCountCapsOutput(t *testing.T) {
	p, buf := bufferedPrinter()
	p.SetMaxWarningCount(2)
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Emit(AppendingEmptySection, "empty"))
	}
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "msg=empty"))
	assert.Equal(t, 1, strings.Count(out, "maximum number of warnings reached"))
}

func TestPrinter_NegativeMaxIsUnlimited(t *testing.T) {
	p, buf := bufferedPrinter()
	p.SetMaxWarningCount(-1)
	for i := 0; i < 150; i++ {
		require.NoError(t, p.Emit(AppendingEmptySection, "empty"))
	}
	assert.Equal(t, 150, strings.Count(buf.String(), "msg=empty"))
}

func TestPrinter_Raise(t *testing.T) {
	p, _ := bufferedPrinter()
	p.SetRaiseWarnings(true)
	assert.True(t, p.RaiseWarnings())
	err := p.Emit(WrongDuplicate, "boom")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRaised))

	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, WrongDuplicate, werr.Kind)
	assert.Equal(t, "boom", werr.Message)
}

func TestCollector_RecordsIgnored(t *testing.T) {
	c := NewCollector()
	c.SetIgnoredWarning(OnlyChild, true)
	require.NoError(t, c.Emit(OnlyChild, "a"))
	require.NoError(t, c.Emit(WrongDuplicate, "b"))

	all := c.All()
	require.Len(t, all, 2)
	assert.True(t, all[0].Ignored)
	assert.False(t, all[1].Ignored)
	assert.Equal(t, []Kind{WrongDuplicate}, c.Kinds())
	assert.Equal(t, 1, c.CountOf(WrongDuplicate))
	assert.Equal(t, 0, c.CountOf(OnlyChild))

	c.Reset()
	assert.Empty(t, c.All())
}

func TestCollector_Raise(t *testing.T) {
	c := NewCollector()
	c.SetRaiseWarnings(true)
	err := c.Emit(ZeroDiameter, "z")
	assert.ErrorIs(t, err, ErrRaised)
	assert.Len(t, c.All(), 1)
}
