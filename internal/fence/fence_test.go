package fence

import (
	"bufio"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAll(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"no quotes", "nothing to see here", nil},
		{"simple", `He said "hi"`, []string{"hi"}},
		{"simple with tail", `This is a "test" string!`, []string{"test"}},
		{"multiple per line", `This "is" a "test" string!`, []string{"is", "test"}},
		{"triple fence keeps shorter runs", `This is a """triple "super" test"""`, []string{`triple "super" test`}},
		{"escaped quote outside", `This \" is a "test"`, []string{"test"}},
		{"escaped quotes inside", `This is a "huge \"test\""`, []string{`huge \"test\"`}},
		{"leading escaped string", `There is a little \"trick "going on" here`, []string{"going on"}},
		{"newline inside literal", "There's a \"multi\nline\" string in this one!", []string{"multi\nline"}},
		{"dangling fence", `a "dangling`, nil},
		{"dangling after literal", `"one" and "two`, []string{"one"}},
		{"trailing escape inside", `"abc\`, nil},
		{"trailing escape outside", `"abc" \`, []string{"abc"}},
		{"escaped escape outside", `\\"x"`, []string{"x"}},
		{"escaped escape inside", `"a\\"`, []string{`a\\`}},
		{"double fence", `""two "quoted" words""`, []string{`two "quoted" words`}},
		{"undershoot recovers quotes", `"""a""b"""`, []string{`a""b`}},
		{"undershoot then fresh close", `""a"b""`, []string{`a"b`}},
		{"overshoot opens new fence", `""a"""b"`, []string{"a", "b"}},
		{"empty pair never closes", `a "" b "c"`, nil},
		{"unicode content", `"héllo wörld ✓"`, []string{"héllo wörld ✓"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindAll(tt.input)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("FindAll(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestFindAll_JoinedLines(t *testing.T) {
	input := strings.Join([]string{
		`This is a "simple" one!`,
		`This is a \""tougher" one!`,
		`There are """triple quotes""" in ""this"" one!`,
		"There is a \"multi\nline\" string in this one!",
	}, "\n")

	want := []string{"simple", "tougher", "triple quotes", "this", "multi\nline"}
	if diff := cmp.Diff(want, FindAll(input)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFindAll_NotSelfRecursive(t *testing.T) {
	first := FindAll(`one "alpha" two "beta gamma" three`)
	require.Equal(t, []string{"alpha", "beta gamma"}, first)

	again := FindAll(strings.Join(first, "\n"))
	assert.Empty(t, again)
}

func TestFindAll_CustomDelimiters(t *testing.T) {
	got := FindAll("use `x` and ``a`b`` but not \\`y", WithQuote('`'))
	assert.Equal(t, []string{"x", "a`b"}, got)

	got = FindAll(`keep 'it' ^'not 'a^'b'`, WithQuote('\''), WithEscape('^'))
	assert.Equal(t, []string{"it", "a^'b"}, got)
}

func TestMachine_Push(t *testing.T) {
	m := New()
	var got []string
	for _, r := range `x "ab" y` {
		if lit, ok := m.Push(r); ok {
			got = append(got, lit)
		}
	}
	assert.Equal(t, []string{"ab"}, got)
	assert.False(t, m.Open())
	assert.Zero(t, m.Buffered())
}

func TestMachine_OpenAndReset(t *testing.T) {
	m := New()
	for _, r := range `say "hel` {
		_, ok := m.Push(r)
		require.False(t, ok)
	}
	assert.True(t, m.Open())
	assert.Equal(t, 3, m.Buffered())

	m.Reset()
	assert.False(t, m.Open())
	assert.Zero(t, m.Buffered())

	// A fresh fence after reset is counted from scratch.
	var got []string
	for _, r := range `"ok"` {
		if lit, ok := m.Push(r); ok {
			got = append(got, lit)
		}
	}
	assert.Equal(t, []string{"ok"}, got)
}

func TestMachine_OpenWhileCounting(t *testing.T) {
	m := New()
	m.Push('"')
	m.Push('"')
	assert.True(t, m.Open())
	assert.Zero(t, m.Buffered())
}

func TestDelimiters_Validate(t *testing.T) {
	assert.NoError(t, Delimiters{Quote: '"', Escape: '\\'}.Validate())
	assert.Error(t, Delimiters{Quote: 0, Escape: '\\'}.Validate())
	assert.Error(t, Delimiters{Quote: '"', Escape: -1}.Validate())

	err := Delimiters{Quote: '"', Escape: '"'}.Validate()
	assert.ErrorIs(t, err, ErrSameDelimiter)

	assert.Equal(t, Delimiters{Quote: '"', Escape: '\\'}, New().Delimiters())
	assert.Equal(t, Delimiters{Quote: '|', Escape: '!'}, New(WithDelimiters(Delimiters{Quote: '|', Escape: '!'})).Delimiters())
}

func TestFinder_Scan(t *testing.T) {
	f := NewFinder(strings.NewReader(`"a" b "c"`))

	require.True(t, f.Scan())
	assert.Equal(t, "a", f.Text())
	require.True(t, f.Scan())
	assert.Equal(t, "c", f.Text())
	assert.False(t, f.Scan())
	assert.Empty(t, f.Text())
	assert.NoError(t, f.Err())
	assert.Equal(t, 9, f.Runes())

	// Exhausted finders stay exhausted.
	assert.False(t, f.Scan())
}

func TestFinder_Dangling(t *testing.T) {
	f := NewFinder(strings.NewReader(`a "dangling`))
	assert.False(t, f.Scan())
	assert.NoError(t, f.Err())

	n, open := f.Dangling()
	assert.True(t, open)
	assert.Equal(t, len("dangling"), n)
}

func TestFinder_ReadError(t *testing.T) {
	errBoom := errors.New("boom")
	r := bufio.NewReader(io.MultiReader(strings.NewReader(`"a" "b`), iotest.ErrReader(errBoom)))
	f := NewFinder(r)

	require.True(t, f.Scan())
	assert.Equal(t, "a", f.Text())
	assert.False(t, f.Scan())
	assert.ErrorIs(t, f.Err(), errBoom)
}

func TestFinder_All(t *testing.T) {
	f := NewFinder(strings.NewReader(`"1" "2" "3"`))
	var got []string
	for lit := range f.All() {
		got = append(got, lit)
		if lit == "2" {
			break
		}
	}
	assert.Equal(t, []string{"1", "2"}, got)

	// The sequence is forward-only: the rest is still there.
	assert.Equal(t, []string{"3"}, slices.Collect(f.All()))
}

func TestStrings(t *testing.T) {
	runes := slices.Values([]rune(`x "one" y ""two"" z`))
	assert.Equal(t, []string{"one", "two"}, slices.Collect(Strings(runes)))

	var first []string
	for lit := range Strings(slices.Values([]rune(`"a" "b"`))) {
		first = append(first, lit)
		break
	}
	assert.Equal(t, []string{"a"}, first)
}
