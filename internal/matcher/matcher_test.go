package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	tests := []struct {
		pattern  string
		wantType PatternType
		matches  []string
		misses   []string
	}{
		{"exa-*", Glob, []string{"exa-fin-01", "EXA-mkt02"}, []string{"srv-web-01", "xexa-1"}},
		{"srv-???-01", Glob, []string{"srv-web-01"}, []string{"srv-mail-01"}},
		{"exa-[a-z]*-[0-9][0-9]", Glob, []string{"exa-dev-07"}, []string{"exa-mkt02"}},
		{`exa-[a-z]+\d+`, Regex, []string{"exa-mkt02"}, []string{"exa-fin-01"}},
		{"re:srv-(web|db)-01", Regex, []string{"srv-db-01", "SRV-WEB-01"}, []string{"srv-db-011"}},
		{"srv-web-01", Glob, []string{"srv-web-01"}, []string{"srv-web-012"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			m, err := New(Auto, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, m.Type())
			assert.Equal(t, tt.pattern, m.Pattern())
			for _, h := range tt.matches {
				assert.True(t, m.Match(h), h)
			}
			for _, h := range tt.misses {
				assert.False(t, m.Match(h), h)
			}
		})
	}
}

func TestMatcherErrors(t *testing.T) {
	_, err := New(Glob, "exa-[")
	assert.Error(t, err)

	_, err = New(Regex, "exa-(")
	assert.Error(t, err)

	_, err = New(PatternType(9), "x")
	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	empty, err := NewSet([]string{"", " "})
	require.NoError(t, err)
	assert.True(t, empty.Match("anything"))

	set, err := NewSet([]string{"exa-arklx-*", "re:srv-db-\\d+"})
	require.NoError(t, err)
	assert.True(t, set.Match("exa-arklx-01"))
	assert.True(t, set.Match("srv-db-01"))
	assert.False(t, set.Match("srv-web-01"))

	_, err = NewSet([]string{"ok-*", "re:("})
	assert.Error(t, err)
}

func TestPatternTypeString(t *testing.T) {
	assert.Equal(t, "glob", Glob.String())
	assert.Equal(t, "regex", Regex.String())
	assert.Equal(t, "auto", Auto.String())
	assert.Equal(t, "unknown", PatternType(7).String())
}
