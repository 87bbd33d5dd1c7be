package sharelink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		calendarID string
		extra      []string
		hash       string
	}{
		{name: "plain hash", calendarID: "42", extra: []string{"read", "0"}, hash: "abc"},
		{name: "phc hash containing dollars", calendarID: "7", extra: []string{"read", "1700000000"}, hash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$a2V5"},
		{name: "extra meta fields", calendarID: "9", extra: []string{"read", "0", "future", "fields"}, hash: "h"},
		{name: "empty hash", calendarID: "1", extra: []string{"a", "b"}, hash: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			token := Encode(tc.calendarID, tc.extra, tc.hash)
			decoded, ok := Decode(token).Get()
			require.True(t, ok, "token %q should decode", token)
			assert.Equal(t, tc.hash, decoded.Hash)

			calendarID, ok := ParseMeta(decoded.Meta).Get()
			require.True(t, ok)
			assert.Equal(t, tc.calendarID, calendarID)
			assert.Equal(t, append([]string{tc.calendarID}, tc.extra...), decoded.Fields())
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("missing prefix is not a share token", func(t *testing.T) {
		t.Parallel()
		for _, token := range []string{
			"",
			"cal$1|a|b$hash",
			"$CAL$1|a|b$hash",
			"$app$1|a|b$hash",
			" $cal$1|a|b$hash",
		} {
			assert.True(t, Decode(token).IsAbsent(), "token %q", token)
		}
	})

	t.Run("requires a hash separator after meta", func(t *testing.T) {
		t.Parallel()
		assert.True(t, Decode("$cal$1|a|b").IsAbsent())
		assert.True(t, Decode("$cal$").IsAbsent())
	})

	t.Run("splits on the first separator only", func(t *testing.T) {
		t.Parallel()
		token, ok := Decode("$cal$1|a|b$x$y$z").Get()
		require.True(t, ok)
		assert.Equal(t, "1|a|b", token.Meta)
		assert.Equal(t, "x$y$z", token.Hash)
	})
}

func TestParseMeta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		meta string
		want string
		ok   bool
	}{
		{meta: "12|read|0", want: "12", ok: true},
		{meta: "12|read|0|extra", want: "12", ok: true},
		{meta: "||", want: "", ok: true},
		{meta: "12|read", ok: false},
		{meta: "12", ok: false},
		{meta: "", ok: false},
	}

	for _, tc := range tests {
		got, ok := ParseMeta(tc.meta).Get()
		assert.Equal(t, tc.ok, ok, "meta %q", tc.meta)
		if tc.ok {
			assert.Equal(t, tc.want, got, "meta %q", tc.meta)
		}
	}
}
