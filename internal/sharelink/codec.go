// Package sharelink implements the calendar share token format and the
// secret hashing used to verify bearer secrets against stored tokens.
//
// A token has the shape
//
//	$cal$<calendarId>|<field2>|<field3>[|...]$<hash>
//
// where the meta section carries at least three pipe-delimited fields and the
// hash is an argon2id PHC string of the bearer secret. Meta never contains a
// '$', so splitting on the first '$' after the prefix keeps the hash intact.
package sharelink

import (
	"strings"

	"github.com/samber/mo"
)

const (
	// Prefix marks a principal data entry as a calendar share token.
	Prefix = "$cal$"

	metaSeparator   = "|"
	hashSeparator   = "$"
	minimumMetaSize = 3
)

// Token is a decoded share token. Hash is not verified by Decode.
type Token struct {
	Meta string
	Hash string
}

// Encode builds a share token for calendarID. extra carries the remaining meta
// fields; callers must supply at least two so the token parses back.
func Encode(calendarID string, extra []string, hash string) string {
	fields := make([]string, 0, len(extra)+1)
	fields = append(fields, calendarID)
	fields = append(fields, extra...)

	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(strings.Join(fields, metaSeparator))
	b.WriteString(hashSeparator)
	b.WriteString(hash)
	return b.String()
}

// Decode splits a token into its meta and hash sections. It returns None when
// the prefix is missing or no '$' follows the meta section.
func Decode(token string) mo.Option[Token] {
	rest, ok := strings.CutPrefix(token, Prefix)
	if !ok {
		return mo.None[Token]()
	}
	meta, hash, ok := strings.Cut(rest, hashSeparator)
	if !ok {
		return mo.None[Token]()
	}
	return mo.Some(Token{Meta: meta, Hash: hash})
}

// ParseMeta returns the calendar identifier carried by meta. Fewer than three
// fields yields None; only the first field is consumed.
func ParseMeta(meta string) mo.Option[string] {
	fields := strings.Split(meta, metaSeparator)
	if len(fields) < minimumMetaSize {
		return mo.None[string]()
	}
	return mo.Some(fields[0])
}

// Fields returns every meta field of a decoded token.
func (t Token) Fields() []string {
	return strings.Split(t.Meta, metaSeparator)
}

// CalendarID is shorthand for ParseMeta(t.Meta).
func (t Token) CalendarID() mo.Option[string] {
	return ParseMeta(t.Meta)
}
