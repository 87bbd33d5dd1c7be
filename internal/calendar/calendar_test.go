package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	stamp = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
)

func stampedEvent(uid, summary string) *Event {
	event := NewEvent(uid, summary, start, start.Add(time.Hour))
	event.EnsureTimestamp(stamp)
	return event
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := EncodeArchive(stampedEvent("uid-1", "Standup"))
	require.NoError(t, err)
	assert.Equal(t, "CEVT", string(data[:4]))

	decoded, err := DecodeArchive(data)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", decoded.UID())
	assert.Equal(t, "Standup", decoded.Summary())

	got, err := decoded.Component.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(start))
}

func TestDecodeArchive_Rejects(t *testing.T) {
	t.Parallel()

	valid, err := EncodeArchive(stampedEvent("uid-2", "Review"))
	require.NoError(t, err)

	t.Run("short input", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeArchive([]byte("CEV"))
		assert.ErrorIs(t, err, ErrCorruptArchive)
	})

	t.Run("bad magic", func(t *testing.T) {
		t.Parallel()
		data := append([]byte("XEVT"), valid[4:]...)
		_, err := DecodeArchive(data)
		assert.ErrorIs(t, err, ErrCorruptArchive)
	})

	t.Run("unknown version", func(t *testing.T) {
		t.Parallel()
		data := append([]byte(nil), valid...)
		data[4] = 9
		_, err := DecodeArchive(data)
		assert.ErrorIs(t, err, ErrUnsupportedArchive)
	})

	t.Run("truncated payload", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeArchive(valid[:len(valid)-5])
		assert.ErrorIs(t, err, ErrCorruptArchive)
	})

	t.Run("garbage payload", func(t *testing.T) {
		t.Parallel()
		payload := []byte("this is not icalendar")
		data := []byte{'C', 'E', 'V', 'T', 1, 0, 0, 0, byte(len(payload))}
		_, err := DecodeArchive(append(data, payload...))
		assert.Error(t, err)
	})

	t.Run("nil event", func(t *testing.T) {
		t.Parallel()
		_, err := EncodeArchive(nil)
		assert.ErrorIs(t, err, ErrNoEvent)
	})
}

func TestEventICalString(t *testing.T) {
	t.Parallel()

	fragment, err := stampedEvent("uid-3", "Planning").ICalString()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(fragment, "BEGIN:VEVENT\r\n"), fragment)
	assert.True(t, strings.HasSuffix(fragment, "END:VEVENT\r\n"), fragment)
	assert.Contains(t, fragment, "UID:uid-3\r\n")
	assert.Contains(t, fragment, "SUMMARY:Planning\r\n")
	assert.NotContains(t, fragment, "VCALENDAR")
	assert.NotContains(t, fragment, "PRODID")
}

func TestEnsureTimestamp(t *testing.T) {
	t.Parallel()

	event := NewEvent("uid-4", "Retro", start, start.Add(time.Hour))
	require.Nil(t, event.Component.Props.Get(ical.PropDateTimeStamp))

	event.EnsureTimestamp(stamp)
	got, err := event.Component.Props.DateTime(ical.PropDateTimeStamp, time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(stamp))

	event.EnsureTimestamp(stamp.Add(time.Hour))
	got, err = event.Component.Props.DateTime(ical.PropDateTimeStamp, time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(stamp), "existing DTSTAMP must be kept")
}

func TestDocument(t *testing.T) {
	t.Parallel()

	t.Run("empty document has header and footer only", func(t *testing.T) {
		t.Parallel()
		out := NewDocument("-//test//EN").Finish()
		assert.Equal(t, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n", out)
	})

	t.Run("appends fragments in order", func(t *testing.T) {
		t.Parallel()
		doc := NewDocument("")
		doc.AppendEvent("BEGIN:VEVENT\r\nUID:a\r\nEND:VEVENT\r\n")
		doc.AppendEvent("")
		doc.AppendEvent("BEGIN:VEVENT\r\nUID:b\r\nEND:VEVENT")
		out := doc.Finish()

		assert.Equal(t, 2, doc.Events())
		assert.Contains(t, out, "PRODID:"+DefaultProductID+"\r\n")
		assert.Less(t, strings.Index(out, "UID:a"), strings.Index(out, "UID:b"))
		assert.True(t, strings.HasSuffix(out, "END:VEVENT\r\nEND:VCALENDAR\r\n"))
	})

	t.Run("strips line breaks from the product id", func(t *testing.T) {
		t.Parallel()
		out := NewDocument("-//evil\r\nX-INJECT:1//EN").Finish()
		assert.Contains(t, out, "PRODID:-//evilX-INJECT:1//EN\r\n")
	})
}
