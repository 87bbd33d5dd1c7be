package calendar

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-ical"
)

// Archive layout:
//
//	offset 0  magic "CEVT"
//	offset 4  format version (1 byte)
//	offset 5  payload length (uint32, big endian)
//	offset 9  payload: a VCALENDAR holding exactly one VEVENT
const (
	archiveMagic      = "CEVT"
	archiveVersion    = byte(1)
	archiveHeaderSize = len(archiveMagic) + 1 + 4
)

var (
	// ErrCorruptArchive is returned when the envelope cannot be read.
	ErrCorruptArchive = errors.New("calendar: corrupt event archive")
	// ErrUnsupportedArchive is returned for an unknown envelope version.
	ErrUnsupportedArchive = errors.New("calendar: unsupported event archive version")
)

// EncodeArchive serializes an event into the archived record format.
func EncodeArchive(event *Event) ([]byte, error) {
	if event == nil || event.Component == nil || event.Component.Name != ical.CompEvent {
		return nil, ErrNoEvent
	}

	var payload bytes.Buffer
	if err := ical.NewEncoder(&payload).Encode(wrap(event.Component, DefaultProductID)); err != nil {
		return nil, fmt.Errorf("calendar: encode archive payload: %w", err)
	}

	out := make([]byte, archiveHeaderSize, archiveHeaderSize+payload.Len())
	copy(out, archiveMagic)
	out[len(archiveMagic)] = archiveVersion
	binary.BigEndian.PutUint32(out[len(archiveMagic)+1:], uint32(payload.Len()))
	return append(out, payload.Bytes()...), nil
}

// DecodeArchive parses an archived record back into an event.
func DecodeArchive(data []byte) (*Event, error) {
	if len(data) < archiveHeaderSize || string(data[:len(archiveMagic)]) != archiveMagic {
		return nil, ErrCorruptArchive
	}
	if data[len(archiveMagic)] != archiveVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedArchive, data[len(archiveMagic)])
	}

	size := binary.BigEndian.Uint32(data[len(archiveMagic)+1 : archiveHeaderSize])
	payload := data[archiveHeaderSize:]
	if uint64(len(payload)) != uint64(size) {
		return nil, ErrCorruptArchive
	}

	cal, err := ical.NewDecoder(bytes.NewReader(payload)).Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrCorruptArchive
		}
		return nil, fmt.Errorf("calendar: decode archive payload: %w", err)
	}

	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			return &Event{Component: child}, nil
		}
	}
	return nil, ErrNoEvent
}
