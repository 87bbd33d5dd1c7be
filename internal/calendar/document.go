package calendar

import "strings"

// Document accumulates a VCALENDAR stream. The header is written on
// construction and the footer by Finish.
type Document struct {
	b      strings.Builder
	events int
}

// NewDocument starts a document carrying productID in its PRODID line.
func NewDocument(productID string) *Document {
	productID = strings.NewReplacer("\r", "", "\n", "").Replace(productID)
	if productID == "" {
		productID = DefaultProductID
	}

	d := &Document{}
	d.b.WriteString("BEGIN:VCALENDAR" + crlf)
	d.b.WriteString("VERSION:" + Version + crlf)
	d.b.WriteString("PRODID:" + productID + crlf)
	return d
}

// AppendEvent appends a rendered VEVENT fragment.
func (d *Document) AppendEvent(fragment string) {
	if fragment == "" {
		return
	}
	d.b.WriteString(fragment)
	if !strings.HasSuffix(fragment, crlf) {
		d.b.WriteString(crlf)
	}
	d.events++
}

// Events returns the number of fragments appended so far.
func (d *Document) Events() int {
	return d.events
}

// Finish writes the footer and returns the complete document.
func (d *Document) Finish() string {
	d.b.WriteString("END:VCALENDAR" + crlf)
	return d.b.String()
}
