package positions

import (
	"bytes"
	"errors"
	"testing"

	"github.com/1broseidon/deskgrid/internal/layout"
)

func TestEncode_WireLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []layout.Placement{{Key: "a", Point: layout.Point{X: 1, Y: -1}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{
		0x00, 0x00, 0x00, 0x02, // byte length
		0x00, 0x61, // "a" as UTF-16BE
		0x00, 0x00, 0x00, 0x01, // x
		0xff, 0xff, 0xff, 0xff, // y
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("expected % x, got % x", want, buf.Bytes())
	}
}

func TestDecode_RoundTripLastRecordWins(t *testing.T) {
	records := []layout.Placement{
		{Key: "/home/u/Desktop/notes.txt", Point: layout.Point{X: 10, Y: 20}},
		{Key: "::{20D04FE0-3AEA-1069-A2D8-08002B30309D}", Point: layout.Point{X: 0, Y: 0}},
		{Key: "/home/u/Desktop/récital 🎵.mp3", Point: layout.Point{X: -5, Y: 300}},
		{Key: "/home/u/Desktop/notes.txt", Point: layout.Point{X: 82, Y: 106}},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 keys, got %d: %v", len(got), got)
	}
	if p := got["/home/u/Desktop/notes.txt"]; p != (layout.Point{X: 82, Y: 106}) {
		t.Fatalf("expected the later record to win, got %v", p)
	}
	if p := got["/home/u/Desktop/récital 🎵.mp3"]; p != (layout.Point{X: -5, Y: 300}) {
		t.Fatalf("expected non-ASCII key to round trip, got %v", p)
	}
}

func TestDecode_EmptyStream(t *testing.T) {
	got, err := Decode(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %v", got)
	}
}

func TestDecode_TruncatedTailKeepsEarlierRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []layout.Placement{
		{Key: "a", Point: layout.Point{X: 1, Y: 2}},
		{Key: "b", Point: layout.Point{X: 3, Y: 4}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := buf.Bytes()[:buf.Len()-3]

	got, err := Decode(bytes.NewReader(data))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if p, ok := got["a"]; !ok || p != (layout.Point{X: 1, Y: 2}) {
		t.Fatalf("expected a to survive, got %v", got)
	}
	if _, ok := got["b"]; ok {
		t.Fatalf("expected the partial record to be dropped")
	}
}

func TestDecode_NullString(t *testing.T) {
	data := []byte{
		0xff, 0xff, 0xff, 0xff,
		0x00, 0x00, 0x00, 0x07,
		0x00, 0x00, 0x00, 0x08,
	}
	got, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p, ok := got[""]; !ok || p != (layout.Point{X: 7, Y: 8}) {
		t.Fatalf("expected empty key at 7,8, got %v", got)
	}
}

func TestDecode_RejectsOddKeyLength(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x03, 0x00, 0x61, 0x00}
	if _, err := Decode(bytes.NewReader(data)); err == nil || errors.Is(err, ErrTruncated) {
		t.Fatalf("expected invalid length error, got %v", err)
	}
}

func TestDecode_RoundTripInvalidUTF8Keys(t *testing.T) {
	records := []layout.Placement{
		{Key: "/home/u/Desktop/caf\xe9.txt", Point: layout.Point{X: 82, Y: 0}},
		{Key: "/home/u/Desktop/caf\xe8.txt", Point: layout.Point{X: 164, Y: 0}},
		{Key: "\xff🎵\x80", Point: layout.Point{X: 1, Y: 2}},
		{Key: "caf\u00e9.txt", Point: layout.Point{X: 3, Y: 4}},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d distinct keys, got %q", len(records), got)
	}
	for _, r := range records {
		p, ok := got[r.Key]
		if !ok || p != r.Point {
			t.Fatalf("expected %q at %v, got %v (found=%v)", r.Key, r.Point, p, ok)
		}
	}
}

func TestEncode_EscapesInvalidBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []layout.Placement{{Key: "a\xe9"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{
		0x00, 0x00, 0x00, 0x04,
		0x00, 0x61, // "a"
		0xdc, 0xe9, // raw 0xe9
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("expected % x, got % x", want, buf.Bytes())
	}
}
