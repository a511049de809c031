// Package positions persists icon placements as a flat binary record stream.
//
// The stream has no header, no count and no version: it is a sequence of
// (string, point) records read until end of stream. Strings are a uint32 byte
// length followed by UTF-16 code units (0xFFFFFFFF marks a null string), and
// points are two int32 values. Everything is big-endian, matching the default
// QDataStream layout, so files written by older desktop builds stay readable.
//
// Linux file names need not be valid UTF-8. Each byte that is not part of a
// valid sequence (always 0x80 or above) is stored as the lone low surrogate
// U+DC00+b and turned back
// into that byte on decode, so such keys round-trip exactly.
package positions

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/1broseidon/deskgrid/internal/layout"
)

const nullString = 0xFFFFFFFF

// maxKeyBytes bounds a single key so a corrupt length cannot force a huge
// allocation.
const maxKeyBytes = 1 << 20

var (
	byteOrder = binary.BigEndian
	utf16be   = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// Lone low surrogates in [escapeLow, escapeHigh] carry raw key bytes.
const (
	escapeLow  = 0xDC80
	escapeHigh = 0xDCFF
)

// ErrTruncated is returned by Decode when the stream ends inside a record.
var ErrTruncated = errors.New("positions: truncated record")

// Encode writes records in order.
func Encode(w io.Writer, records []layout.Placement) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if err := writeString(bw, r.Key); err != nil {
			return err
		}
		if err := binary.Write(bw, byteOrder, [2]int32{int32(r.Point.X), int32(r.Point.Y)}); err != nil {
			return fmt.Errorf("failed to write point for %q: %w", r.Key, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush positions: %w", err)
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	encoded, err := encodeKey(s)
	if err != nil {
		return fmt.Errorf("failed to encode key %q: %w", s, err)
	}
	if err := binary.Write(w, byteOrder, uint32(len(encoded))); err != nil {
		return fmt.Errorf("failed to write key length: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// Decode reads records until end of stream into a key -> point map. A later
// record for the same key overwrites an earlier one. If the stream ends in the
// middle of a record, the records read so far are returned with ErrTruncated.
func Decode(r io.Reader) (map[string]layout.Point, error) {
	br := bufio.NewReader(r)
	out := make(map[string]layout.Point)

	for {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("failed to read positions: %w", err)
		}

		key, err := readString(br)
		if err != nil {
			return out, err
		}
		var xy [2]int32
		if err := binary.Read(br, byteOrder, &xy); err != nil {
			return out, truncated(err)
		}
		out[key] = layout.Point{X: int(xy[0]), Y: int(xy[1])}
	}
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, byteOrder, &n); err != nil {
		return "", truncated(err)
	}
	if n == nullString {
		return "", nil
	}
	if n > maxKeyBytes || n%2 != 0 {
		return "", fmt.Errorf("positions: invalid key length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", truncated(err)
	}
	return decodeKey(buf)
}

// encodeKey converts s to UTF-16BE, escaping invalid bytes.
func encodeKey(s string) ([]byte, error) {
	out := make([]byte, 0, 2*len(s))
	for len(s) > 0 {
		n := validPrefix(s)
		if n == 0 {
			out = byteOrder.AppendUint16(out, escapeLow+uint16(s[0]-0x80))
			s = s[1:]
			continue
		}
		encoded, err := utf16be.NewEncoder().Bytes([]byte(s[:n]))
		if err != nil {
			return nil, err
		}
		out = append(out, encoded...)
		s = s[n:]
	}
	return out, nil
}

// validPrefix returns the length of the longest valid UTF-8 prefix of s.
func validPrefix(s string) int {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		i += size
	}
	return i
}

// decodeKey reverses encodeKey. A low surrogate that completes a pair is
// text, an unpaired one in the escape range is a raw byte.
func decodeKey(buf []byte) (string, error) {
	var sb strings.Builder
	flush := func(seg []byte) error {
		if len(seg) == 0 {
			return nil
		}
		decoded, err := utf16be.NewDecoder().Bytes(seg)
		if err != nil {
			return fmt.Errorf("failed to decode key: %w", err)
		}
		sb.Write(decoded)
		return nil
	}

	start := 0
	for i := 0; i+1 < len(buf); {
		u := byteOrder.Uint16(buf[i:])
		switch {
		case u >= 0xD800 && u < 0xDC00 && i+3 < len(buf) && isLowSurrogate(byteOrder.Uint16(buf[i+2:])):
			i += 4
		case u >= escapeLow && u <= escapeHigh:
			if err := flush(buf[start:i]); err != nil {
				return "", err
			}
			sb.WriteByte(byte(u-escapeLow) + 0x80)
			i += 2
			start = i
		default:
			i += 2
		}
	}
	if err := flush(buf[start:]); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func isLowSurrogate(u uint16) bool { return u >= 0xDC00 && u < 0xE000 }

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return fmt.Errorf("failed to read positions: %w", err)
}
