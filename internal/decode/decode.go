// Package decode turns raw file bytes into text by trying a short ordered
// list of candidate encodings, first success wins. The report files this
// tool repairs are written either as UTF-16 with a byte order mark (the
// PowerShell redirection default) or as plain UTF-8, so the chain is
// exactly those two.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Decoder is one candidate encoding: a name for reporting plus the decode
// attempt itself.
type Decoder struct {
	Name   string
	Decode func(data []byte) (string, error)
}

// Chain tries its decoders in order and returns the first success.
type Chain struct {
	decoders []Decoder
}

// NewChain builds a chain from the given decoders, tried in argument order.
func NewChain(decoders ...Decoder) Chain {
	return Chain{decoders: decoders}
}

// Default returns the UTF-16-then-UTF-8 chain.
func Default() Chain {
	return NewChain(UTF16(), UTF8())
}

// Decode returns the decoded text and the name of the decoder that
// accepted it. When every decoder rejects the input, the error carries
// each decoder's failure so the per-file report can show why.
func (c Chain) Decode(data []byte) (text string, encoding string, err error) {
	var failures []string
	for _, d := range c.decoders {
		text, derr := d.Decode(data)
		if derr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", d.Name, derr))
			continue
		}
		return text, d.Name, nil
	}
	return "", "", fmt.Errorf("undecodable content (%s)", strings.Join(failures, "; "))
}

// errMalformedUTF16 reports UTF-16 input that decoded only by substituting
// replacement characters. The x/text decoder never hard-fails on bad code
// units, so the substitution is detected after the fact and treated as a
// rejection, letting the input fall through to the next candidate.
var errMalformedUTF16 = errors.New("malformed UTF-16 code units")

// UTF16 returns the UTF-16 decoder. A byte order mark is required and
// decides endianness; input without one is rejected so that plain UTF-8
// never gets mis-read as little-endian garbage.
func UTF16() Decoder {
	return Decoder{
		Name: "utf-16",
		Decode: func(data []byte) (string, error) {
			dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
			out, err := dec.Bytes(data)
			if err != nil {
				return "", err
			}
			if bytes.ContainsRune(out, utf8.RuneError) {
				return "", errMalformedUTF16
			}
			return string(out), nil
		},
	}
}

// UTF8 returns the UTF-8 decoder. The bytes are the text; a byte order
// mark, if present, is content and passes through untouched.
func UTF8() Decoder {
	return Decoder{
		Name: "utf-8",
		Decode: func(data []byte) (string, error) {
			if off := invalidOffset(data); off >= 0 {
				return "", fmt.Errorf("invalid UTF-8 at byte offset %d", off)
			}
			return string(data), nil
		},
	}
}

// invalidOffset returns the offset of the first invalid UTF-8 sequence in
// data, or -1 when data is valid throughout.
func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
