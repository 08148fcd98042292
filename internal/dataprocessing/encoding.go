package dataprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings is the order in which ridership exports are decoded.
var DefaultEncodings = []string{"cp949", "utf-8-sig"}

var errInvalidSequence = errors.New("invalid byte sequence")

// textCodec decodes raw bytes to UTF-8 and rejects lossy results.
type textCodec struct {
	name string
	enc  encoding.Encoding
	utf8 bool
}

// lookupCodec resolves an encoding label. cp949 and utf-8-sig are handled
// directly; every other label goes through the WHATWG index.
func lookupCodec(name string) (textCodec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "cp949", "ms949", "uhc":
		return textCodec{name: name, enc: korean.EUCKR}, nil
	case "utf-8-sig", "utf8-sig", "utf-8-bom":
		return textCodec{name: name, enc: unicode.UTF8BOM, utf8: true}, nil
	}

	enc, err := htmlindex.Get(key)
	if err != nil {
		return textCodec{}, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return textCodec{name: name, enc: enc, utf8: enc == unicode.UTF8}, nil
}

func (c textCodec) decode(data []byte) ([]byte, error) {
	if c.utf8 && !utf8.Valid(data) {
		return nil, errInvalidSequence
	}

	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, err
	}

	// x/text substitutes U+FFFD for undecodable input instead of failing.
	if !c.utf8 && bytes.ContainsRune(out, utf8.RuneError) {
		return nil, errInvalidSequence
	}
	return out, nil
}

// ValidateEncodings reports the first label that cannot be resolved.
func ValidateEncodings(names []string) error {
	if len(names) == 0 {
		return errors.New("encoding list is empty")
	}
	for _, name := range names {
		if _, err := lookupCodec(name); err != nil {
			return err
		}
	}
	return nil
}

// DecodeWithFallback tries each encoding in order and returns the text of the
// first one that decodes the whole input without a single invalid sequence.
func DecodeWithFallback(data []byte, names []string) ([]byte, string, error) {
	var errs []error
	for _, name := range names {
		codec, err := lookupCodec(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		text, err := codec.decode(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		return text, codec.name, nil
	}

	if len(errs) == 0 {
		return nil, "", errors.New("no encodings configured")
	}
	return nil, "", errors.Join(errs...)
}
