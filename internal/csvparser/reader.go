// =============================================================================
// Sales Analytics - Input Reader
// =============================================================================
//
// This file turns the raw input byte stream into text lines. Legacy exports
// arrive in different encodings, so decoding is attempted with each configured
// encoding in order until one succeeds:
//
//   utf-8    -> accepted only if the bytes are valid UTF-8 (BOM is stripped)
//   latin-1  -> ISO-8859-1 charmap
//   cp1252   -> Windows-1252 charmap
//
// If every encoding fails the run cannot continue and ErrUndecodable is
// returned.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUndecodable is returned when no configured encoding can decode the input.
	ErrUndecodable = errors.New("input could not be decoded with any supported encoding")

	// ErrNoData is returned when the input has no non-blank lines.
	ErrNoData = errors.New("input contains no data")
)

// DefaultEncodings is the fallback order used when none is configured.
var DefaultEncodings = []string{"utf-8", "latin-1", "cp1252"}

// SupportedEncodings lists every encoding name ReadLines understands.
var SupportedEncodings = []string{
	"utf-8", "utf8",
	"latin-1", "latin1", "iso-8859-1",
	"cp1252", "windows-1252",
}

// =============================================================================
// READ FUNCTIONS
// =============================================================================

// ReadFile opens the file at path and reads it with ReadLines.
func ReadFile(path string, encodings []string) ([]string, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return ReadLines(file, encodings)
}

// ReadLines decodes the stream and splits it into non-blank lines.
//
// PARAMETERS:
//   - r: The raw input stream.
//   - encodings: Encoding names to try, in order. Empty means DefaultEncodings.
//
// RETURNS:
//   - The non-blank lines, with trailing carriage returns removed.
//   - The name of the encoding that succeeded.
//   - ErrUndecodable if no encoding worked, ErrNoData if nothing is left
//     after dropping blank lines, or a read error.
func ReadLines(r io.Reader, encodings []string) ([]string, string, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input: %w", err)
	}

	var failures []string
	for _, name := range encodings {
		text, err := decode(data, name)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		lines := splitLines(text)
		if len(lines) == 0 {
			return nil, name, ErrNoData
		}
		return lines, name, nil
	}

	return nil, "", fmt.Errorf("%w (%s)", ErrUndecodable, strings.Join(failures, "; "))
}

// IsSupportedEncoding reports whether name is one ReadLines can decode.
func IsSupportedEncoding(name string) bool {
	_, ok := lookupEncoding(name)
	return ok
}

// =============================================================================
// DECODING
// =============================================================================

// decode converts data to a UTF-8 string using the named encoding.
func decode(data []byte, name string) (string, error) {
	enc, ok := lookupEncoding(name)
	if !ok {
		return "", fmt.Errorf("unsupported encoding")
	}

	if enc == unicode.UTF8BOM {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid byte sequence")
		}
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", err
	}

	// Charmap decoders substitute U+FFFD for bytes they cannot map.
	if enc != unicode.UTF8BOM && bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("unmappable byte sequence")
	}

	return string(out), nil
}

// lookupEncoding maps a configured name to an x/text encoding.
func lookupEncoding(name string) (encoding.Encoding, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return unicode.UTF8BOM, true
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, true
	case "cp1252", "windows-1252":
		return charmap.Windows1252, true
	default:
		return nil, false
	}
}

// splitLines splits text into lines and drops the blank ones.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))

	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines
}
