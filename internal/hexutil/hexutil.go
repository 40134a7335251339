// Package hexutil parses the hex dump formats a config space arrives in.
package hexutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHex converts a hex string (with or without whitespace) to a byte slice.
func ParseHex(hex string) ([]byte, error) {
	var sb strings.Builder
	for _, r := range hex {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			sb.WriteRune(r)
		}
	}
	hex = sb.String()

	if len(hex)%2 != 0 {
		return nil, fmt.Errorf("hex string has odd length: %d", len(hex))
	}

	result := make([]byte, len(hex)/2)
	for i := 0; i < len(result); i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex at position %d: %w", i*2, err)
		}
		result[i] = byte(v)
	}
	return result, nil
}

// ParseLspciDump parses the output of lspci -xxxx: one line per 16 bytes,
// each prefixed with a hex offset and a colon. Lines that do not look like
// dump rows (the lspci device banner, blank lines) are skipped. Bytes land
// at the offset the row declares, so sparse dumps keep their layout.
func ParseLspciDump(dump string) ([]byte, error) {
	buf := make([]byte, 0, 4096)

	for ln, line := range strings.Split(dump, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 1 || idx+1 >= len(line) || line[idx+1] != ' ' {
			// Device banner line, e.g. "00:1f.3 Audio device: ...".
			continue
		}
		offset, err := strconv.ParseUint(line[:idx], 16, 16)
		if err != nil {
			continue
		}

		row, err := ParseHex(line[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln+1, err)
		}

		end := int(offset) + len(row)
		if end > len(buf) {
			grown := make([]byte, end)
			copy(grown, buf)
			buf = grown
		}
		copy(buf[offset:], row)
	}

	if len(buf) == 0 {
		return nil, fmt.Errorf("no dump rows found")
	}
	return buf, nil
}

// ParseDump detects the input format and returns the raw config space bytes.
// Raw binary is passed through, text is parsed either as an lspci -xxxx dump
// or as a plain hex string.
func ParseDump(data []byte) ([]byte, error) {
	if isBinary(data) {
		return data, nil
	}

	text := string(data)
	if looksLikeLspci(text) {
		return ParseLspciDump(text)
	}
	return ParseHex(text)
}

// BytesToHex converts a byte slice to a hex string with spaces between bytes.
func BytesToHex(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}

func isBinary(data []byte) bool {
	for _, b := range data {
		if b >= 0x20 && b < 0x7F {
			continue
		}
		switch b {
		case '\n', '\r', '\t':
			continue
		}
		return true
	}
	return false
}

func looksLikeLspci(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 1 || idx > 4 {
			return false
		}
		if _, err := strconv.ParseUint(line[:idx], 16, 16); err != nil {
			return false
		}
		return true
	}
	return false
}
