package data

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Decode converts raw bytes in the named charset (WHATWG labels such as
// "utf-8", "big5", "shift_jis", "windows-1252") to a UTF-8 string.
func Decode(raw []byte, charset string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(raw), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", charset, err)
	}
	return string(decoded), nil
}

// ReadText reads an authored file and decodes it to UTF-8.
func ReadText(path, charset string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := Decode(raw, charset)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return text, nil
}
