package encode

import (
	"bytes"
	"encoding/json"
	"io"
)

// JSON encodes a value into a writer in compact form, without escaping HTML
// characters and without the trailing newline json.Encoder adds.
func JSON(v interface{}, w io.Writer) error {
	b, err := Compact(v)
	if err != nil {
		return err
	}

	_, err = w.Write(b)

	return err
}

// Compact returns the compact JSON form of v.
func Compact(v interface{}) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode decodes a single JSON value from data into v, rejecting trailing data.
func Decode(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	if err := decoder.Decode(v); err != nil {
		return err
	}

	if decoder.More() {
		return &json.SyntaxError{Offset: decoder.InputOffset()}
	}

	return nil
}
