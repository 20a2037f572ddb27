package stub

import (
	"net/http"
	"strings"

	"github.com/gofiber/utils"
)

// ReservedPrefix marks the control-plane namespace. No stub may be stored under it.
const ReservedPrefix = "/np"

// DefaultStatusCode is replayed when a definition carries no code.
const DefaultStatusCode = http.StatusOK

// Methods are the verbs a stub can be registered for, in the lower case form
// they take in control-plane URLs.
var Methods = []string{"delete", "get", "post", "put"}

type (
	// Key identifies a stub by method and raw request URL.
	Key struct {
		Method string
		Path   string
	}

	// Definition is the replayable response stored for a Key.
	Definition struct {
		Code     int      `json:"code,omitempty" yaml:"code,omitempty"`
		Headers  []string `json:"headers,omitempty" yaml:"headers,omitempty"`
		Response string   `json:"response,omitempty" yaml:"response,omitempty"`
	}

	// Registration is the body accepted by the add command. Every field is
	// optional; Definition decides which of them are kept.
	Registration struct {
		Code     *int     `json:"code" yaml:"code"`
		Headers  []string `json:"headers" yaml:"headers"`
		Response *string  `json:"response" yaml:"response"`
	}

	// Header is a single name/value pair from a Definition.
	Header struct {
		Name  string
		Value string
	}
)

// NewKey validates the method and upper cases it.
func NewKey(method, path string) (Key, error) {
	if !RecognizedMethod(method) {
		return Key{}, ErrMethodRequired
	}

	return Key{Method: utils.ToUpper(method), Path: path}, nil
}

// RecognizedMethod reports whether a stub may be registered for method.
func RecognizedMethod(method string) bool {
	for _, m := range Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}

	return false
}

// String is the serialized "METHOD:path" form used as the store field.
func (k Key) String() string {
	return k.Method + ":" + k.Path
}

// Reserved reports whether the key targets the control-plane namespace.
func (k Key) Reserved() bool {
	return IsReserved(k.Path)
}

// IsReserved reports whether path begins with the reserved prefix.
func IsReserved(path string) bool {
	return strings.HasPrefix(path, ReservedPrefix)
}

// ValidStatusCode reports whether code is a recognized HTTP status.
func ValidStatusCode(code int) bool {
	return utils.StatusMessage(code) != ""
}

// Definition keeps the code only when it is a recognized status, the headers
// only when they were sent and the response only when it is non-empty.
// A zero code or an empty response means "no override".
func (r Registration) Definition() Definition {
	var d Definition

	if r.Code != nil && ValidStatusCode(*r.Code) {
		d.Code = *r.Code
	}

	if r.Headers != nil {
		d.Headers = r.Headers
	}

	if r.Response != nil && *r.Response != "" {
		d.Response = *r.Response
	}

	return d
}

// StatusCode returns the code to replay.
func (d Definition) StatusCode() int {
	if d.Code == 0 {
		return DefaultStatusCode
	}

	return d.Code
}

// HeaderPairs splits the stored "Name:Value" entries in order at the first
// colon. The value is kept exactly as stored. Entries without a colon or a
// name are returned in skipped.
func (d Definition) HeaderPairs() (pairs []Header, skipped []string) {
	for _, h := range d.Headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			skipped = append(skipped, h)
			continue
		}

		pairs = append(pairs, Header{Name: name, Value: value})
	}

	return pairs, skipped
}
