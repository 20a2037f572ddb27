package stub

import (
	"strings"
)

// Control-plane sub-commands that carry a target in their URL.
const (
	CommandAdd    = "add"
	CommandRemove = "remove"
)

// ValidationError is returned when a control-plane request can not be turned
// into a stub operation. Reason is safe to send back to the client.
type ValidationError struct {
	Reason string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Reason
}

var (
	// ErrMethodRequired is returned when the target has no recognized method.
	ErrMethodRequired = &ValidationError{Reason: "Method type is required in endpoint specification."}

	// ErrReservedTarget is returned when a stub would shadow a control-plane route.
	ErrReservedTarget = &ValidationError{Reason: "Unable to override reserved endpoints."}

	// ErrMalformedDefinition is returned when the add body is not a definition.
	ErrMalformedDefinition = &ValidationError{Reason: "Endpoint definition must be a JSON object."}
)

// CommandPrefix returns the URL prefix of a target-carrying command, e.g. "/np/add/".
func CommandPrefix(command string) string {
	return ReservedPrefix + "/" + command + "/"
}

// ParseTarget extracts the stub key from a control-plane URL such as
// "/np/add/get/foo?x=1". The method token directly follows the command and is
// matched case-insensitively; whatever follows it, including an empty string,
// is the path.
func ParseTarget(command, rawURL string) (Key, error) {
	rest, ok := strings.CutPrefix(rawURL, CommandPrefix(command))
	if !ok {
		return Key{}, ErrMethodRequired
	}

	for _, m := range Methods {
		if len(rest) < len(m) || !strings.EqualFold(rest[:len(m)], m) {
			continue
		}

		return NewKey(m, rest[len(m):])
	}

	return Key{}, ErrMethodRequired
}

// ParseAddTarget is ParseTarget for the add command, which also refuses
// targets inside the reserved namespace.
func ParseAddTarget(rawURL string) (Key, error) {
	key, err := ParseTarget(CommandAdd, rawURL)
	if err != nil {
		return Key{}, err
	}

	if key.Reserved() {
		return Key{}, ErrReservedTarget
	}

	return key, nil
}
