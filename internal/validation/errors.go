package validation

import (
	"sort"
	"strings"
)

// FieldErrors maps a field name to its validation messages, in rule order.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// First returns the first message for field, or "".
func (f FieldErrors) First(field string) string {
	if msgs := f[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the names of failing fields, sorted.
func (f FieldErrors) Fields() []string {
	fields := make([]string, 0, len(f))
	for name, msgs := range f {
		if len(msgs) > 0 {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// Empty reports whether there are no errors.
func (f FieldErrors) Empty() bool {
	return len(f.Fields()) == 0
}

// Error implements error so FieldErrors can travel through error returns.
func (f FieldErrors) Error() string {
	fields := f.Fields()
	if len(fields) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("validation failed: ")
	for i, field := range fields {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(field)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(f[field], ", "))
	}
	return sb.String()
}
