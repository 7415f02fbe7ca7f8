package domain

import "strings"

// PersonName is a given name plus an optional family name.
type PersonName struct {
	Given  string
	Family *string
}

// SplitFullName splits on whitespace. A single token yields a nil family
// name; otherwise the first token is the given name and the rest, joined by
// single spaces, is the family name.
func SplitFullName(full string) PersonName {
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return PersonName{}
	case 1:
		return PersonName{Given: tokens[0]}
	}
	family := strings.Join(tokens[1:], " ")
	return PersonName{Given: tokens[0], Family: &family}
}

// ResolveName prefers explicit first and last names and falls back to
// splitting the full name for whatever is missing.
func ResolveName(full, first, last string) PersonName {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	if first != "" {
		name := PersonName{Given: first}
		if last != "" {
			name.Family = &last
		}
		return name
	}

	name := SplitFullName(full)
	if last != "" {
		name.Family = &last
	}
	return name
}
