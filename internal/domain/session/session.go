package session

import "strings"

// Store keys. They are independent entries, so any one of them may be missing.
const (
	KeyToken = "risego_session"
	KeyCity  = "risego_city"
	KeyPhone = "risego_phone"
)

// Session is the locally persisted login state.
type Session struct {
	Token string // opaque, empty when absent
	City  string
	Phone string // +90XXXXXXXXXX
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

// FromValues builds a Session from raw store values; missing keys read as "".
func FromValues(values map[string]string) Session {
	return Session{
		Token: values[KeyToken],
		City:  values[KeyCity],
		Phone: values[KeyPhone],
	}
}

// Values returns the three store entries of s.
func (s Session) Values() map[string]string {
	return map[string]string{
		KeyToken: s.Token,
		KeyCity:  s.City,
		KeyPhone: s.Phone,
	}
}

// Keys lists the store keys in a stable order.
func Keys() []string {
	return []string{KeyToken, KeyCity, KeyPhone}
}
