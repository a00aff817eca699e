package webhook

import "strings"

// NormalizeSender reduces a channel-flavored sender identifier to its bare
// phone digits so the same real-world sender always maps to one session.
// Handles the "whatsapp:" URI prefix and JID suffixes like @s.whatsapp.net
// and @c.us appended by the originating channel.
func NormalizeSender(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "whatsapp:")
	if at := strings.IndexByte(s, '@'); at >= 0 {
		s = s[:at]
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SessionID derives the conversation session key for a sender. Empty when
// the identifier carries no digits at all.
func SessionID(sender string) string {
	return NormalizeSender(sender)
}
