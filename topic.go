package mqtt5

import (
	"strings"
	"unicode/utf8"
)

// MQTT topic limits (defaults when a broker has not advertised tighter ones).
const (
	DefaultMaxTopicLength    = 65535
	DefaultMaxPayloadSize    = 268435455
	DefaultMaxIncomingPacket = 268435455
	MaxClientIDLength        = 23

	sharedPrefix = "$share/"
)

// sharedSubscription holds the parsed form of a "$share/<group>/<filter>"
// subscription filter.
type sharedSubscription struct {
	Group  string
	Filter string
}

// parseSharedSubscription splits a raw filter into its share group and
// underlying filter, returning ok=false for a filter that is not shared.
func parseSharedSubscription(filter string) (sharedSubscription, bool) {
	if !strings.HasPrefix(filter, sharedPrefix) {
		return sharedSubscription{}, false
	}
	rest := filter[len(sharedPrefix):]
	idx := strings.IndexByte(rest, '/')
	if idx <= 0 || idx == len(rest)-1 {
		return sharedSubscription{}, false
	}
	return sharedSubscription{Group: rest[:idx], Filter: rest[idx+1:]}, true
}

// matchTopic reports whether topic matches filter, honoring '+' (single
// level) and '#' (multi level, trailing only) wildcards. A shared-
// subscription prefix must already be stripped from filter by the caller.
func matchTopic(filter, topic string) bool {
	// A filter starting with a wildcard never matches a topic starting
	// with '$' (used for broker-internal topics such as $SYS).
	if len(topic) > 0 && topic[0] == '$' {
		if len(filter) > 0 && (filter[0] == '+' || filter[0] == '#') {
			return false
		}
	}

	fIdx, tIdx := 0, 0
	fLen, tLen := len(filter), len(topic)

	for fIdx <= fLen {
		var fLevel string
		var fNext int
		if idx := strings.IndexByte(filter[fIdx:], '/'); idx >= 0 {
			fNext = fIdx + idx
			fLevel = filter[fIdx:fNext]
		} else {
			fNext = fLen
			fLevel = filter[fIdx:]
		}

		if fLevel == "#" {
			return true
		}
		if tIdx > tLen {
			return false
		}

		var tLevel string
		var tNext int
		if idx := strings.IndexByte(topic[tIdx:], '/'); idx >= 0 {
			tNext = tIdx + idx
			tLevel = topic[tIdx:tNext]
		} else {
			tNext = tLen
			tLevel = topic[tIdx:]
		}

		if fLevel != "+" && fLevel != tLevel {
			return false
		}

		if fNext == fLen {
			fIdx = fLen + 1
		} else {
			fIdx = fNext + 1
		}
		if tNext == tLen {
			tIdx = tLen + 1
		} else {
			tIdx = tNext + 1
		}
	}

	return tIdx > tLen
}

func getLimit(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

// validateTopicName checks a PUBLISH topic name: no wildcards, no null
// bytes, valid UTF-8, within the configured length.
func validateTopicName(topic string, maxLen int) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(topic) > getLimit(maxLen, DefaultMaxTopicLength) {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#\x00") {
		return ErrInvalidTopic
	}
	if !utf8.ValidString(topic) {
		return ErrInvalidTopic
	}
	return nil
}

// validateTopicFilter checks a SUBSCRIBE/UNSUBSCRIBE filter, including the
// "$share/<group>/<filter>" shared-subscription form.
func validateTopicFilter(filter string, maxLen int) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if len(filter) > getLimit(maxLen, DefaultMaxTopicLength) {
		return ErrInvalidTopic
	}
	if strings.Contains(filter, "\x00") || !utf8.ValidString(filter) {
		return ErrInvalidTopic
	}

	underlying := filter
	if shared, ok := parseSharedSubscription(filter); ok {
		if shared.Group == "" || shared.Filter == "" || strings.ContainsAny(shared.Group, "+#/") {
			return ErrInvalidTopic
		}
		underlying = shared.Filter
	} else if strings.HasPrefix(filter, sharedPrefix) {
		// Starts with "$share/" but isn't a well-formed
		// "$share/<group>/<filter>" — reject rather than fall through and
		// validate it as an ordinary (non-shared) filter.
		return ErrInvalidTopic
	}

	parts := strings.Split(underlying, "/")
	for i, part := range parts {
		if strings.Contains(part, "+") && part != "+" {
			return ErrInvalidTopic
		}
		if strings.Contains(part, "#") {
			if part != "#" || i != len(parts)-1 {
				return ErrInvalidTopic
			}
		}
	}
	return nil
}

func validatePayloadSize(payload []byte, maxSize int) error {
	if len(payload) > getLimit(maxSize, DefaultMaxPayloadSize) {
		return ErrPacketTooLarge
	}
	return nil
}

// validatePayloadFormat checks payload against the PayloadFormat indicator:
// format 1 (UTF-8) requires payload to be valid UTF-8.
func validatePayloadFormat(payload []byte, props *Properties) error {
	if props == nil || props.PayloadFormat == nil || *props.PayloadFormat == PayloadFormatBytes {
		return nil
	}
	if !utf8.Valid(payload) {
		return ErrMalformedPacket
	}
	return nil
}
