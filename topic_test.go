package mqtt5

import "testing"

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		match  bool
	}{
		{"test/topic", "test/topic", true},
		{"test/topic", "test/other", false},

		{"test/+", "test/topic", true},
		{"test/+", "test/topic/sub", false},
		{"test/+/sub", "test/topic/sub", true},
		{"+/topic", "test/topic", true},
		{"+/+", "test/topic", true},

		{"test/#", "test/topic", true},
		{"test/#", "test/topic/sub/deep", true},
		{"test/#", "other/topic", false},
		{"#", "any/topic/here", true},
		{"test/topic/#", "test/topic", true},

		{"+/+/#", "test/topic/sub/deep", true},

		// $SYS and other leading-$ topics never match a leading wildcard.
		{"#", "$SYS/broker/uptime", false},
		{"+/broker/uptime", "$SYS/broker/uptime", false},
		{"$SYS/#", "$SYS/broker/uptime", true},

		{"test", "test", true},
	}

	for _, tt := range tests {
		if got := matchTopic(tt.filter, tt.topic); got != tt.match {
			t.Errorf("matchTopic(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.match)
		}
	}
}

func TestParseSharedSubscription(t *testing.T) {
	tests := []struct {
		filter string
		group  string
		inner  string
		ok     bool
	}{
		{"$share/group1/sensors/+", "group1", "sensors/+", true},
		{"$share/g/#", "g", "#", true},
		{"sensors/+", "", "", false},
		{"$share/g/", "", "", false},
		{"$share//topic", "", "", false},
	}
	for _, tt := range tests {
		got, ok := parseSharedSubscription(tt.filter)
		if ok != tt.ok {
			t.Errorf("parseSharedSubscription(%q) ok = %v, want %v", tt.filter, ok, tt.ok)
			continue
		}
		if ok && (got.Group != tt.group || got.Filter != tt.inner) {
			t.Errorf("parseSharedSubscription(%q) = %+v, want group=%q filter=%q", tt.filter, got, tt.group, tt.inner)
		}
	}
}

func TestValidateTopicName(t *testing.T) {
	if err := validateTopicName("", 0); err == nil {
		t.Error("expected error for empty topic name")
	}
	if err := validateTopicName("a/+/b", 0); err == nil {
		t.Error("expected error for wildcard in topic name")
	}
	if err := validateTopicName("sensors/room1/temp", 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateTopicFilter(t *testing.T) {
	tests := []struct {
		filter string
		valid  bool
	}{
		{"sensors/+/temp", true},
		{"sensors/#", true},
		{"sensors/#/temp", false},
		{"sensors/te+st", false},
		{"$share/group/sensors/+", true},
		{"$share/+group/sensors", false},
		{"", false},
	}
	for _, tt := range tests {
		err := validateTopicFilter(tt.filter, 0)
		if (err == nil) != tt.valid {
			t.Errorf("validateTopicFilter(%q) err = %v, want valid=%v", tt.filter, err, tt.valid)
		}
	}
}
