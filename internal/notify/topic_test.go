package notify

import "testing"

func TestTopicFor(t *testing.T) {
	if got := TopicFor(KindModule, "json.set"); got != "keyevent.module.json.set" {
		t.Errorf("TopicFor() = %q", got)
	}
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"keyevent.module.json.set", "keyevent.module.json.set", true},
		{"keyevent.module.json.set", "keyevent.module.*", false},
		{"keyevent.module.json.set", "keyevent.module.**", true},
		{"keyevent.module.json.set", "keyevent.*.json.*", true},
		{"keyevent.generic.del", "keyevent.*.json.*", false},
		{"keyevent.generic.del", "**", true},
		{"keyevent.generic.del", "**.del", true},
		{"keyevent.generic.del", "keyevent.generic.del.extra", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			if got := tt.topic.Matches(tt.pattern); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopicIsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		want  bool
	}{
		{"keyevent.module", true},
		{"**", true},
		{"", false},
		{"a..b", false},
		{".a", false},
	}

	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("Topic(%q).IsValid() = %v, want %v", tt.topic, got, tt.want)
		}
	}
}
