package broadcast

import "testing"

func TestTopicOrderUpdate(t *testing.T) {
	if got := TopicOrderUpdate("abc-123"); got != "order_update_abc-123" {
		t.Fatalf("unexpected topic %q", got)
	}
}

func TestNopPublisher(t *testing.T) {
	// Must be safe with a nil context and arbitrary payloads.
	Nop().Publish(nil, TopicNewOrder, map[string]string{"k": "v"})
}
