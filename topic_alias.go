package mqtt5

import (
	"sync"

	"github.com/nimbusmq/mqtt5/internal/wire"
)

// topicAliases tracks the outbound topic-alias assignments negotiated with
// the broker's advertised topic_alias_maximum, and substitutes an alias for
// the full topic name on repeat publishes to the same topic.
type topicAliases struct {
	mu      sync.Mutex
	max     uint16
	next    uint16
	aliases map[string]uint16
}

func newTopicAliases() *topicAliases {
	return &topicAliases{next: 1, aliases: make(map[string]uint16)}
}

// reset clears all assigned aliases and applies a new maximum, called after
// each fresh CONNACK since aliases do not survive a new network connection.
func (t *topicAliases) reset(max uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.max = max
	t.next = 1
	t.aliases = make(map[string]uint16)
}

// apply mutates topic/props in place: on a topic seen before it clears the
// topic and sets the existing alias; on a new topic within the negotiated
// maximum it assigns the next alias and keeps the topic; once the maximum
// is reached it leaves the packet untouched.
func (t *topicAliases) apply(topic *string, props **wire.Properties) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.max == 0 || *topic == "" {
		return
	}

	ensureProps := func() {
		if *props == nil {
			*props = &wire.Properties{}
		}
	}

	if aliasID, ok := t.aliases[*topic]; ok {
		ensureProps()
		(*props).TopicAlias = aliasID
		(*props).Presence |= wire.PresTopicAlias
		*topic = ""
		return
	}

	if t.next > t.max {
		return
	}

	aliasID := t.next
	t.next++
	t.aliases[*topic] = aliasID

	ensureProps()
	(*props).TopicAlias = aliasID
	(*props).Presence |= wire.PresTopicAlias
}
