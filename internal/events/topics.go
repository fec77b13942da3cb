package events

// Topic constants for domain events emitted by the tracker.
const (
	TopicProductUpserted = "product.upserted"
	TopicProductDeleted  = "product.deleted"
	TopicOrderCommitted  = "order.committed"
	TopicClosureCreated  = "closure.created"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicProductUpserted,
		TopicProductDeleted,
		TopicOrderCommitted,
		TopicClosureCreated,
	}
}
