package kafka

// TopicPrefix namespaces every topic published by the chatbot.
const TopicPrefix = "chatbot"

// Topic returns the topic name for a domain action, e.g. "chatbot.order.placed".
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
