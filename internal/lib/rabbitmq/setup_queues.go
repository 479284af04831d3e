package rabbitmq

// Ключи маршрутизации событий.
const (
	RoutingTrialExpiring = "trial.expiring"
	RoutingSessionEvent  = "session.event"
)

// QueueConfig описывает очередь и ключ, которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// ReviewQueues возвращает очереди, которые объявляет сервис.
func ReviewQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "review.trial_expiring", RoutingKey: RoutingTrialExpiring},
		{QueueName: "review.session_events", RoutingKey: RoutingSessionEvent},
	}
}
