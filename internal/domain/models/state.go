package models

// ConversationState представляет возможные состояния диалога с пользователем
type ConversationState string

const (
	StateNone                       ConversationState = "none"
	StateAwaitingCity               ConversationState = "awaiting_city"
	StateAwaitingDescription        ConversationState = "awaiting_description"
	StateAwaitingWorkerCity         ConversationState = "awaiting_worker_city"
	StateAwaitingSubscriptionTarget ConversationState = "awaiting_subscription_target"
)
