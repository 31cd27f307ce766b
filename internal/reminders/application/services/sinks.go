package services

import "context"

// Notifier is the system notification sink. Notify returns an opaque
// notification ID for later clearing; Clear reports whether the
// notification was still present, which some platforms cannot know.
type Notifier interface {
	Notify(ctx context.Context, title, body string) (string, error)
	Clear(ctx context.Context, id string) (bool, error)
}

// Speaker is the text-to-speech sink.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}
