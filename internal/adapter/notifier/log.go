package notifier

import (
	"context"
	"log"

	"github.com/google/uuid"
)

type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID uuid.UUID, event string, payload map[string]any) error {
	n.logger.Printf("[notify] %s -> %s %v", event, userID, payload)
	return nil
}
