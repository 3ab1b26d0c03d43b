package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/snapbook/internal/adapter/notifier"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func TestRabbitNotifier_PublishesToExchangeByEvent(t *testing.T) {
	pub := &publisherMock{}
	userID := uuid.New()
	ctx := context.Background()

	var sent amqp.Publishing
	pub.On("PublishWithContext", ctx, "booking.events", "booking.cancelled", false, false, mock.AnythingOfType("amqp091.Publishing")).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil).Once()

	n := notifier.NewRabbitNotifierWithPublisher(pub, "booking.events")
	err := n.Notify(ctx, userID, "booking.cancelled", map[string]any{"booking_id": "b-1"})

	require.NoError(t, err)
	pub.AssertExpectations(t)
	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, amqp.Persistent, sent.DeliveryMode)
	assert.NotEmpty(t, sent.MessageId)

	var msg notifier.Message
	require.NoError(t, json.Unmarshal(sent.Body, &msg))
	assert.Equal(t, userID.String(), msg.UserID)
	assert.Equal(t, "booking.cancelled", msg.Event)
	assert.Equal(t, "b-1", msg.Payload["booking_id"])
	assert.NoError(t, n.Close())
}

func TestRabbitNotifier_PublishErrorIsReturned(t *testing.T) {
	pub := &publisherMock{}
	pub.On("PublishWithContext", mock.Anything, "booking.events", "booking.created", false, false, mock.Anything).
		Return(amqp.ErrClosed).Once()

	n := notifier.NewRabbitNotifierWithPublisher(pub, "booking.events")
	err := n.Notify(context.Background(), uuid.New(), "booking.created", nil)

	assert.True(t, errors.Is(err, amqp.ErrClosed))
	pub.AssertExpectations(t)
}
