package ws

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func newTestPipeline(t *testing.T) (*Pipeline, *Registry, *fakeTransport, *mocks.MessageRepositoryMock) {
	t.Helper()
	registry := NewRegistry()
	transport := newFakeTransport()
	store := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	users.On("TouchLastActive", mock.Anything, mock.Anything).Return(nil).Maybe()
	pipeline := NewPipeline(store, users, registry, transport, zerolog.Nop())
	return pipeline, registry, transport, store
}

func TestSubmitNotifiesAllSenderConnections(t *testing.T) {
	pipeline, registry, transport, store := newTestPipeline(t)

	registry.Register(1, "a1")
	registry.Register(1, "a2")

	stored := models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: "hi", MessageType: models.TypeText, Status: models.StatusSent}
	store.On("InsertMessage", mock.Anything, 1, 2, "hi", models.TypeText).Return(stored, nil).Once()

	msg, err := pipeline.Submit(context.Background(), 1, 2, "hi", models.TypeText)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)

	assert.Len(t, transport.sentTo("a1", EventMessageSent), 1)
	assert.Len(t, transport.sentTo("a2", EventMessageSent), 1)
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSubmitDeliversToReachableReceiver(t *testing.T) {
	pipeline, registry, transport, store := newTestPipeline(t)

	registry.Register(1, "alice")
	registry.Register(2, "bob")

	stored := models.Message{ID: 11, SenderID: 1, ReceiverID: 2, Body: "hello", MessageType: models.TypeText, Status: models.StatusSent}
	store.On("InsertMessage", mock.Anything, 1, 2, "hello", models.TypeText).Return(stored, nil).Once()
	store.On("UpdateStatus", mock.Anything, 11, models.StatusDelivered).Return(nil).Once()

	msg, err := pipeline.Submit(context.Background(), 1, 2, "hello", models.TypeText)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, msg.Status)

	sent := transport.sentTo("alice", EventMessageSent)
	require.Len(t, sent, 1)
	assert.Equal(t, models.StatusSent, sent[0].Payload.(MessageSent).Message.Status)

	delivered := transport.sentTo("alice", EventMessageDelivered)
	require.Len(t, delivered, 1)
	assert.Equal(t, models.StatusDelivered, delivered[0].Payload.(MessageDelivered).Status)

	received := transport.sentTo("bob", EventMessageReceive)
	require.Len(t, received, 1)
	payload := received[0].Payload.(MessageReceive)
	assert.True(t, payload.PlaySound)
	assert.Equal(t, models.StatusDelivered, payload.Message.Status)

	store.AssertExpectations(t)
}

func TestSubmitLeavesMessageAtRestForOfflineReceiver(t *testing.T) {
	pipeline, registry, transport, store := newTestPipeline(t)

	registry.Register(1, "alice")

	stored := models.Message{ID: 12, SenderID: 1, ReceiverID: 2, Body: "hi", MessageType: models.TypeText, Status: models.StatusSent}
	store.On("InsertMessage", mock.Anything, 1, 2, "hi", models.TypeText).Return(stored, nil).Once()

	msg, err := pipeline.Submit(context.Background(), 1, 2, "hi", models.TypeText)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)

	assert.Empty(t, transport.sentTo("bob", EventMessageReceive))
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitPersistFailureDeliversNothing(t *testing.T) {
	pipeline, registry, transport, store := newTestPipeline(t)

	registry.Register(1, "alice")
	registry.Register(2, "bob")

	store.On("InsertMessage", mock.Anything, 1, 2, "hi", models.TypeText).Return(models.Message{}, assert.AnError).Once()

	_, err := pipeline.Submit(context.Background(), 1, 2, "hi", models.TypeText)
	require.Error(t, err)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Empty(t, transport.sent)
}

func TestSubmitDeliveredStampFailureKeepsSentStatus(t *testing.T) {
	pipeline, registry, transport, store := newTestPipeline(t)

	registry.Register(1, "alice")
	registry.Register(2, "bob")

	stored := models.Message{ID: 13, SenderID: 1, ReceiverID: 2, Body: "hi", MessageType: models.TypeText, Status: models.StatusSent}
	store.On("InsertMessage", mock.Anything, 1, 2, "hi", models.TypeText).Return(stored, nil).Once()
	store.On("UpdateStatus", mock.Anything, 13, models.StatusDelivered).Return(assert.AnError).Once()

	msg, err := pipeline.Submit(context.Background(), 1, 2, "hi", models.TypeText)
	require.NoError(t, err)

	// the stamp never runs ahead of the persisted row
	assert.Equal(t, models.StatusSent, msg.Status)
	assert.Empty(t, transport.sentTo("alice", EventMessageDelivered))

	received := transport.sentTo("bob", EventMessageReceive)
	require.Len(t, received, 1)
	assert.Equal(t, models.StatusSent, received[0].Payload.(MessageReceive).Message.Status)
}

func TestSubmitRejectsInvalidMessageType(t *testing.T) {
	pipeline, _, _, store := newTestPipeline(t)

	_, err := pipeline.Submit(context.Background(), 1, 2, "hi", "carrier-pigeon")
	require.ErrorIs(t, err, ErrInvalidMessageType)
	store.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitDefaultsToTextType(t *testing.T) {
	pipeline, _, _, store := newTestPipeline(t)

	stored := models.Message{ID: 14, SenderID: 1, ReceiverID: 2, Body: "hi", MessageType: models.TypeText, Status: models.StatusSent}
	store.On("InsertMessage", mock.Anything, 1, 2, "hi", models.TypeText).Return(stored, nil).Once()

	_, err := pipeline.Submit(context.Background(), 1, 2, "hi", "")
	require.NoError(t, err)
	store.AssertExpectations(t)
}
