package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) InsertMessage(ctx context.Context, senderID int, receiverID int, body string, messageType string) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, body, messageType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateStatus(ctx context.Context, messageID int, status string) error {
	args := m.Called(ctx, messageID, status)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkAllSeen(ctx context.Context, senderID int, receiverID int) (int64, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, userID int, peerID int, limit int, offset int) ([]models.Message, error) {
	args := m.Called(ctx, userID, peerID, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, receiverID int, senderID int) (int, error) {
	args := m.Called(ctx, receiverID, senderID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) SoftDeleteForUser(ctx context.Context, messageID int, isSender bool) error {
	args := m.Called(ctx, messageID, isSender)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteForEveryone(ctx context.Context, messageID int, senderID int) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context, excludeID int) ([]models.User, error) {
	args := m.Called(ctx, excludeID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpsertPresence(ctx context.Context, userID int, isOnline bool, lastSeen time.Time) error {
	args := m.Called(ctx, userID, isOnline, lastSeen)
	return args.Error(0)
}

func (m *UserRepositoryMock) TouchLastActive(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
