// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docket-service/internal/models"
	"docket-service/internal/repositories"
)

var (
	_ repositories.GroupRepository        = (*GroupRepositoryMock)(nil)
	_ repositories.ListRepository         = (*ListRepositoryMock)(nil)
	_ repositories.ItemRepository         = (*ItemRepositoryMock)(nil)
	_ repositories.NoteRepository         = (*NoteRepositoryMock)(nil)
	_ repositories.CommentRepository      = (*CommentRepositoryMock)(nil)
	_ repositories.PollRepository         = (*PollRepositoryMock)(nil)
	_ repositories.InviteRepository       = (*InviteRepositoryMock)(nil)
	_ repositories.InvitationRepository   = (*InvitationRepositoryMock)(nil)
	_ repositories.ActivityRepository     = (*ActivityRepositoryMock)(nil)
	_ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
	_ repositories.UserRepository         = (*UserRepositoryMock)(nil)
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) Create(ctx context.Context, group models.Group) (models.Group, error) {
	args := m.Called(ctx, group)
	return args.Get(0).(models.Group), args.Error(1)
}

func (m *GroupRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Group), args.Error(1)
}

func (m *GroupRepositoryMock) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *GroupRepositoryMock) UpdateSettings(ctx context.Context, id primitive.ObjectID, upd repositories.GroupUpdate) (models.Group, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(models.Group), args.Error(1)
}

func (m *GroupRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *GroupRepositoryMock) AddMember(ctx context.Context, groupID primitive.ObjectID, member models.GroupMember) error {
	args := m.Called(ctx, groupID, member)
	return args.Error(0)
}

func (m *GroupRepositoryMock) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) SetMemberRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	args := m.Called(ctx, groupID, userID, role)
	return args.Error(0)
}

type ListRepositoryMock struct {
	mock.Mock
}

func (m *ListRepositoryMock) Create(ctx context.Context, list models.ShoppingList) (models.ShoppingList, error) {
	args := m.Called(ctx, list)
	return args.Get(0).(models.ShoppingList), args.Error(1)
}

func (m *ListRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.ShoppingList, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.ShoppingList), args.Error(1)
}

func (m *ListRepositoryMock) FindByClientID(ctx context.Context, clientID string) (models.ShoppingList, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(models.ShoppingList), args.Error(1)
}

func (m *ListRepositoryMock) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ShoppingList, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.ShoppingList), args.Error(1)
}

func (m *ListRepositoryMock) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.ShoppingList, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]models.ShoppingList), args.Error(1)
}

func (m *ListRepositoryMock) Update(ctx context.Context, id primitive.ObjectID, upd repositories.ListUpdate) (models.ShoppingList, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(models.ShoppingList), args.Error(1)
}

func (m *ListRepositoryMock) Replace(ctx context.Context, list models.ShoppingList) (models.ShoppingList, error) {
	args := m.Called(ctx, list)
	return args.Get(0).(models.ShoppingList), args.Error(1)
}

func (m *ListRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ItemRepositoryMock struct {
	mock.Mock
}

func (m *ItemRepositoryMock) Create(ctx context.Context, item models.ShoppingListItem) (models.ShoppingListItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(models.ShoppingListItem), args.Error(1)
}

func (m *ItemRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.ShoppingListItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.ShoppingListItem), args.Error(1)
}

func (m *ItemRepositoryMock) ListByList(ctx context.Context, listID primitive.ObjectID, since *time.Time) ([]models.ShoppingListItem, error) {
	args := m.Called(ctx, listID, since)
	return args.Get(0).([]models.ShoppingListItem), args.Error(1)
}

func (m *ItemRepositoryMock) Update(ctx context.Context, id primitive.ObjectID, upd repositories.ItemUpdate) (models.ShoppingListItem, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(models.ShoppingListItem), args.Error(1)
}

func (m *ItemRepositoryMock) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ItemRepositoryMock) DeleteByList(ctx context.Context, listID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, listID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ItemRepositoryMock) CountActive(ctx context.Context, listID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, listID)
	return args.Get(0).(int64), args.Error(1)
}

type NoteRepositoryMock struct {
	mock.Mock
}

func (m *NoteRepositoryMock) Create(ctx context.Context, note models.Note) (models.Note, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *NoteRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.Note, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *NoteRepositoryMock) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Note, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *NoteRepositoryMock) Update(ctx context.Context, id primitive.ObjectID, upd repositories.NoteUpdate) (models.Note, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *NoteRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NoteRepositoryMock) IncCommentCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

type CommentRepositoryMock struct {
	mock.Mock
}

func (m *CommentRepositoryMock) Create(ctx context.Context, comment models.NoteComment) (models.NoteComment, error) {
	args := m.Called(ctx, comment)
	return args.Get(0).(models.NoteComment), args.Error(1)
}

func (m *CommentRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.NoteComment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.NoteComment), args.Error(1)
}

func (m *CommentRepositoryMock) ListByNote(ctx context.Context, noteID primitive.ObjectID) ([]models.NoteComment, error) {
	args := m.Called(ctx, noteID)
	return args.Get(0).([]models.NoteComment), args.Error(1)
}

func (m *CommentRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CommentRepositoryMock) DeleteByNote(ctx context.Context, noteID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, noteID)
	return args.Get(0).(int64), args.Error(1)
}

type PollRepositoryMock struct {
	mock.Mock
}

func (m *PollRepositoryMock) Create(ctx context.Context, poll models.Poll) (models.Poll, error) {
	args := m.Called(ctx, poll)
	return args.Get(0).(models.Poll), args.Error(1)
}

func (m *PollRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.Poll, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Poll), args.Error(1)
}

func (m *PollRepositoryMock) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Poll, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]models.Poll), args.Error(1)
}

func (m *PollRepositoryMock) Update(ctx context.Context, id primitive.ObjectID, upd repositories.PollUpdate) (models.Poll, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(models.Poll), args.Error(1)
}

func (m *PollRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PollRepositoryMock) Vote(ctx context.Context, pollID, optionID, userID primitive.ObjectID) (models.Poll, error) {
	args := m.Called(ctx, pollID, optionID, userID)
	return args.Get(0).(models.Poll), args.Error(1)
}

func (m *PollRepositoryMock) AddOption(ctx context.Context, pollID primitive.ObjectID, option models.PollOption) (models.Poll, error) {
	args := m.Called(ctx, pollID, option)
	return args.Get(0).(models.Poll), args.Error(1)
}

type InviteRepositoryMock struct {
	mock.Mock
}

func (m *InviteRepositoryMock) Create(ctx context.Context, invite models.Invite) (models.Invite, error) {
	args := m.Called(ctx, invite)
	return args.Get(0).(models.Invite), args.Error(1)
}

func (m *InviteRepositoryMock) FindByToken(ctx context.Context, token string) (models.Invite, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Invite), args.Error(1)
}

func (m *InviteRepositoryMock) IncrementUses(ctx context.Context, id primitive.ObjectID) (models.Invite, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Invite), args.Error(1)
}

func (m *InviteRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *InviteRepositoryMock) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(int64), args.Error(1)
}

type InvitationRepositoryMock struct {
	mock.Mock
}

func (m *InvitationRepositoryMock) Create(ctx context.Context, inv models.GroupInvitation) (models.GroupInvitation, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(models.GroupInvitation), args.Error(1)
}

func (m *InvitationRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupInvitation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.GroupInvitation), args.Error(1)
}

func (m *InvitationRepositoryMock) HasPending(ctx context.Context, groupID, recipientID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, groupID, recipientID)
	return args.Bool(0), args.Error(1)
}

func (m *InvitationRepositoryMock) ListPendingForUser(ctx context.Context, recipientID primitive.ObjectID) ([]models.GroupInvitation, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).([]models.GroupInvitation), args.Error(1)
}

func (m *InvitationRepositoryMock) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *InvitationRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ActivityRepositoryMock struct {
	mock.Mock
}

func (m *ActivityRepositoryMock) Create(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(models.ActivityLog), args.Error(1)
}

func (m *ActivityRepositoryMock) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.ActivityLog, error) {
	args := m.Called(ctx, groupID, limit)
	return args.Get(0).([]models.ActivityLog), args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) InsertMany(ctx context.Context, notifications []models.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) FindByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.User), args.Error(1)
}
