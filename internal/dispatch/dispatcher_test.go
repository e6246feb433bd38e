package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"docket-service/internal/mocks"
	"docket-service/internal/models"
	"docket-service/internal/ws"
)

func newTestDispatcher(activity *mocks.ActivityRepositoryMock, notifications *mocks.NotificationRepositoryMock, groups *mocks.GroupRepositoryMock, publisher *mocks.PublisherMock) *Dispatcher {
	return New(activity, notifications, groups, publisher, ws.NewHub(zap.NewNop()),
		zap.NewNop(), "docket-service", "test")
}

func TestLogActivityPersistsPublishesAndFansOut(t *testing.T) {
	author := primitive.NewObjectID()
	recipient := primitive.NewObjectID()
	optedOut := primitive.NewObjectID()
	groupID := primitive.NewObjectID()

	entry := models.ActivityLog{
		GroupID:    groupID,
		AuthorID:   author,
		AuthorName: "mika",
		Category:   models.ActivityGroup,
		Message:    "mika updated the group settings",
	}
	saved := entry
	saved.ID = primitive.NewObjectID()

	activity := new(mocks.ActivityRepositoryMock)
	activity.On("Create", mock.Anything, entry).Return(saved, nil)

	group := models.Group{
		ID: groupID,
		Members: []models.GroupMember{
			{UserID: author, Username: "mika"},
			{UserID: recipient, Username: "jonas"},
			{UserID: optedOut, Username: "lena",
				NotificationPreferences: models.NotificationPreferences{models.NotifyGroup: false}},
		},
	}
	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, groupID).Return(group, nil)

	notifications := new(mocks.NotificationRepositoryMock)
	notifications.On("InsertMany", mock.Anything, mock.MatchedBy(func(batch []models.Notification) bool {
		// The author and the opted-out member receive nothing.
		return len(batch) == 1 && batch[0].RecipientID == recipient &&
			batch[0].Category == models.NotifyGroup
	})).Return(nil)

	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "activity.group", mock.MatchedBy(func(e any) bool {
		event, ok := e.(Event)
		return ok && event.SchemaVersion == 1 && event.Activity.ID == saved.ID
	})).Return(nil)

	d := newTestDispatcher(activity, notifications, groups, publisher)
	d.LogActivity(entry, models.NotifyGroup)
	d.Wait()

	activity.AssertExpectations(t)
	groups.AssertExpectations(t)
	notifications.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestLogActivitySkipsFanOutWithoutCategory(t *testing.T) {
	entry := models.ActivityLog{
		GroupID:  primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Category: models.ActivityContent,
		Message:  "mika updated the list Groceries",
	}
	saved := entry
	saved.ID = primitive.NewObjectID()

	activity := new(mocks.ActivityRepositoryMock)
	activity.On("Create", mock.Anything, entry).Return(saved, nil)

	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "activity.content", mock.Anything).Return(nil)

	groups := new(mocks.GroupRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)

	d := newTestDispatcher(activity, notifications, groups, publisher)
	d.LogActivity(entry, "")
	d.Wait()

	groups.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	notifications.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
}

func TestLogActivityDropsEntryWithoutIDs(t *testing.T) {
	activity := new(mocks.ActivityRepositoryMock)

	d := newTestDispatcher(activity, new(mocks.NotificationRepositoryMock),
		new(mocks.GroupRepositoryMock), new(mocks.PublisherMock))
	d.LogActivity(models.ActivityLog{Message: "orphan entry"}, models.NotifyGroup)
	d.Wait()

	activity.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogActivityRetriesPersistFailure(t *testing.T) {
	entry := models.ActivityLog{
		GroupID:  primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Category: models.ActivityGroup,
		Message:  "mika joined the group",
	}
	saved := entry
	saved.ID = primitive.NewObjectID()

	activity := new(mocks.ActivityRepositoryMock)
	activity.On("Create", mock.Anything, entry).
		Return(models.ActivityLog{}, errors.New("write failed")).Once()
	activity.On("Create", mock.Anything, entry).Return(saved, nil).Once()

	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d := newTestDispatcher(activity, new(mocks.NotificationRepositoryMock),
		new(mocks.GroupRepositoryMock), publisher)
	d.LogActivity(entry, "")
	d.Wait()

	activity.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestLogActivityGivesUpAfterMaxAttempts(t *testing.T) {
	entry := models.ActivityLog{
		GroupID:  primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Category: models.ActivityGroup,
		Message:  "mika joined the group",
	}

	activity := new(mocks.ActivityRepositoryMock)
	activity.On("Create", mock.Anything, entry).
		Return(models.ActivityLog{}, errors.New("write failed")).Times(maxAttempts)

	publisher := new(mocks.PublisherMock)

	d := newTestDispatcher(activity, new(mocks.NotificationRepositoryMock),
		new(mocks.GroupRepositoryMock), publisher)
	d.LogActivity(entry, models.NotifyGroup)
	d.Wait()

	activity.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
