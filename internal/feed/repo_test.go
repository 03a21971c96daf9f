package feed

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db/models"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
)

func TestTaskNotificationSynthesizesTitleAndMessage(t *testing.T) {
	task := models.Task{
		ID:          uuid.New(),
		Name:        "Buy milk",
		Description: "2 liters, whole",
		UserID:      uuid.New(),
		CreatedAt:   time.Now(),
	}

	n := TaskNotification(task)
	if n.Title != "New Task" {
		t.Fatalf("expected title %q, got %q", "New Task", n.Title)
	}
	if n.Body != `Task "Buy milk" has been created` {
		t.Fatalf("unexpected message %q", n.Body)
	}
	if n.Type != enums.NotificationTypeTask {
		t.Fatalf("expected task type, got %s", n.Type)
	}
	if n.TaskID != task.ID.String() {
		t.Fatalf("expected task id carried, got %q", n.TaskID)
	}

	task.IsAdminTask = true
	n = TaskNotification(task)
	if n.Title != "New Admin Task" {
		t.Fatalf("expected title %q, got %q", "New Admin Task", n.Title)
	}
	if n.Type != enums.NotificationTypeAdminTask {
		t.Fatalf("expected admin task type, got %s", n.Type)
	}
}

func TestAnnouncementNotificationUsesOwnTitleAndContent(t *testing.T) {
	announcement := models.Announcement{
		ID:        uuid.New(),
		Title:     "Midterm schedule",
		Content:   "Exams start Monday.",
		CreatedAt: time.Now(),
	}

	n := AnnouncementNotification(announcement)
	if n.Title != "Midterm schedule" || n.Body != "Exams start Monday." {
		t.Fatalf("unexpected notification %+v", n)
	}
	if n.Type != enums.NotificationTypeAnnouncement {
		t.Fatalf("expected announcement type, got %s", n.Type)
	}
}
