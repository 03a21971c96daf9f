package enums

import "fmt"

// TaskStatus maps to the task_status enum in Postgres.
type TaskStatus string

const (
	TaskStatusMyTasks    TaskStatus = "my-tasks"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

var validTaskStatuses = []TaskStatus{
	TaskStatusMyTasks,
	TaskStatusInProgress,
	TaskStatusCompleted,
}

// IsValid reports whether the value matches the canonical task_status enum.
func (s TaskStatus) IsValid() bool {
	for _, candidate := range validTaskStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTaskStatus converts raw input into TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	for _, candidate := range validTaskStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", value)
}

// TaskCategory maps to the task_category enum in Postgres.
type TaskCategory string

const (
	TaskCategoryAssignment   TaskCategory = "assignment"
	TaskCategoryQuiz         TaskCategory = "quiz"
	TaskCategoryPresentation TaskCategory = "presentation"
	TaskCategoryProject      TaskCategory = "project"
	TaskCategoryLabReport    TaskCategory = "lab-report"
	TaskCategoryLabFinal     TaskCategory = "lab-final"
	TaskCategoryDocuments    TaskCategory = "documents"
	TaskCategoryOthers       TaskCategory = "others"
)

var validTaskCategories = []TaskCategory{
	TaskCategoryAssignment,
	TaskCategoryQuiz,
	TaskCategoryPresentation,
	TaskCategoryProject,
	TaskCategoryLabReport,
	TaskCategoryLabFinal,
	TaskCategoryDocuments,
	TaskCategoryOthers,
}

// IsValid reports whether the value matches the canonical task_category enum.
func (c TaskCategory) IsValid() bool {
	for _, candidate := range validTaskCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseTaskCategory converts raw input into TaskCategory.
func ParseTaskCategory(value string) (TaskCategory, error) {
	for _, candidate := range validTaskCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task category %q", value)
}
