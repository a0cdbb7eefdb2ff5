package dto

import (
	"github.com/yukikurage/task-tracker/internal/models"
)

// TaskDoc converts a task to its response document, applying an optional
// select projection.
func TaskDoc(task models.Task, sel map[string]int) map[string]any {
	doc := map[string]any{
		"id":               task.ID,
		"name":             task.Name,
		"description":      task.Description,
		"deadline":         task.Deadline,
		"completed":        task.Completed,
		"assignedUserId":   task.AssignedUserID,
		"assignedUserName": task.AssignedUserName,
		"createdAt":        task.CreatedAt,
	}
	return Project(doc, sel)
}

// TaskDocs converts a task list, applying the same projection to each.
func TaskDocs(tasks []models.Task, sel map[string]int) []map[string]any {
	docs := make([]map[string]any, len(tasks))
	for i, task := range tasks {
		docs[i] = TaskDoc(task, sel)
	}
	return docs
}
