package dto

import (
	"github.com/yukikurage/task-tracker/internal/models"
)

// UserDoc converts a user to its response document, applying an optional
// select projection.
func UserDoc(user models.User, sel map[string]int) map[string]any {
	pending := user.PendingTaskIDs
	if pending == nil {
		pending = []string{}
	}

	doc := map[string]any{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"pendingTaskIds": pending,
		"createdAt":      user.CreatedAt,
	}
	return Project(doc, sel)
}

// UserDocs converts a user list, applying the same projection to each.
func UserDocs(users []models.User, sel map[string]int) []map[string]any {
	docs := make([]map[string]any, len(users))
	for i, user := range users {
		docs[i] = UserDoc(user, sel)
	}
	return docs
}
