package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/cookbook/core"
)

// Notification tells a requester how their job ended.
type Notification struct {
	JobID        string      `json:"job_id"`
	RecipientID  int64       `json:"recipient_id"`
	GroupID      int64       `json:"group_id,omitempty"`
	URL          string      `json:"url"`
	Status       core.Status `json:"status"`
	Text         string      `json:"text"`
	RecipeTitles []string    `json:"recipe_titles,omitempty"`
}

// Notifier delivers job results. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// newNotification builds the message sent to the job's requester only.
func newNotification(job *core.Job, result *Result) Notification {
	titles := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		titles = append(titles, record.Title)
	}
	return Notification{
		JobID:        job.ID,
		RecipientID:  job.RequesterID,
		GroupID:      job.GroupID,
		URL:          job.URL,
		Status:       result.Status,
		Text:         notificationText(job, result, titles),
		RecipeTitles: titles,
	}
}

func notificationText(job *core.Job, result *Result, titles []string) string {
	if !result.Status.OK() {
		return fmt.Sprintf("Could not add %s: %s", job.URL, result.Status)
	}
	quoted := make([]string, len(titles))
	for i, t := range titles {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	list := strings.Join(quoted, ", ")
	if result.Created == 0 {
		return "Added to your recipes: " + list
	}
	return "Saved: " + list
}
