package workflow

import (
	"strconv"
	"time"

	"caseflow.io/caseflow/internal/constants"
	model "caseflow.io/caseflow/internal/models"
)

// Notice is a request to tell people about a transition. The engine only
// decides that one is due; delivering it is the caller's business.
type Notice struct {
	Kind       constants.NoticeKind `json:"event"`
	TaskID     string               `json:"task_id"`
	TaskTitle  string               `json:"task_title"`
	CaseID     string               `json:"case_id,omitempty"`
	ActorID    string               `json:"actor_id"`
	Recipients []string             `json:"recipients"`
	Context    map[string]string    `json:"context,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

func newNotice(kind constants.NoticeKind, t *model.Task, actor Actor, recipients []string, now time.Time, ctx map[string]string) Notice {
	return Notice{
		Kind:       kind,
		TaskID:     t.ID,
		TaskTitle:  t.Title,
		CaseID:     t.CaseID,
		ActorID:    actor.UserID,
		Recipients: recipients,
		Context:    ctx,
		OccurredAt: now,
	}
}

func (p Policy) submittedNotice(t *model.Task, actor Actor, comment string, now time.Time) Notice {
	return newNotice(constants.NoticeSubmittedForReview, t, actor, recipientsExcept(p.reviewers(t), actor.UserID), now, map[string]string{
		"comment":          comment,
		"overall_progress": strconv.Itoa(OverallProgress(t.Responses)),
	})
}

// closingNotice addresses every assignee except the actor.
func closingNotice(kind constants.NoticeKind, t *model.Task, actor Actor, now time.Time, ctx map[string]string) Notice {
	ids := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.UserID)
	}
	return newNotice(kind, t, actor, recipientsExcept(ids, actor.UserID), now, ctx)
}

func recipientsExcept(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
