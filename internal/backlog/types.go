// Package backlog is a minimal client for the Backlog v2 notifications
// API: just enough surface to page through a space's notification list
// and classify what each notification points at.
package backlog

import "time"

// Kind tags the payload variant of a notification. The API models the
// trigger as a loose bundle of optional nested objects; Kind collapses
// that into one tag so title/link/snippet derivation can be a total
// switch instead of presence checks scattered across call sites.
type Kind int

const (
	KindGeneric Kind = iota
	KindIssueComment
	KindIssue
	KindPullRequest
	KindWiki
)

func (k Kind) String() string {
	switch k {
	case KindIssueComment:
		return "issue-comment"
	case KindIssue:
		return "issue"
	case KindPullRequest:
		return "pull-request"
	case KindWiki:
		return "wiki"
	default:
		return "generic"
	}
}

// Notification is one item from GET /api/v2/notifications.
//
// IDs are global and strictly increasing with creation time, which is
// what makes them usable as the incremental-sync cursor.
type Notification struct {
	ID          int64        `json:"id"`
	AlreadyRead bool         `json:"alreadyRead"`
	Reason      Reason       `json:"reason"`
	Project     *Project     `json:"project,omitempty"`
	Issue       *Issue       `json:"issue,omitempty"`
	Comment     *Comment     `json:"comment,omitempty"`
	PullRequest *PullRequest `json:"pullRequest,omitempty"`
	Repository  *Repository  `json:"repository,omitempty"`
	Wiki        *Wiki        `json:"wiki,omitempty"`
	Sender      *User        `json:"sender,omitempty"`
	Created     time.Time    `json:"created"`
}

// Kind classifies the notification by which payload objects are present.
// First match wins; a comment always rides on an issue.
func (n *Notification) Kind() Kind {
	switch {
	case n.Comment != nil && n.Issue != nil:
		return KindIssueComment
	case n.Issue != nil:
		return KindIssue
	case n.PullRequest != nil:
		return KindPullRequest
	case n.Wiki != nil:
		return KindWiki
	default:
		return KindGeneric
	}
}

type Reason struct {
	ReasonID int `json:"reasonId"`
}

// reasonNames maps Backlog reason IDs to display labels.
var reasonNames = map[int]string{
	1:  "課題の担当者に設定",
	2:  "課題にコメント",
	3:  "課題の追加",
	4:  "課題の更新",
	5:  "ファイルを追加",
	6:  "プロジェクトユーザーの追加",
	9:  "その他",
	10: "プルリクエストの担当者に設定",
	11: "プルリクエストにコメント",
	12: "プルリクエストの追加",
	13: "プルリクエストの更新",
}

// Name returns the display label for the reason, or "" when unknown.
func (r Reason) Name() string {
	return reasonNames[r.ReasonID]
}

type Project struct {
	ID         int64  `json:"id"`
	ProjectKey string `json:"projectKey"`
	Name       string `json:"name"`
}

type Issue struct {
	ID          int64  `json:"id"`
	IssueKey    string `json:"issueKey"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type Comment struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

type PullRequest struct {
	ID          int64  `json:"id"`
	Number      int64  `json:"number"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type Repository struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Wiki struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
