package relay

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"backrelay/internal/backlog"
	"backrelay/internal/slack"
)

const (
	fallbackProject = "Backlog"
	fallbackActor   = "だれか"
	fallbackTitle   = "新しいお知らせ"
	untitledWiki    = "(無題)"

	snippetMaxRunes = 300
)

var markupTags = regexp.MustCompile(`<[^>]*>`)

// BuildMessage renders one notification as a Slack Block Kit message:
// header (project), section (linked title), optional snippet section,
// context (actor + local timestamp).
func BuildMessage(space, host string, n backlog.Notification) slack.Message {
	title := notificationTitle(n)
	link := notificationLink(space, host, n)
	snippet := notificationSnippet(n)

	project := fallbackProject
	if n.Project != nil && strings.TrimSpace(n.Project.Name) != "" {
		project = n.Project.Name
	}
	actor := fallbackActor
	if n.Sender != nil && strings.TrimSpace(n.Sender.Name) != "" {
		actor = n.Sender.Name
	}

	body := title
	if link != "" {
		body = "<" + link + "|" + title + ">"
	}

	blocks := []slack.Block{
		slack.Header(project),
		slack.Section(body),
	}
	if snippet != "" {
		blocks = append(blocks, slack.Section(snippet))
	}
	stamp := n.Created.In(time.Local).Format("2006-01-02 15:04")
	blocks = append(blocks, slack.Context(actor+" | "+stamp))

	return slack.Message{Text: title, Blocks: blocks}
}

func notificationTitle(n backlog.Notification) string {
	switch n.Kind() {
	case backlog.KindIssueComment:
		return fmt.Sprintf("#%s にコメント: %s", n.Issue.IssueKey, n.Issue.Summary)
	case backlog.KindIssue:
		return fmt.Sprintf("#%s: %s", n.Issue.IssueKey, n.Issue.Summary)
	case backlog.KindPullRequest:
		repo := ""
		if n.Repository != nil {
			repo = n.Repository.Name
		}
		title := firstNonEmpty(
			strings.TrimSpace(n.PullRequest.Summary),
			strings.TrimSpace(n.PullRequest.Description),
			"プルリクエスト",
		)
		return fmt.Sprintf("PR %s#%d: %s", repo, n.PullRequest.Number, title)
	case backlog.KindWiki:
		name := strings.TrimSpace(n.Wiki.Name)
		if name == "" {
			name = untitledWiki
		}
		return "Wiki更新: " + name
	default:
		if name := n.Reason.Name(); name != "" {
			return name
		}
		return fallbackTitle
	}
}

// notificationLink builds a deep link into the space, or "" when the
// variant doesn't carry enough to address anything (the message then
// shows a plain title).
func notificationLink(space, host string, n backlog.Notification) string {
	base := "https://" + space + "." + host
	switch n.Kind() {
	case backlog.KindIssueComment, backlog.KindIssue:
		if key := strings.TrimSpace(n.Issue.IssueKey); key != "" {
			return base + "/view/" + key
		}
	case backlog.KindPullRequest:
		if n.Project != nil && strings.TrimSpace(n.Project.ProjectKey) != "" &&
			n.Repository != nil && n.Repository.ID > 0 && n.PullRequest.Number > 0 {
			return fmt.Sprintf("%s/git/%s/%d/pullRequests/%d",
				base, n.Project.ProjectKey, n.Repository.ID, n.PullRequest.Number)
		}
	case backlog.KindWiki:
		if n.Wiki.ID > 0 {
			return fmt.Sprintf("%s/wiki/%d", base, n.Wiki.ID)
		}
	}
	return ""
}

// notificationSnippet extracts a short content preview: first non-empty
// of comment content, issue description, PR summary-or-description,
// wiki content. Empty means the message carries no snippet section.
func notificationSnippet(n backlog.Notification) string {
	var src string
	switch {
	case n.Comment != nil && strings.TrimSpace(n.Comment.Content) != "":
		src = n.Comment.Content
	case n.Issue != nil && strings.TrimSpace(n.Issue.Description) != "":
		src = n.Issue.Description
	case n.PullRequest != nil && strings.TrimSpace(n.PullRequest.Summary) != "":
		src = n.PullRequest.Summary
	case n.PullRequest != nil && strings.TrimSpace(n.PullRequest.Description) != "":
		src = n.PullRequest.Description
	case n.Wiki != nil && strings.TrimSpace(n.Wiki.Content) != "":
		src = n.Wiki.Content
	default:
		return ""
	}
	return cleanSnippet(src)
}

func cleanSnippet(s string) string {
	s = markupTags.ReplaceAllString(s, "")
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > snippetMaxRunes {
		s = string(r[:snippetMaxRunes]) + "…"
	}
	return s
}
