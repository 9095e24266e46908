package relay

import (
	"strings"
	"testing"
	"time"

	"backrelay/internal/backlog"
)

func TestNotificationTitle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		n    backlog.Notification
		want string
	}{
		{
			name: "issue comment",
			n: backlog.Notification{
				Issue:   &backlog.Issue{IssueKey: "PRJ-42", Summary: "ログインできない"},
				Comment: &backlog.Comment{Content: "直しました"},
			},
			want: "#PRJ-42 にコメント: ログインできない",
		},
		{
			name: "plain issue",
			n: backlog.Notification{
				Issue: &backlog.Issue{IssueKey: "PRJ-42", Summary: "ログインできない"},
			},
			want: "#PRJ-42: ログインできない",
		},
		{
			name: "pull request",
			n: backlog.Notification{
				PullRequest: &backlog.PullRequest{Number: 7, Summary: "Fix login"},
				Repository:  &backlog.Repository{ID: 3, Name: "web"},
			},
			want: "PR web#7: Fix login",
		},
		{
			name: "pull request without summary",
			n: backlog.Notification{
				PullRequest: &backlog.PullRequest{Number: 7},
				Repository:  &backlog.Repository{ID: 3, Name: "web"},
			},
			want: "PR web#7: プルリクエスト",
		},
		{
			name: "wiki",
			n: backlog.Notification{
				Wiki: &backlog.Wiki{ID: 9, Name: "リリース手順"},
			},
			want: "Wiki更新: リリース手順",
		},
		{
			name: "wiki untitled",
			n: backlog.Notification{
				Wiki: &backlog.Wiki{ID: 9},
			},
			want: "Wiki更新: (無題)",
		},
		{
			name: "generic with reason",
			n: backlog.Notification{
				Reason: backlog.Reason{ReasonID: 2},
			},
			want: "課題にコメント",
		},
		{
			name: "generic unknown reason",
			n:    backlog.Notification{},
			want: "新しいお知らせ",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := notificationTitle(tt.n); got != tt.want {
				t.Fatalf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotificationLink(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		n    backlog.Notification
		want string
	}{
		{
			name: "issue",
			n: backlog.Notification{
				Issue: &backlog.Issue{IssueKey: "PRJ-42"},
			},
			want: "https://acme.backlog.jp/view/PRJ-42",
		},
		{
			name: "issue comment links to the issue",
			n: backlog.Notification{
				Issue:   &backlog.Issue{IssueKey: "PRJ-42"},
				Comment: &backlog.Comment{Content: "x"},
			},
			want: "https://acme.backlog.jp/view/PRJ-42",
		},
		{
			name: "pull request",
			n: backlog.Notification{
				Project:     &backlog.Project{ProjectKey: "PRJ"},
				Repository:  &backlog.Repository{ID: 3},
				PullRequest: &backlog.PullRequest{Number: 7},
			},
			want: "https://acme.backlog.jp/git/PRJ/3/pullRequests/7",
		},
		{
			name: "pull request missing project key",
			n: backlog.Notification{
				Repository:  &backlog.Repository{ID: 3},
				PullRequest: &backlog.PullRequest{Number: 7},
			},
			want: "",
		},
		{
			name: "wiki",
			n: backlog.Notification{
				Wiki: &backlog.Wiki{ID: 9},
			},
			want: "https://acme.backlog.jp/wiki/9",
		},
		{
			name: "generic has no link",
			n:    backlog.Notification{},
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := notificationLink("acme", "backlog.jp", tt.n); got != tt.want {
				t.Fatalf("link = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotificationSnippet(t *testing.T) {
	t.Parallel()

	t.Run("comment wins over issue description", func(t *testing.T) {
		t.Parallel()
		n := backlog.Notification{
			Issue:   &backlog.Issue{IssueKey: "A-1", Description: "desc"},
			Comment: &backlog.Comment{Content: "comment body"},
		}
		if got := notificationSnippet(n); got != "comment body" {
			t.Fatalf("snippet = %q", got)
		}
	})

	t.Run("tags stripped and newlines collapsed", func(t *testing.T) {
		t.Parallel()
		n := backlog.Notification{
			Comment: &backlog.Comment{Content: "<b>one</b>\ntwo\r\nthree"},
		}
		if got := notificationSnippet(n); got != "one two three" {
			t.Fatalf("snippet = %q", got)
		}
	})

	t.Run("truncated at 300 runes with ellipsis", func(t *testing.T) {
		t.Parallel()
		n := backlog.Notification{
			Comment: &backlog.Comment{Content: strings.Repeat("あ", 400)},
		}
		got := notificationSnippet(n)
		r := []rune(got)
		if len(r) != snippetMaxRunes+1 {
			t.Fatalf("len = %d runes, want %d", len(r), snippetMaxRunes+1)
		}
		if r[len(r)-1] != '…' {
			t.Fatalf("missing ellipsis: %q", string(r[len(r)-10:]))
		}
	})

	t.Run("no sources means no snippet", func(t *testing.T) {
		t.Parallel()
		if got := notificationSnippet(backlog.Notification{}); got != "" {
			t.Fatalf("snippet = %q, want empty", got)
		}
	})
}

func TestBuildMessageBlocks(t *testing.T) {
	t.Parallel()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	n := backlog.Notification{
		ID:      105,
		Created: created,
		Project: &backlog.Project{ProjectKey: "PRJ", Name: "Webサイト"},
		Sender:  &backlog.User{Name: "yamada"},
		Issue:   &backlog.Issue{IssueKey: "PRJ-42", Summary: "ログインできない", Description: "詳細"},
	}

	msg := BuildMessage("acme", "backlog.jp", n)

	if msg.Text != "#PRJ-42: ログインできない" {
		t.Fatalf("Text = %q", msg.Text)
	}
	if len(msg.Blocks) != 4 {
		t.Fatalf("blocks = %d, want header/section/snippet/context", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != "header" || msg.Blocks[0].Text.Text != "Webサイト" {
		t.Fatalf("header = %+v", msg.Blocks[0])
	}
	if want := "<https://acme.backlog.jp/view/PRJ-42|#PRJ-42: ログインできない>"; msg.Blocks[1].Text.Text != want {
		t.Fatalf("section = %q, want %q", msg.Blocks[1].Text.Text, want)
	}
	if msg.Blocks[2].Text.Text != "詳細" {
		t.Fatalf("snippet section = %q", msg.Blocks[2].Text.Text)
	}

	stamp := created.In(time.Local).Format("2006-01-02 15:04")
	if got, want := msg.Blocks[3].Elements[0].Text, "yamada | "+stamp; got != want {
		t.Fatalf("context = %q, want %q", got, want)
	}
}

func TestBuildMessagePlaceholders(t *testing.T) {
	t.Parallel()
	msg := BuildMessage("acme", "backlog.jp", backlog.Notification{})

	if msg.Blocks[0].Text.Text != fallbackProject {
		t.Fatalf("header = %q, want %q", msg.Blocks[0].Text.Text, fallbackProject)
	}
	// No link, no snippet: plain title section + context only.
	if len(msg.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(msg.Blocks))
	}
	if msg.Blocks[1].Text.Text != fallbackTitle {
		t.Fatalf("section = %q", msg.Blocks[1].Text.Text)
	}
	if !strings.HasPrefix(msg.Blocks[2].Elements[0].Text, fallbackActor+" | ") {
		t.Fatalf("context = %q", msg.Blocks[2].Elements[0].Text)
	}
}
