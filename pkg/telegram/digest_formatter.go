package telegram

import (
	"fmt"
	"sort"
	"strings"

	"golang-goodnews/internal/entity"
	"golang-goodnews/pkg/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageLength keeps each part under Telegram's 4096 character limit.
const MaxMessageLength = 4090

// TopArticles returns up to n articles ordered by positivity, newest first on ties.
func TopArticles(articles []entity.Article, n int) []entity.Article {
	top := make([]entity.Article, len(articles))
	copy(top, articles)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].PositivityScore != top[j].PositivityScore {
			return top[i].PositivityScore > top[j].PositivityScore
		}
		return top[i].PublishedAt.After(top[j].PublishedAt)
	})
	if n >= 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

// FormatDigest renders articles as Markdown messages, split so no part exceeds MaxMessageLength.
func FormatDigest(articles []entity.Article) []string {
	if len(articles) == 0 {
		return []string{"No new positive stories in this refresh."}
	}

	var messages []string
	var current strings.Builder
	part := 1

	startNewPart := func() {
		current.Reset()
		if part == 1 {
			current.WriteString("🌞 *Good News Digest* 🌞\n\n")
		} else {
			current.WriteString(fmt.Sprintf("🌞 *Good News Digest, part %d*\n\n", part))
		}
	}
	startNewPart()

	for i, a := range articles {
		entry := formatEntry(i+1, a)
		if current.Len()+len(entry) > MaxMessageLength {
			messages = append(messages, current.String())
			part++
			startNewPart()
		}
		current.WriteString(entry)
	}
	return append(messages, current.String())
}

func formatEntry(rank int, a entity.Article) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d. *%s*\n", rank, escape(a.Title)))
	b.WriteString(fmt.Sprintf("💚 %d/100 · %s · %s\n", a.PositivityScore, escape(utils.CapitalizeWords(a.Topic.String())), escape(a.Source)))
	if a.Description != "" {
		b.WriteString(escape(utils.TruncateRunes(a.Description, 200)))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("[Read more](%s)\n\n", a.URL))
	return b.String()
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
