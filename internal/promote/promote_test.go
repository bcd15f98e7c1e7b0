package promote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/normalize"
)

var now = time.Date(2026, time.July, 1, 10, 0, 0, 0, time.UTC)

func item(title, topic string) domain.LiveItem {
	return domain.LiveItem{ID: title, Title: title, Source: "Reuters", Topic: topic}
}

func TestPromotePrependsInBufferOrder(t *testing.T) {
	t.Parallel()

	raw := []domain.RawRecord{{"TITLE": "Existing story"}}
	buffer := []domain.LiveItem{
		item("Chip exports rise", "Technology"),
		item("existing   STORY", "World"),
		item("Rates on hold", "Markets"),
	}

	out, report := New(config.Default().Promotion, nil).Promote(raw, buffer, now)

	require.Len(t, out, 3)
	assert.Equal(t, 2, report.Promoted)
	assert.Equal(t, 1, report.Existing)
	assert.Equal(t, []string{"Chip exports rise", "Rates on hold"}, report.Titles)

	first := out[0]
	assert.Equal(t, "Chip exports rise", first["title"])
	assert.Equal(t, "Technology", first["category"])
	assert.Equal(t, "2026-07-01T10:00:00Z", first["date"])
	assert.Equal(t, true, first["isBreaking"])
	assert.Equal(t, "Reuters", first["source"])
	assert.Equal(t, Summary("Chip exports rise"), first["summary"])
	assert.Equal(t, "Business", out[1]["category"])
	assert.Equal(t, "Existing story", out[2]["TITLE"])
	assert.Len(t, raw, 1, "input is not modified")
}

func TestPromoteCapsPerRun(t *testing.T) {
	t.Parallel()

	var buffer []domain.LiveItem
	for _, title := range []string{"a", "b", "c", "d", "e", "f"} {
		buffer = append(buffer, item("Story "+title, "AI"))
	}
	buffer = append([]domain.LiveItem{item("Story a", "AI")}, buffer...)

	out, report := New(config.Default().Promotion, nil).Promote(nil, buffer, now)

	assert.Len(t, out, 4)
	assert.Equal(t, 1, report.Existing, "duplicates inside the buffer are promoted once")
	assert.Equal(t, "Story d", out[3]["title"])
}

func TestPromoteDisabled(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Promotion
	cfg.Enabled = false
	raw := []domain.RawRecord{{"title": "x"}}

	out, report := New(cfg, nil).Promote(raw, []domain.LiveItem{item("y", "AI")}, now)

	assert.Equal(t, raw, out)
	assert.Zero(t, report.Promoted)
}

func TestPromotedRecordsNormalize(t *testing.T) {
	t.Parallel()

	raw, _ := New(config.Default().Promotion, nil).Promote(nil, []domain.LiveItem{item("Senate passes bill", "Policy")}, now)
	corpus, report := normalize.New(config.Default().Normalizer, nil).Normalize(raw, now.Add(time.Hour))

	require.Len(t, corpus, 1)
	assert.Equal(t, 1, report.BreakingActive)
	assert.Equal(t, domain.CategoryPolicy, corpus[0].Category)
	assert.Equal(t, domain.PublishGroupBreaking, corpus[0].PublishGroup)
	assert.Equal(t, domain.VisibilityNormal, corpus[0].Visibility, "empty content is not weak")
	assert.True(t, corpus[0].Date.Equal(now))
}

func TestCategoryFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.CategoryAI, CategoryFor("AI"))
	assert.Equal(t, domain.CategoryGeneral, CategoryFor("World"))
	assert.Equal(t, domain.CategoryGeneral, CategoryFor("Unknown"))
}
