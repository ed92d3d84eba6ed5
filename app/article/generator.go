package article

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/sotakubo/autopost/app/database"
)

const (
	titleSystemPrompt        = "あなたはSEOの専門家です。"
	bodySystemPrompt         = "あなたはSEOライターです。"
	imageKeywordSystemPrompt = "あなたは画像検索キーワード生成の専門家です。"

	imageKeywordUserPrompt = `以下の日本語タイトルに対して、画像を探すのに最適な英語の2〜3語の検索キーワードを生成してください。
抽象的すぎる単語（life, business など）は避けてください。
写真としてヒットしやすい「モノ・場所・情景・体験・風景」などを選んでください。

タイトル: %s`

	// Image query used when keyword derivation fails.
	fallbackImageQuery = "nature"

	// Generated bodies shorter than this are treated as a failed generation.
	minBodyLength = 100

	maxCandidateImages = 3
)

// Generator turns a scheduled post's keyword and prompt templates into a
// title, a body, and a featured image via sequential LLM calls. It performs
// no persistence; failures are returned for the caller to record.
type Generator struct {
	llm    TextGenerator
	images ImageSearcher
}

func NewGenerator(llm TextGenerator, images ImageSearcher) *Generator {
	return &Generator{
		llm:    llm,
		images: images,
	}
}

// Run executes the generation pipeline for one post. Any service error or
// content-quality problem surfaces as an error for the caller to record as a
// generation failure; nothing here is fatal to the batch.
func (g *Generator) Run(ctx context.Context, post database.ScheduledPost) (*Draft, error) {
	if post.TitlePrompt == "" || post.BodyPrompt == "" {
		return nil, fmt.Errorf("post %s has no prompts configured", post.ID)
	}

	titlePrompt := RenderPrompt(post.TitlePrompt, map[string]string{"keyword": post.Keyword})

	rawTitle, err := g.llm.Complete(ctx, titleSystemPrompt, titlePrompt, 0.7, 150)
	if err != nil {
		return nil, fmt.Errorf("title generation: %w", err)
	}

	title := CleanTitle(FirstLine(rawTitle))
	if title == "" {
		return nil, fmt.Errorf("title generation produced empty result")
	}

	bodyPrompt := RenderPrompt(post.BodyPrompt, map[string]string{"title": title})

	body, err := g.llm.Complete(ctx, bodySystemPrompt, bodyPrompt, 0.7, 3200)
	if err != nil {
		return nil, fmt.Errorf("body generation: %w", err)
	}

	if utf8.RuneCountInString(body) < minBodyLength {
		return nil, fmt.Errorf("generated body too short: %d chars", utf8.RuneCountInString(body))
	}

	body = EnhanceHeadings(body)

	draft := &Draft{
		Title: title,
		Body:  body,
	}

	imageURLs := g.lookupImages(ctx, title)
	if len(imageURLs) > 0 {
		draft.FeaturedImage = &imageURLs[0]
		if len(imageURLs) > 1 {
			draft.Body = SpliceImages(draft.Body, imageURLs[1:])
		}
	}

	return draft, nil
}

// lookupImages derives an English search query from the title and fetches
// candidate images. Image lookup is best-effort: a post without images is
// still publishable, so every failure here degrades to an empty result.
func (g *Generator) lookupImages(ctx context.Context, title string) []string {
	query := fallbackImageQuery

	raw, err := g.llm.Complete(ctx, imageKeywordSystemPrompt,
		fmt.Sprintf(imageKeywordUserPrompt, title), 0.5, 50)
	if err != nil {
		slog.Warn("Image keyword derivation failed, using fallback", "title", title, "error", err)
	} else if cleaned := CleanImageQuery(raw); cleaned != "" {
		query = cleaned
	}

	urls, err := g.images.Search(ctx, query, maxCandidateImages)
	if err != nil {
		slog.Warn("Image search failed, continuing without images", "query", query, "error", err)
		return nil
	}

	if len(urls) == 0 {
		slog.Debug("No images found", "query", query)
	}

	return urls
}
