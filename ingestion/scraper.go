package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/repositories"
)

// Article is one extracted unit of content from a source page.
type Article struct {
	URL     string
	Content string
}

// Scraper periodically fetches configured source pages, extracts their
// articles and inserts them into the document store. Documents whose URL is
// already known are skipped by the store's uniqueness constraint.
type Scraper struct {
	documents repositories.DocumentRepository
	client    *http.Client
	sources   []string
	interval  time.Duration
	logger    *zap.Logger
}

// NewScraper creates a new Scraper
func NewScraper(documents repositories.DocumentRepository, sources []string, interval, fetchTimeout time.Duration, logger *zap.Logger) *Scraper {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Scraper{
		documents: documents,
		client: &http.Client{
			Timeout: fetchTimeout,
		},
		sources:  sources,
		interval: interval,
		logger:   logger,
	}
}

// Run executes the ingestion loop until the context is cancelled. It scrapes
// once immediately and then on every interval tick. Per-source failures are
// logged and the loop continues; ingestion must never take the serving path
// down with it.
func (s *Scraper) Run(ctx context.Context) {
	s.logger.Info("ingestion worker started",
		zap.Int("sources", len(s.sources)),
		zap.Duration("interval", s.interval))

	s.scrapeAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scrapeAll(ctx)
		case <-ctx.Done():
			s.logger.Info("ingestion worker stopping")
			return
		}
	}
}

// scrapeAll fetches every configured source once.
func (s *Scraper) scrapeAll(ctx context.Context) {
	for _, source := range s.sources {
		if ctx.Err() != nil {
			return
		}
		inserted, skipped, err := s.ScrapeSource(ctx, source)
		if err != nil {
			s.logger.Error("failed to scrape source",
				zap.String("source", source),
				zap.Error(err))
			continue
		}
		s.logger.Info("source scraped",
			zap.String("source", source),
			zap.Int("inserted", inserted),
			zap.Int("skipped", skipped))
	}
}

// ScrapeSource fetches one source page and inserts its articles. Returns the
// number of documents inserted and the number skipped as duplicates.
func (s *Scraper) ScrapeSource(ctx context.Context, source string) (inserted, skipped int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	articles, err := ExtractArticles(resp.Body, source)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse source: %w", err)
	}

	now := time.Now().UTC()
	for _, article := range articles {
		doc := &models.Document{
			ID:        uuid.NewString(),
			URL:       article.URL,
			Content:   article.Content,
			CreatedAt: now,
		}
		insertErr := s.documents.Insert(ctx, doc)
		switch {
		case errors.Is(insertErr, repositories.ErrDuplicateURL):
			skipped++
		case insertErr != nil:
			s.logger.Warn("failed to insert document",
				zap.String("url", article.URL),
				zap.Error(insertErr))
		default:
			inserted++
		}
	}

	return inserted, skipped, nil
}

// ExtractArticles parses an HTML page and returns one Article per <article>
// element. The article URL is the first anchor href resolved against the
// source URL; articles without a link or without text are dropped.
func ExtractArticles(r io.Reader, source string) ([]Article, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(source)
	if err != nil {
		return nil, err
	}

	var articles []Article
	for _, node := range findAll(root, "article") {
		href := firstHref(node)
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}

		content := collectText(node)
		if content == "" {
			continue
		}

		articles = append(articles, Article{
			URL:     base.ResolveReference(ref).String(),
			Content: content,
		})
	}
	return articles, nil
}

// findAll returns all nodes of the given element type, in document order.
func findAll(node *html.Node, tag string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return found
}

// firstHref returns the first anchor href inside the node.
func firstHref(node *html.Node) string {
	for _, a := range findAll(node, "a") {
		for _, attr := range a.Attr {
			if attr.Key == "href" && attr.Val != "" {
				return attr.Val
			}
		}
	}
	return ""
}

// collectText gathers the text of heading and paragraph elements inside the
// node, joined by newlines.
func collectText(node *html.Node) string {
	var parts []string
	for _, tag := range []string{"h1", "h2", "h3", "p"} {
		for _, n := range findAll(node, tag) {
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// nodeText concatenates all text nodes under n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
