package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsgraph/internal/crawler"
	"newsgraph/internal/models"
)

type hfModel struct {
	ID          string   `json:"id"`
	ModelID     string   `json:"modelId"`
	PipelineTag string   `json:"pipeline_tag"`
	LibraryName string   `json:"library_name"`
	CreatedAt   string   `json:"createdAt"`
	Tags        []string `json:"tags"`
	Downloads   int64    `json:"downloads"`
	Likes       int64    `json:"likes"`
}

// HuggingFace searches the Hugging Face model hub, most downloaded first.
type HuggingFace struct {
	endpoint
}

// NewHuggingFace creates the Hugging Face source.
func NewHuggingFace(scraper *crawler.Scraper, baseURL, defaultQuery string) *HuggingFace {
	return &HuggingFace{endpoint: newEndpoint(scraper, baseURL, defaultQuery)}
}

// Name implements crawler.Source.
func (h *HuggingFace) Name() string {
	return models.SourceHuggingFace
}

// Fetch implements crawler.Source.
func (h *HuggingFace) Fetch(ctx context.Context, query string, limit int) ([]models.Document, error) {
	params := url.Values{}
	if q := h.query(query); q != "" {
		params.Set("search", q)
	}

	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "downloads")
	params.Set("direction", "-1")

	var found []hfModel
	if err := h.scraper.FetchJSON(ctx, h.baseURL+"/api/models?"+params.Encode(), &found); err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}

	docs := make([]models.Document, 0, len(found))

	for _, m := range found {
		id := m.ModelID
		if id == "" {
			id = m.ID
		}

		if id == "" {
			continue
		}

		doc := models.Document{
			Source:  models.SourceHuggingFace,
			Title:   id,
			Content: describeModel(id, m),
			URL:     h.baseURL + "/" + id,
		}

		if ts, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
			doc.Timestamp = &ts
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// describeModel turns model metadata into a sentence or two of text for extraction.
func describeModel(id string, m hfModel) string {
	var sb strings.Builder

	sb.WriteString(id)

	switch {
	case m.PipelineTag != "" && m.LibraryName != "":
		fmt.Fprintf(&sb, " is a %s model built with %s.", strings.ReplaceAll(m.PipelineTag, "-", " "), m.LibraryName)
	case m.PipelineTag != "":
		fmt.Fprintf(&sb, " is a %s model.", strings.ReplaceAll(m.PipelineTag, "-", " "))
	default:
		sb.WriteString(" is a model.")
	}

	var tags []string

	for _, tag := range m.Tags {
		// Skip machine tags such as "license:mit" or "region:us".
		if tag == "" || strings.Contains(tag, ":") {
			continue
		}

		tags = append(tags, tag)
	}

	if len(tags) > 0 {
		sb.WriteString(" Tags: ")
		sb.WriteString(strings.Join(tags, ", "))
		sb.WriteString(".")
	}

	return sb.String()
}
