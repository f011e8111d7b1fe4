package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

// ESCourseIndex mirrors the course catalog into Elasticsearch for full-text
// search. Only searchable fields are indexed; hits resolve back to Postgres.
type ESCourseIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewESCourseIndex(es *elasticsearch.Client, index string) *ESCourseIndex {
	return &ESCourseIndex{es: es, index: index}
}

type courseDoc struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Tier        string  `json:"tier"`
	Price       float64 `json:"price"`
}

func (i *ESCourseIndex) Index(ctx context.Context, c *entity.Course) error {
	doc := courseDoc{
		Title:       c.Title,
		Description: c.Description,
		Tier:        c.Tier,
		Price:       c.Price,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: c.ID,
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index course %s: %s", c.ID, res.String())
	}
	return nil
}

func (i *ESCourseIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: i.index, DocumentID: id}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// A document missing from the index is already the desired state.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("remove course %s: %s", id, res.String())
	}
	return nil
}

func (i *ESCourseIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	body := map[string]any{
		"size":    limit,
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search courses: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
