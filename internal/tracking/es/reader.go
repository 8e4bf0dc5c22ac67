package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/pagination"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/google/uuid"
)

// maxMetrics bounds a single metrics query; it equals the default
// index.max_result_window.
const maxMetrics = 10_000

type Reader struct {
	client  *elasticsearch.TypedClient
	runs    string
	metrics string
}

func NewReader(config ClientConfig) (*Reader, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &Reader{
		client:  client,
		runs:    config.runsIndex(),
		metrics: config.metricsIndex(),
	}, nil
}

func (r *Reader) ListRuns(ctx context.Context, project string, page, size int) (*pagination.OffsetResult[tracking.RunInfo], error) {
	req := pagination.OffsetRequest{Page: page, Size: size}
	if err := req.Validate(); err != nil {
		return nil, apperr.NewValidationWrap("invalid pagination", err)
	}

	query := &types.Query{MatchAll: &types.MatchAllQuery{}}
	if project != "" {
		query = &types.Query{
			Term: map[string]types.TermQuery{
				"project": {Value: project},
			},
		}
	}

	desc := sortorder.Desc
	res, err := r.client.Search().
		Index(r.runs).
		Query(query).
		From(req.Offset()).
		Size(req.Size).
		TrackTotalHits(true).
		Sort(
			&types.SortOptions{SortOptions: map[string]types.FieldSort{"started_at": {Order: &desc}}},
			&types.SortOptions{SortOptions: map[string]types.FieldSort{"id": {Order: &desc}}},
		).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search runs: %w", err)
	}

	runs := make([]tracking.RunInfo, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc RunDocument
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run document: %w", err)
		}
		info, err := doc.toRunInfo()
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}
	return pagination.NewOffsetResult(runs, total, req.Page, req.Size), nil
}

func (r *Reader) GetRun(ctx context.Context, id uuid.UUID) (*tracking.RunInfo, error) {
	res, err := r.client.Get(r.runs, id.String()).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if !res.Found {
		return nil, apperr.ErrNotFound
	}

	var doc RunDocument
	if err := json.Unmarshal(res.Source_, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run document: %w", err)
	}
	info, err := doc.toRunInfo()
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *Reader) Metrics(ctx context.Context, id uuid.UUID) ([]tracking.Record, error) {
	if _, err := r.GetRun(ctx, id); err != nil {
		return nil, err
	}

	asc := sortorder.Asc
	res, err := r.client.Search().
		Index(r.metrics).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				"run_id": {Value: id.String()},
			},
		}).
		Size(maxMetrics).
		Sort(&types.SortOptions{SortOptions: map[string]types.FieldSort{"epoch": {Order: &asc}}}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search metrics: %w", err)
	}

	records := make([]tracking.Record, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc MetricDocument
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metric document: %w", err)
		}
		records = append(records, tracking.Record{Epoch: doc.Epoch, Weight: doc.Weight, Loss: doc.Loss})
	}
	return records, nil
}

func isNotFound(err error) bool {
	var esErr *types.ElasticsearchError
	return errors.As(err, &esErr) && esErr.Status == http.StatusNotFound
}
