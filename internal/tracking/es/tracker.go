package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/refresh"
	"github.com/google/uuid"
)

// Tracker indexes one run document per run and bulk-indexes its epoch
// records when the run finishes.
type Tracker struct {
	client  *elasticsearch.TypedClient
	runs    string
	metrics string
}

func NewTracker(ctx context.Context, config ClientConfig) (*Tracker, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	t := &Tracker{
		client:  client,
		runs:    config.runsIndex(),
		metrics: config.metricsIndex(),
	}

	if err := ensureIndex(ctx, client, t.runs, runsMapping()); err != nil {
		return nil, fmt.Errorf("failed to ensure runs index: %w", err)
	}
	if err := ensureIndex(ctx, client, t.metrics, metricsMapping()); err != nil {
		return nil, fmt.Errorf("failed to ensure metrics index: %w", err)
	}

	return t, nil
}

func (t *Tracker) Init(ctx context.Context, spec tracking.RunSpec) (tracking.Run, error) {
	info := tracking.NewRunInfo(spec)
	r := &run{tracker: t, info: info}

	if err := r.indexRun(ctx, toRunDocument(info)); err != nil {
		return nil, err
	}

	slog.Info("Tracking run started", "id", info.ID, "backend", tracking.ES, "index", t.runs)
	return r, nil
}

func (t *Tracker) Close() error {
	return nil
}

// Healthy pings the cluster.
func (t *Tracker) Healthy(ctx context.Context) bool {
	ok, err := t.client.Ping().Do(ctx)
	return err == nil && ok
}

type run struct {
	tracker *Tracker

	mu      sync.Mutex
	info    tracking.RunInfo
	records []tracking.Record
	done    bool
}

func (r *run) ID() uuid.UUID {
	return r.info.ID
}

func (r *run) UpdateConfig(ctx context.Context, cfg map[string]any) error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return tracking.ErrRunFinished
	}
	if r.info.Config == nil {
		r.info.Config = make(map[string]any, len(cfg))
	}
	for k, v := range cfg {
		r.info.Config[k] = v
	}
	doc := toRunDocument(r.info)
	r.mu.Unlock()

	return r.indexRun(ctx, doc)
}

func (r *run) Log(_ context.Context, rec tracking.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return tracking.ErrRunFinished
	}
	r.records = append(r.records, rec)
	return nil
}

// Finish indexes the buffered records and then the run document with its
// final status. Metric ids are derived from the epoch, so a Finish retried
// after a failure overwrites what the failed attempt indexed.
func (r *run) Finish(ctx context.Context, status tracking.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return tracking.ErrRunFinished
	}

	if err := r.indexMetrics(ctx, r.records); err != nil {
		return err
	}

	now := time.Now().UTC()
	info := r.info
	info.Status = status
	info.FinishedAt = &now
	if err := r.indexRun(ctx, toRunDocument(info)); err != nil {
		return err
	}

	r.info.Status = info.Status
	r.info.FinishedAt = info.FinishedAt
	r.done = true
	r.records = nil
	return nil
}

func (r *run) indexRun(ctx context.Context, doc RunDocument) error {
	_, err := r.tracker.client.Index(r.tracker.runs).
		Id(doc.ID).
		Document(doc).
		Refresh(refresh.Waitfor).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index run document: %w", err)
	}
	return nil
}

func (r *run) indexMetrics(ctx context.Context, records []tracking.Record) error {
	if len(records) == 0 {
		return nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         r.tracker.metrics,
		Client:        r.tracker.client,
		NumWorkers:    2,
		FlushBytes:    1e+6,
		FlushInterval: 5 * time.Second,
		Refresh:       "wait_for",
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var successful, failed atomic.Int64

	for _, rec := range records {
		doc := toMetricDocument(r.info.ID, rec)
		docBytes, err := json.Marshal(doc)
		if err != nil {
			failed.Add(1)
			slog.Error("failed to marshal metric", "error", err, "epoch", rec.Epoch)
			continue
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: metricDocumentID(r.info.ID, rec.Epoch),
			Body:       bytes.NewReader(docBytes),
			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				successful.Add(1)
			},
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					slog.Error("bulk index error", "error", err, "id", item.DocumentID)
				} else {
					slog.Error("bulk index error", "status", res.Status, "error", res.Error.Type, "reason", res.Error.Reason, "id", item.DocumentID)
				}
			},
		})
		if err != nil {
			failed.Add(1)
			slog.Error("failed to add metric to bulk indexer", "error", err, "epoch", rec.Epoch)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("failed to close bulk indexer: %w", err)
	}

	slog.Info("Metrics indexed",
		"run", r.info.ID,
		"successful", successful.Load(),
		"failed", failed.Load(),
		"index", r.tracker.metrics)

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("failed to index %d out of %d metrics", n, len(records))
	}
	return nil
}

func ensureIndex(ctx context.Context, client *elasticsearch.TypedClient, index string, mapping types.TypeMapping) error {
	exists, err := client.Indices.Exists(index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		slog.Debug("Index already exists", "index", index)
		return nil
	}

	res, err := client.Indices.Create(index).Mappings(&mapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("Index created successfully", "index", index)
	return nil
}
