package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
)

// ItemOutcome is the per-URL result of a batch run.
type ItemOutcome struct {
	URL    string               `json:"url"`
	Status content.IngestStatus `json:"status,omitempty"`
	Count  int                  `json:"count"`
	Error  string               `json:"error,omitempty"`
}

// BatchResult summarizes a batch collection run.
type BatchResult struct {
	Items     []ItemOutcome `json:"items"`
	Ingested  int           `json:"ingested"`
	Inserted  int           `json:"inserted"`
	Duplicate int           `json:"duplicate"`
	Empty     int           `json:"empty"`
	Failed    int           `json:"failed"`
}

// RunBatch ingests the URLs strictly in order with a politeness pause between
// items. One URL failing does not stop the rest; failures are reported per
// item. Context cancellation stops the batch after the in-flight item.
func (p *Pipeline) RunBatch(ctx context.Context, urls []string, template Request) BatchResult {
	var result BatchResult
	for i, url := range urls {
		if i > 0 {
			p.pause(ctx)
		}
		if ctx.Err() != nil {
			p.logger.Info("batch canceled", zap.Int("remaining", len(urls)-i))
			break
		}

		req := template
		req.URL = url
		res, err := p.Run(ctx, req)
		outcome := ItemOutcome{URL: url, Status: res.Status, Count: res.Count}
		switch {
		case err != nil:
			outcome.Error = err.Error()
			result.Failed++
			metrics.ObserveBatchItem("error")
			p.logger.Warn("batch item failed", zap.String("url", url), zap.Error(err))
		case res.Status == content.StatusDuplicate:
			result.Duplicate++
			metrics.ObserveBatchItem("duplicate")
		case res.Status == content.StatusEmpty:
			result.Empty++
			metrics.ObserveBatchItem("empty")
		default:
			result.Ingested++
			result.Inserted += res.Count
			metrics.ObserveBatchItem("ingested")
		}
		result.Items = append(result.Items, outcome)
	}
	return result
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.cfg.BatchDelay <= 0 {
		return
	}
	start := p.clock.Now()
	timer := time.NewTimer(p.cfg.BatchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	metrics.ObserveThrottleWait(p.clock.Now().Sub(start))
}
