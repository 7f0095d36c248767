package wbapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
)

// taskSpec wires one async report kind to its three analytics endpoints.
// statusPath and downloadPath embed the task id via %s.
type taskSpec struct {
	kind         string
	createPath   string
	statusPath   string
	downloadPath string
}

var (
	paidStorageTask = taskSpec{
		kind:         "paid_storage",
		createPath:   "/api/v1/paid_storage",
		statusPath:   "/api/v1/paid_storage/tasks/%s/status",
		downloadPath: "/api/v1/paid_storage/tasks/%s/download",
	}
	acceptanceTask = taskSpec{
		kind:         "acceptance",
		createPath:   "/api/v1/acceptance_report",
		statusPath:   "/api/v1/acceptance_report/tasks/%s/status",
		downloadPath: "/api/v1/acceptance_report/tasks/%s/download",
	}
)

// FetchPaidStorage runs the paid-storage report task and returns its rows.
// An empty or non-array download body means no data for the period.
func (c *Client) FetchPaidStorage(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.StorageRecord, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchPaidStorage")
	defer span.End()

	raw, err := c.runReportTask(ctx, apiKey, paidStorageTask, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	if !looksLikeJSONArray(raw) {
		return []domain.StorageRecord{}, nil
	}
	var rows []domain.StorageRecord
	if err := decode("analytics", raw, &rows); err != nil {
		c.logger.Warn("wbapi: undecodable paid storage download, treating as empty", zap.Error(err))
		return []domain.StorageRecord{}, nil
	}
	return rows, nil
}

// FetchPaidAcceptance runs the paid-acceptance report task and returns its rows.
func (c *Client) FetchPaidAcceptance(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.AcceptanceRecord, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchPaidAcceptance")
	defer span.End()

	raw, err := c.runReportTask(ctx, apiKey, acceptanceTask, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	if !looksLikeJSONArray(raw) {
		return []domain.AcceptanceRecord{}, nil
	}
	var rows []domain.AcceptanceRecord
	if err := decode("analytics", raw, &rows); err != nil {
		c.logger.Warn("wbapi: undecodable acceptance download, treating as empty", zap.Error(err))
		return []domain.AcceptanceRecord{}, nil
	}
	return rows, nil
}

// runReportTask drives the create/poll/download protocol: submit the task,
// poll its status at a fixed interval up to the poll budget, then fetch the
// result body. A missing task id, a failed status and an exhausted budget
// are all distinct fatal errors.
func (c *Client) runReportTask(ctx context.Context, apiKey string, spec taskSpec, dateFrom, dateTo time.Time) ([]byte, error) {
	q := url.Values{}
	q.Set("dateFrom", dateFrom.Format(dateLayout))
	q.Set("dateTo", dateTo.Format(dateLayout))

	_, body, err := c.call(ctx, apiRequest{
		service:    "analytics",
		method:     "GET",
		url:        c.hosts.Analytics + spec.createPath + "?" + q.Encode(),
		apiKey:     apiKey,
		limiterKey: "analytics:" + spec.kind,
		perMinute:  c.opts.AnalyticsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	var created struct {
		Data struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	if err := decode("analytics", body, &created); err != nil {
		return nil, err
	}
	if created.Data.TaskID == "" {
		return nil, &domain.ErrJobCreationFailed{Kind: spec.kind}
	}
	taskID := created.Data.TaskID

	c.logger.Info("wbapi: report task created",
		zap.String("kind", spec.kind),
		zap.String("task_id", taskID),
	)

	status, err := c.awaitTask(ctx, apiKey, spec, taskID)
	if err != nil {
		return nil, err
	}
	c.logger.Info("wbapi: report task finished",
		zap.String("kind", spec.kind),
		zap.String("task_id", taskID),
		zap.String("status", status),
	)

	_, raw, err := c.call(ctx, apiRequest{
		service:    "analytics",
		method:     "GET",
		url:        c.hosts.Analytics + fmt.Sprintf(spec.downloadPath, taskID),
		apiKey:     apiKey,
		limiterKey: "analytics:" + spec.kind,
		perMinute:  c.opts.AnalyticsPerMinute,
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// awaitTask polls the status endpoint until the task completes, fails or
// the poll budget runs out.
func (c *Client) awaitTask(ctx context.Context, apiKey string, spec taskSpec, taskID string) (string, error) {
	for poll := 0; poll < c.opts.MaxPolls; poll++ {
		if err := c.opts.Sleep(ctx, c.opts.PollInterval); err != nil {
			return "", err
		}
		c.metrics.IncrTaskPoll(spec.kind)

		_, body, err := c.call(ctx, apiRequest{
			service:    "analytics",
			method:     "GET",
			url:        c.hosts.Analytics + fmt.Sprintf(spec.statusPath, taskID),
			apiKey:     apiKey,
			limiterKey: "analytics:" + spec.kind + ":status",
			perMinute:  c.opts.AnalyticsPerMinute * 12,
		})
		if err != nil {
			return "", err
		}

		var st struct {
			Data struct {
				Status string `json:"status"`
			} `json:"data"`
		}
		if err := decode("analytics", body, &st); err != nil {
			return "", err
		}

		switch st.Data.Status {
		case "done", "success", "DONE", "SUCCESS":
			return st.Data.Status, nil
		case "error", "failed", "canceled", "ERROR", "FAILED":
			return "", &domain.ErrUpstreamJobFailed{Kind: spec.kind, TaskID: taskID, Status: st.Data.Status}
		}
	}
	return "", &domain.ErrJobTimeout{Kind: spec.kind, Polls: c.opts.MaxPolls}
}
