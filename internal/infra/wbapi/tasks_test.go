package wbapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sellerstats/wb-reports/internal/domain"
)

const (
	taskCreated = `{"data":{"taskId":"task-42"}}`
	taskPending = `{"data":{"status":"processing"}}`
	taskDone    = `{"data":{"status":"done"}}`
)

func TestFetchPaidStorage_HappyPath(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(200, taskCreated, nil),
		response(200, taskPending, nil),
		response(200, taskDone, nil),
		response(200, `[{"date":"2025-06-10","nmId":100,"warehousePrice":1.5}]`, nil),
	}}
	c, ns := testClient(t, transport, Options{PollInterval: 5 * time.Second, MaxPolls: 12})

	rows, err := c.FetchPaidStorage(context.Background(), "key", testPeriod.from, testPeriod.to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].NmID != 100 || rows[0].WarehousePrice != 1.5 {
		t.Errorf("unexpected rows: %+v", rows)
	}
	// one sleep before each status poll
	if len(ns.delays) != 2 || ns.delays[0] != 5*time.Second {
		t.Errorf("expected poll-interval sleeps, got %v", ns.delays)
	}
	if got := transport.requests[1].URL.Path; got != "/api/v1/paid_storage/tasks/task-42/status" {
		t.Errorf("unexpected status path %q", got)
	}
}

func TestRunReportTask_MissingTaskID(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(200, `{"data":{}}`, nil),
	}}
	c, _ := testClient(t, transport, Options{})

	_, err := c.FetchPaidStorage(context.Background(), "key", testPeriod.from, testPeriod.to)

	var created *domain.ErrJobCreationFailed
	if !errors.As(err, &created) {
		t.Fatalf("expected ErrJobCreationFailed, got %v", err)
	}
}

func TestRunReportTask_PollBudgetExhausted(t *testing.T) {
	responses := []*http.Response{response(200, taskCreated, nil)}
	for i := 0; i < 4; i++ {
		responses = append(responses, response(200, taskPending, nil))
	}
	transport := &scriptedTransport{responses: responses}
	c, ns := testClient(t, transport, Options{MaxPolls: 4, PollInterval: time.Second})

	_, err := c.FetchPaidStorage(context.Background(), "key", testPeriod.from, testPeriod.to)

	var timeout *domain.ErrJobTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrJobTimeout, got %v", err)
	}
	if timeout.Polls != 4 {
		t.Errorf("expected 4 polls, got %d", timeout.Polls)
	}
	// create + exactly MaxPolls status calls, never more
	if len(transport.requests) != 5 {
		t.Errorf("expected 5 requests, got %d", len(transport.requests))
	}
	if len(ns.delays) != 4 {
		t.Errorf("expected one sleep per poll, got %d", len(ns.delays))
	}
}

func TestRunReportTask_UpstreamFailureStatus(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(200, taskCreated, nil),
		response(200, `{"data":{"status":"error"}}`, nil),
	}}
	c, _ := testClient(t, transport, Options{MaxPolls: 12})

	_, err := c.FetchPaidAcceptance(context.Background(), "key", testPeriod.from, testPeriod.to)

	var failed *domain.ErrUpstreamJobFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected ErrUpstreamJobFailed, got %v", err)
	}
	if failed.TaskID != "task-42" || failed.Status != "error" {
		t.Errorf("unexpected failure detail: %+v", failed)
	}
}

func TestFetchPaidStorage_EmptyDownloadMeansNoData(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(200, taskCreated, nil),
		response(200, taskDone, nil),
		response(200, "", nil),
	}}
	c, _ := testClient(t, transport, Options{MaxPolls: 12})

	rows, err := c.FetchPaidStorage(context.Background(), "key", testPeriod.from, testPeriod.to)
	if err != nil {
		t.Fatalf("an empty download is a valid empty period, got %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %#v", rows)
	}
}

func TestFetchPaidAcceptance_NonArrayDownloadMeansNoData(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(200, taskCreated, nil),
		response(200, taskDone, nil),
		response(200, `{"detail":"no data"}`, nil),
	}}
	c, _ := testClient(t, transport, Options{MaxPolls: 12})

	rows, err := c.FetchPaidAcceptance(context.Background(), "key", testPeriod.from, testPeriod.to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty rows, got %d", len(rows))
	}
}
