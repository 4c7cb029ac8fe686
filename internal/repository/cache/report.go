package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "attendance:report:"

// reportCache keeps one hash per student; each field holds the report for a threshold.
type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func reportKey(studentID string) string {
	return reportKeyPrefix + studentID
}

func thresholdField(threshold float64) string {
	return strconv.FormatFloat(threshold, 'f', -1, 64)
}

// GetReport implements attendance.ReportCache. A miss returns nil, nil.
func (c *reportCache) GetReport(ctx context.Context, studentID string, threshold float64) (*attendance.AnalyticsReport, error) {
	raw, err := c.client.HGet(ctx, reportKey(studentID), thresholdField(threshold)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached report: %w", err)
	}

	var report attendance.AnalyticsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode cached report: %w", err)
	}

	return &report, nil
}

// SetReport implements attendance.ReportCache.
func (c *reportCache) SetReport(ctx context.Context, studentID string, threshold float64, report attendance.AnalyticsReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	key := reportKey(studentID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, thresholdField(threshold), raw)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}

	return nil
}

// InvalidateStudent implements attendance.ReportCache.
func (c *reportCache) InvalidateStudent(ctx context.Context, studentID string) error {
	if err := c.client.Del(ctx, reportKey(studentID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached reports: %w", err)
	}
	return nil
}

func NewReportCache(client *redis.Client, ttl time.Duration) attendance.ReportCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &reportCache{client: client, ttl: ttl}
}

type noopReportCache struct{}

func (noopReportCache) GetReport(context.Context, string, float64) (*attendance.AnalyticsReport, error) {
	return nil, nil
}

func (noopReportCache) SetReport(context.Context, string, float64, attendance.AnalyticsReport) error {
	return nil
}

func (noopReportCache) InvalidateStudent(context.Context, string) error {
	return nil
}

// NewNoopReportCache returns a cache that never stores anything, used when Redis is not configured.
func NewNoopReportCache() attendance.ReportCache {
	return noopReportCache{}
}
