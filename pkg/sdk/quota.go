package gamedex

import "time"

// QuotaStatus reports today's catalog request usage.
type QuotaStatus struct {
	Used int64
	// Limit is 0 when the quota is unlimited.
	Limit int64
	// Remaining is -1 when the quota is unlimited.
	Remaining int64
	ResetsAt  time.Time
}

// Quota returns today's catalog request usage.
// Counts are served from memory; the durable copy is written through on each request.
func (c *Client) Quota() QuotaStatus {
	start := time.Now()
	defer func() { c.obs.observe("quota", start, nil) }()

	now := time.Now().UTC()
	return QuotaStatus{
		Used:      c.quota.Used(),
		Limit:     c.quota.Limit(),
		Remaining: c.quota.Remaining(),
		ResetsAt:  time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC),
	}
}

// quotaReader is the internal interface for quota reports.
type quotaReader interface {
	Used() int64
	Limit() int64
	Remaining() int64
}
