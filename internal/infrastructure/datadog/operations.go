package datadog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
)

var statusAliases = map[string]string{
	"alerting": "Alert",
	"alert":    "Alert",
	"warn":     "Warn",
	"warning":  "Warn",
	"ok":       "OK",
	"no_data":  "No Data",
	"nodata":   "No Data",
}

// MonitorState maps a --status value to the overall_state Datadog reports.
// "all" and "" disable filtering; unknown values are matched verbatim.
func MonitorState(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" || s == "all" {
		return ""
	}
	if state, ok := statusAliases[s]; ok {
		return state
	}
	return status
}

func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type monitor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	OverallState string `json:"overall_state"`
	State        struct {
		Groups map[string]struct {
			LastTriggeredTS int64 `json:"last_triggered_ts"`
		} `json:"groups"`
	} `json:"state"`
}

// lastTriggered is the most recent trigger time across groups.
func (m monitor) lastTriggered() string {
	var ts int64
	for _, g := range m.State.Groups {
		ts = max(ts, g.LastTriggeredTS)
	}
	if ts == 0 {
		return "N/A"
	}
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04")
}

// Monitors lists monitors, filtered server side by tags and client side by
// status.
func (c *Client) Monitors(ctx context.Context, status string, tags []string) (*output.Result, error) {
	q := url.Values{}
	if len(tags) > 0 {
		q.Set("monitor_tags", strings.Join(tags, ","))
	}
	var monitors []monitor
	if err := c.get(ctx, "/api/v1/monitor", q, &monitors); err != nil {
		return nil, err
	}

	want := MonitorState(status)
	var rows [][]string
	for _, m := range monitors {
		if want != "" && m.OverallState != want {
			continue
		}
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			cut(orDefault(m.OverallState, "Unknown"), 8),
			cut(orDefault(m.Name, "Unnamed"), 35),
			cut(orDefault(m.Type, "N/A"), 10),
			m.lastTriggered(),
		})
	}
	if len(rows) == 0 {
		return output.Message("No monitors found."), nil
	}
	return &output.Result{
		Table:  &output.Table{Columns: []string{"ID", "Status", "Name", "Type", "Last Triggered"}, Rows: rows},
		Footer: fmt.Sprintf("Total: %d monitor(s)", len(rows)),
	}, nil
}

// rawJSON returns the document both pretty printed and decoded.
func rawJSON(raw json.RawMessage) (*output.Result, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: string(pretty), Data: doc}, nil
}

// Monitor prints one monitor definition.
func (c *Client) Monitor(ctx context.Context, id string) (*output.Result, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: monitor id %q is not a number", errUtils.ErrInvalidArgument, id)
	}
	var raw json.RawMessage
	if err := c.get(ctx, "/api/v1/monitor/"+id, nil, &raw); err != nil {
		return nil, err
	}
	return rawJSON(raw)
}

// Dashboard prints one dashboard definition.
func (c *Client) Dashboard(ctx context.Context, id string) (*output.Result, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/v1/dashboard/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	return rawJSON(raw)
}

// MetricQuery selects a metric over the last Hours hours.
type MetricQuery struct {
	Metric string
	Hours  int
	// Tags is a scope such as "host:web-01,env:prod".
	Tags string
}

// SeriesStats summarises one returned series.
type SeriesStats struct {
	Scope  string  `json:"scope"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Points int     `json:"points"`
}

// Query fetches a time series and reports min, max and average per scope.
func (c *Client) Query(ctx context.Context, mq MetricQuery) (*output.Result, error) {
	if mq.Metric == "" {
		return nil, fmt.Errorf("%w: --metric is required", errUtils.ErrInvalidArgument)
	}
	if mq.Hours <= 0 {
		mq.Hours = 1
	}
	query := mq.Metric
	if mq.Tags != "" {
		query = fmt.Sprintf("%s{%s}", mq.Metric, mq.Tags)
	}
	now := c.now().Unix()
	q := url.Values{
		"from":  {strconv.FormatInt(now-int64(mq.Hours)*3600, 10)},
		"to":    {strconv.FormatInt(now, 10)},
		"query": {query},
	}

	var body struct {
		Series []struct {
			Scope     string        `json:"scope"`
			Pointlist [][2]*float64 `json:"pointlist"`
		} `json:"series"`
	}
	if err := c.get(ctx, "/api/v1/query", q, &body); err != nil {
		return nil, err
	}

	var stats []SeriesStats
	for _, s := range body.Series {
		var st SeriesStats
		var sum float64
		for _, p := range s.Pointlist {
			if p[1] == nil {
				continue
			}
			v := *p[1]
			if st.Points == 0 || v < st.Min {
				st.Min = v
			}
			if st.Points == 0 || v > st.Max {
				st.Max = v
			}
			sum += v
			st.Points++
		}
		if st.Points == 0 {
			continue
		}
		st.Scope = orDefault(s.Scope, "all")
		st.Avg = sum / float64(st.Points)
		stats = append(stats, st)
	}
	if len(stats) == 0 {
		return &output.Result{Text: "No data found for metric: " + mq.Metric, Data: []SeriesStats{}}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Metric: %s\n", mq.Metric)
	if mq.Tags != "" {
		fmt.Fprintf(&b, "Tags: %s\n", mq.Tags)
	}
	fmt.Fprintf(&b, "Time Range: Last %d hour(s)\n", mq.Hours)
	for _, st := range stats {
		fmt.Fprintf(&b, "\nScope: %s\n  Min: %.2f\n  Max: %.2f\n  Avg: %.2f\n  Data Points: %d\n",
			st.Scope, st.Min, st.Max, st.Avg, st.Points)
	}
	return &output.Result{Text: b.String(), Data: stats}, nil
}

// Dashboards lists dashboards whose title contains filter.
func (c *Client) Dashboards(ctx context.Context, filter string) (*output.Result, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter[shared]", "false")
	}
	var body struct {
		Dashboards []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			AuthorHandle string `json:"author_handle"`
		} `json:"dashboards"`
	}
	if err := c.get(ctx, "/api/v1/dashboard", q, &body); err != nil {
		return nil, err
	}

	needle := strings.ToLower(filter)
	var rows [][]string
	for _, d := range body.Dashboards {
		if needle != "" && !strings.Contains(strings.ToLower(d.Title), needle) {
			continue
		}
		rows = append(rows, []string{
			cut(orDefault(d.ID, "N/A"), 20),
			cut(orDefault(d.Title, "Untitled"), 40),
			cut(orDefault(d.AuthorHandle, "N/A"), 12),
		})
	}
	if len(rows) == 0 {
		return output.Message("No dashboards found."), nil
	}
	return &output.Result{
		Table:  &output.Table{Columns: []string{"ID", "Title", "Author"}, Rows: rows},
		Footer: fmt.Sprintf("Total: %d dashboard(s)", len(rows)),
	}, nil
}

// EventQuery selects events from the last Hours hours.
type EventQuery struct {
	Hours    int
	Tags     string
	Priority string
}

// Event is one entry of Events.
type Event struct {
	Time     string `json:"time"`
	Priority string `json:"priority"`
	Source   string `json:"source"`
	Title    string `json:"title"`
	Text     string `json:"text,omitempty"`
}

// Events lists recent events, newest as returned by the API.
func (c *Client) Events(ctx context.Context, eq EventQuery) (*output.Result, error) {
	if eq.Hours <= 0 {
		eq.Hours = 24
	}
	switch eq.Priority {
	case "", "normal", "low":
	default:
		return nil, fmt.Errorf("%w: priority must be normal or low", errUtils.ErrInvalidArgument)
	}
	now := c.now().Unix()
	q := url.Values{
		"start": {strconv.FormatInt(now-int64(eq.Hours)*3600, 10)},
		"end":   {strconv.FormatInt(now, 10)},
	}
	if eq.Tags != "" {
		q.Set("tags", eq.Tags)
	}
	if eq.Priority != "" {
		q.Set("priority", eq.Priority)
	}

	var body struct {
		Events []struct {
			DateHappened   int64  `json:"date_happened"`
			Title          string `json:"title"`
			SourceTypeName string `json:"source_type_name"`
			Priority       string `json:"priority"`
			Text           string `json:"text"`
		} `json:"events"`
	}
	if err := c.get(ctx, "/api/v1/events", q, &body); err != nil {
		return nil, err
	}
	if len(body.Events) == 0 {
		return &output.Result{Text: "No events found.", Data: []Event{}}, nil
	}

	events := make([]Event, 0, len(body.Events))
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s):\n", len(body.Events))
	for _, e := range body.Events {
		ev := Event{
			Time:     time.Unix(e.DateHappened, 0).Local().Format("2006-01-02 15:04:05"),
			Priority: orDefault(e.Priority, "normal"),
			Source:   orDefault(e.SourceTypeName, "N/A"),
			Title:    orDefault(e.Title, "No title"),
			Text:     e.Text,
		}
		events = append(events, ev)
		fmt.Fprintf(&b, "\n[%s] (%s) %s: %s\n", ev.Time, ev.Priority, ev.Source, ev.Title)
		if ev.Text != "" {
			preview := ev.Text
			if len([]rune(preview)) > 100 {
				preview = cut(preview, 100) + "..."
			}
			fmt.Fprintf(&b, "  %s\n", preview)
		}
	}
	return &output.Result{Text: b.String(), Data: events}, nil
}

// ValidateResult reports whether the keys are accepted.
func (c *Client) ValidateResult(ctx context.Context) (*output.Result, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	return &output.Result{Fields: []output.Field{
		{Key: "Status", Value: "Credentials valid"},
		{Key: "Site", Value: c.cfg.Site},
		{Key: "API URL", Value: c.cfg.BaseURL},
	}}, nil
}
