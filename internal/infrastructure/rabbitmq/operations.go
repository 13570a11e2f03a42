package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vivekkundariya/opskit/internal/infrastructure/httpapi"
	"github.com/vivekkundariya/opskit/internal/output"
)

type rate struct {
	Rate float64 `json:"rate"`
}

type queue struct {
	Name         string         `json:"name"`
	VHost        string         `json:"vhost"`
	State        string         `json:"state"`
	Durable      bool           `json:"durable"`
	AutoDelete   bool           `json:"auto_delete"`
	Exclusive    bool           `json:"exclusive"`
	Messages     int64          `json:"messages"`
	Ready        int64          `json:"messages_ready"`
	Unacked      int64          `json:"messages_unacknowledged"`
	Consumers    int64          `json:"consumers"`
	Memory       int64          `json:"memory"`
	Arguments    map[string]any `json:"arguments"`
	MessageStats struct {
		Publish    *rate `json:"publish_details"`
		DeliverGet *rate `json:"deliver_get_details"`
		Ack        *rate `json:"ack_details"`
		Redeliver  *rate `json:"redeliver_details"`
	} `json:"message_stats"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func gb(n int64) string {
	return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
}

func formatRate(r *rate) string {
	if r == nil {
		return "0/s"
	}
	return fmt.Sprintf("%.1f/s", r.Rate)
}

func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func table(columns []string, rows [][]string, data any) *output.Result {
	if len(rows) == 0 {
		return &output.Result{Text: "(no results)", Data: []any{}}
	}
	return &output.Result{Table: &output.Table{Columns: columns, Rows: rows}, Data: data}
}

// Overview summarises versions, queue totals and object counts.
func (c *Client) Overview(ctx context.Context) (*output.Result, error) {
	var ov struct {
		RabbitMQVersion string `json:"rabbitmq_version"`
		ErlangVersion   string `json:"erlang_version"`
		ClusterName     string `json:"cluster_name"`
		Node            string `json:"node"`
		QueueTotals     struct {
			Messages int64 `json:"messages"`
			Ready    int64 `json:"messages_ready"`
			Unacked  int64 `json:"messages_unacknowledged"`
		} `json:"queue_totals"`
		ObjectTotals struct {
			Queues      int64 `json:"queues"`
			Connections int64 `json:"connections"`
			Channels    int64 `json:"channels"`
			Consumers   int64 `json:"consumers"`
			Exchanges   int64 `json:"exchanges"`
		} `json:"object_totals"`
	}
	if err := c.get(ctx, "overview", &ov); err != nil {
		return nil, err
	}

	orUnknown := func(s string) string {
		if s == "" {
			return "unknown"
		}
		return s
	}
	return &output.Result{Fields: []output.Field{
		{Key: "RabbitMQ Version", Value: orUnknown(ov.RabbitMQVersion)},
		{Key: "Erlang Version", Value: orUnknown(ov.ErlangVersion)},
		{Key: "Cluster Name", Value: orUnknown(ov.ClusterName)},
		{Key: "Node", Value: orUnknown(ov.Node)},
		{Key: "Total Messages", Value: humanize.Comma(ov.QueueTotals.Messages)},
		{Key: "Messages Ready", Value: humanize.Comma(ov.QueueTotals.Ready)},
		{Key: "Messages Unacked", Value: humanize.Comma(ov.QueueTotals.Unacked)},
		{Key: "Queues", Value: humanize.Comma(ov.ObjectTotals.Queues)},
		{Key: "Connections", Value: humanize.Comma(ov.ObjectTotals.Connections)},
		{Key: "Channels", Value: humanize.Comma(ov.ObjectTotals.Channels)},
		{Key: "Consumers", Value: humanize.Comma(ov.ObjectTotals.Consumers)},
		{Key: "Exchanges", Value: humanize.Comma(ov.ObjectTotals.Exchanges)},
	}}, nil
}

// Nodes lists cluster nodes with memory, disk and descriptor usage.
func (c *Client) Nodes(ctx context.Context) (*output.Result, error) {
	var nodes []struct {
		Name         string `json:"name"`
		Type         string `json:"type"`
		Running      bool   `json:"running"`
		MemUsed      int64  `json:"mem_used"`
		MemLimit     int64  `json:"mem_limit"`
		DiskFree     int64  `json:"disk_free"`
		FDUsed       int64  `json:"fd_used"`
		FDTotal      int64  `json:"fd_total"`
		SocketsUsed  int64  `json:"sockets_used"`
		SocketsTotal int64  `json:"sockets_total"`
		Uptime       int64  `json:"uptime"`
	}
	if err := c.get(ctx, "nodes", &nodes); err != nil {
		return nil, err
	}

	var rows [][]string
	for _, n := range nodes {
		rows = append(rows, []string{
			n.Name, n.Type, yesNo(n.Running),
			gb(n.MemUsed), gb(n.MemLimit), gb(n.DiskFree),
			fmt.Sprintf("%d/%d", n.FDUsed, n.FDTotal),
			fmt.Sprintf("%d/%d", n.SocketsUsed, n.SocketsTotal),
			fmt.Sprintf("%d hours", n.Uptime/1000/60/60),
		})
	}
	return table([]string{"name", "type", "running", "mem_used", "mem_limit", "disk_free",
		"fd_used", "sockets_used", "uptime"}, rows, nil), nil
}

// Health reports HEALTHY, WARNING when the alarms check fails with active
// alarms, or ERROR when the check cannot be run.
func (c *Client) Health(ctx context.Context) (*output.Result, error) {
	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	err := c.http.Get(ctx, "/health/checks/alarms", nil, &body)

	var se *httpapi.StatusError
	switch {
	case err == nil && (body.Status == "" || body.Status == "ok"):
		return &output.Result{Fields: []output.Field{
			{Key: "status", Value: "HEALTHY"},
			{Key: "message", Value: "No alarms active"},
		}}, nil
	case err == nil:
		return warning(body.Reason), nil
	case errors.As(err, &se) && se.Code == http.StatusServiceUnavailable:
		return warning(strings.TrimSpace(se.Body)), nil
	}
	return &output.Result{Fields: []output.Field{
		{Key: "status", Value: "ERROR"},
		{Key: "message", Value: err.Error()},
	}}, nil
}

func warning(reason string) *output.Result {
	if reason == "" {
		reason = "alarms in effect"
	}
	return &output.Result{Fields: []output.Field{
		{Key: "status", Value: "WARNING"},
		{Key: "alarms", Value: reason},
	}}
}

// QueueFilter narrows Queues.
type QueueFilter struct {
	VHost string
	// Name keeps queues whose name contains it, case-insensitively.
	Name string
	// Backlog keeps queues with at least one message.
	Backlog bool
}

// QueueSummary is one row of Queues.
type QueueSummary struct {
	Name      string `json:"name"`
	Messages  int64  `json:"messages"`
	Ready     int64  `json:"ready"`
	Unacked   int64  `json:"unacked"`
	Consumers int64  `json:"consumers"`
	State     string `json:"state"`
	VHost     string `json:"vhost"`
}

// Queues lists queues sorted by message count, largest first.
func (c *Client) Queues(ctx context.Context, f QueueFilter) (*output.Result, error) {
	var qs []queue
	if err := c.get(ctx, vhostPath("queues", f.VHost), &qs); err != nil {
		return nil, err
	}

	needle := strings.ToLower(f.Name)
	var list []QueueSummary
	for _, q := range qs {
		if needle != "" && !strings.Contains(strings.ToLower(q.Name), needle) {
			continue
		}
		if f.Backlog && q.Messages <= 0 {
			continue
		}
		list = append(list, QueueSummary{
			Name: q.Name, Messages: q.Messages, Ready: q.Ready, Unacked: q.Unacked,
			Consumers: q.Consumers, State: q.State, VHost: q.VHost,
		})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Messages > list[j].Messages })

	rows := make([][]string, len(list))
	for i, q := range list {
		rows[i] = []string{q.Name, strconv.FormatInt(q.Messages, 10), strconv.FormatInt(q.Ready, 10),
			strconv.FormatInt(q.Unacked, 10), strconv.FormatInt(q.Consumers, 10), q.State, q.VHost}
	}
	return table([]string{"name", "messages", "ready", "unacked", "consumers", "state", "vhost"}, rows, list), nil
}

// Queue shows one queue, optionally with message rates.
func (c *Client) Queue(ctx context.Context, vhost, name string, rates bool) (*output.Result, error) {
	if vhost == "" {
		vhost = DefaultVHost
	}
	var q queue
	if err := c.get(ctx, "queues/"+escape(vhost)+"/"+escape(name), &q); err != nil {
		return nil, err
	}

	fields := []output.Field{
		{Key: "Name", Value: q.Name},
		{Key: "VHost", Value: q.VHost},
		{Key: "State", Value: q.State},
		{Key: "Durable", Value: yesNo(q.Durable)},
		{Key: "Auto-delete", Value: yesNo(q.AutoDelete)},
		{Key: "Exclusive", Value: yesNo(q.Exclusive)},
		{Key: "Messages", Value: humanize.Comma(q.Messages)},
		{Key: "Messages Ready", Value: humanize.Comma(q.Ready)},
		{Key: "Messages Unacked", Value: humanize.Comma(q.Unacked)},
		{Key: "Consumers", Value: strconv.FormatInt(q.Consumers, 10)},
		{Key: "Memory", Value: fmt.Sprintf("%.1f KB", float64(q.Memory)/1024)},
	}
	if rates {
		s := q.MessageStats
		fields = append(fields,
			output.Field{Key: "Publish Rate", Value: formatRate(s.Publish)},
			output.Field{Key: "Deliver Rate", Value: formatRate(s.DeliverGet)},
			output.Field{Key: "Ack Rate", Value: formatRate(s.Ack)},
			output.Field{Key: "Redeliver Rate", Value: formatRate(s.Redeliver)},
		)
	}
	for _, k := range slices.Sorted(maps.Keys(q.Arguments)) {
		fields = append(fields, output.Field{Key: "Argument " + k, Value: fmt.Sprint(q.Arguments[k])})
	}
	return &output.Result{Fields: fields}, nil
}

// Connections lists client connections.
func (c *Client) Connections(ctx context.Context) (*output.Result, error) {
	var conns []struct {
		Name     string `json:"name"`
		User     string `json:"user"`
		State    string `json:"state"`
		Channels int64  `json:"channels"`
		SSL      bool   `json:"ssl"`
		PeerHost string `json:"peer_host"`
		PeerPort int64  `json:"peer_port"`
	}
	if err := c.get(ctx, "connections", &conns); err != nil {
		return nil, err
	}
	var rows [][]string
	for _, cn := range conns {
		rows = append(rows, []string{cut(cn.Name, 50), cn.User, cn.State,
			strconv.FormatInt(cn.Channels, 10), yesNo(cn.SSL), cn.PeerHost, strconv.FormatInt(cn.PeerPort, 10)})
	}
	return table([]string{"name", "user", "state", "channels", "ssl", "peer_host", "peer_port"}, rows, nil), nil
}

// Channels lists open channels.
func (c *Client) Channels(ctx context.Context) (*output.Result, error) {
	var chans []struct {
		Name          string `json:"name"`
		User          string `json:"user"`
		State         string `json:"state"`
		PrefetchCount int64  `json:"prefetch_count"`
		ConsumerCount int64  `json:"consumer_count"`
		Unacked       int64  `json:"messages_unacknowledged"`
	}
	if err := c.get(ctx, "channels", &chans); err != nil {
		return nil, err
	}
	var rows [][]string
	for _, ch := range chans {
		rows = append(rows, []string{cut(ch.Name, 50), ch.User, ch.State,
			strconv.FormatInt(ch.PrefetchCount, 10), strconv.FormatInt(ch.ConsumerCount, 10),
			strconv.FormatInt(ch.Unacked, 10)})
	}
	return table([]string{"name", "user", "state", "prefetch_count", "consumer_count", "messages_unacked"}, rows, nil), nil
}

// Consumers lists consumers with their queue and channel.
func (c *Client) Consumers(ctx context.Context) (*output.Result, error) {
	var cons []struct {
		Queue struct {
			Name string `json:"name"`
		} `json:"queue"`
		ConsumerTag    string `json:"consumer_tag"`
		ChannelDetails struct {
			Name string `json:"name"`
		} `json:"channel_details"`
		PrefetchCount int64 `json:"prefetch_count"`
		AckRequired   bool  `json:"ack_required"`
		Exclusive     bool  `json:"exclusive"`
	}
	if err := c.get(ctx, "consumers", &cons); err != nil {
		return nil, err
	}
	var rows [][]string
	for _, cn := range cons {
		rows = append(rows, []string{cn.Queue.Name, cut(cn.ConsumerTag, 40), cut(cn.ChannelDetails.Name, 30),
			strconv.FormatInt(cn.PrefetchCount, 10), yesNo(cn.AckRequired), yesNo(cn.Exclusive)})
	}
	return table([]string{"queue", "consumer_tag", "channel", "prefetch", "ack_required", "exclusive"}, rows, nil), nil
}

// Exchanges lists exchanges; the nameless default exchange is shown as
// "(default)".
func (c *Client) Exchanges(ctx context.Context, vhost string) (*output.Result, error) {
	var exs []struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		Durable    bool   `json:"durable"`
		AutoDelete bool   `json:"auto_delete"`
		Internal   bool   `json:"internal"`
		VHost      string `json:"vhost"`
	}
	if err := c.get(ctx, vhostPath("exchanges", vhost), &exs); err != nil {
		return nil, err
	}
	var rows [][]string
	for _, ex := range exs {
		name := ex.Name
		if name == "" {
			name = "(default)"
		}
		rows = append(rows, []string{name, ex.Type, yesNo(ex.Durable), yesNo(ex.AutoDelete),
			yesNo(ex.Internal), ex.VHost})
	}
	return table([]string{"name", "type", "durable", "auto_delete", "internal", "vhost"}, rows, nil), nil
}

// Bindings lists the bindings of one queue.
func (c *Client) Bindings(ctx context.Context, vhost, name string) (*output.Result, error) {
	if vhost == "" {
		vhost = DefaultVHost
	}
	var bs []struct {
		Source          string         `json:"source"`
		RoutingKey      string         `json:"routing_key"`
		Destination     string         `json:"destination"`
		DestinationType string         `json:"destination_type"`
		Arguments       map[string]any `json:"arguments"`
	}
	if err := c.get(ctx, "queues/"+escape(vhost)+"/"+escape(name)+"/bindings", &bs); err != nil {
		return nil, err
	}
	var rows [][]string
	for _, b := range bs {
		src := b.Source
		if src == "" {
			src = "(default)"
		}
		args := ""
		if len(b.Arguments) > 0 {
			args = fmt.Sprint(b.Arguments)
		}
		rows = append(rows, []string{src, b.RoutingKey, b.Destination, b.DestinationType, args})
	}
	return table([]string{"source", "routing_key", "destination", "destination_type", "arguments"}, rows, nil), nil
}
