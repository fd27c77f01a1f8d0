package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// ValidGroupBy lists the dimensions GetMetrics can group by
var ValidGroupBy = map[string]bool{
	"utm_source":   true,
	"utm_campaign": true,
	"status":       true,
	"hour":         true,
	"day":          true,
}

// Repository implements DeliveryLogRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the delivery_attempts table
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS delivery_attempts (
		event_id String,
		event_name LowCardinality(String),
		status LowCardinality(String),
		source LowCardinality(String),
		attempt UInt32,
		utm_source String,
		utm_campaign String,
		value Float64,
		currency LowCardinality(String),
		error_code Int32,
		error_message String,
		occurred_at DateTime64(3),
		attempted_at DateTime64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY (event_id, attempted_at)
	PARTITION BY toYYYYMM(attempted_at)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create delivery_attempts table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized")
	return nil
}

// InsertBatch inserts a batch of delivery attempts into ClickHouse
func (r *Repository) InsertBatch(ctx context.Context, attempts []*domain.DeliveryAttempt) (int, error) {
	if len(attempts) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO delivery_attempts")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, a := range attempts {
		if a.Version == 0 {
			a.Version = uint64(time.Now().UnixNano())
		}
		if err := batch.AppendStruct(a); err != nil {
			return 0, fmt.Errorf("failed to append delivery attempt %s: %w", a.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return len(attempts), nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// GetMetrics aggregates delivery attempts for one event name over [From, To] (unix seconds)
func (r *Repository) GetMetrics(ctx context.Context, query repository.MetricsQuery) (*repository.MetricsResult, error) {
	result := &repository.MetricsResult{
		Groups: []repository.MetricsGroupResult{},
	}

	whereClause := "WHERE event_name = ? AND occurred_at >= toDateTime(?) AND occurred_at <= toDateTime(?)"
	args := []interface{}{query.EventName, query.From, query.To}

	overallQuery := fmt.Sprintf(`
		SELECT
			count() AS total_attempts,
			uniq(event_id) AS unique_events,
			uniqIf(event_id, status = 'sent') AS sent_events,
			sumIf(value, status = 'sent') AS sent_value
		FROM delivery_attempts FINAL
		%s
	`, whereClause)

	row := r.client.Conn().QueryRow(ctx, overallQuery, args...)
	if err := row.Scan(&result.TotalAttempts, &result.UniqueEvents, &result.SentEvents, &result.SentValue); err != nil {
		return nil, fmt.Errorf("failed to query overall metrics: %w", err)
	}

	if query.GroupBy == "" {
		return result, nil
	}

	if !ValidGroupBy[query.GroupBy] {
		return nil, fmt.Errorf("unsupported group_by value: %s", query.GroupBy)
	}

	var selectField, groupByClause, orderBy string
	switch query.GroupBy {
	case "utm_source", "utm_campaign", "status":
		selectField = query.GroupBy
		groupByClause = "GROUP BY " + query.GroupBy
		orderBy = "ORDER BY total_attempts DESC"
	case "hour":
		selectField = "formatDateTime(toStartOfHour(occurred_at), '%Y-%m-%d %H:00:00')"
		groupByClause = "GROUP BY group_value"
		orderBy = "ORDER BY group_value ASC"
	case "day":
		selectField = "formatDateTime(toStartOfDay(occurred_at), '%Y-%m-%d')"
		groupByClause = "GROUP BY group_value"
		orderBy = "ORDER BY group_value ASC"
	}

	groupedQuery := fmt.Sprintf(`
		SELECT
			%s AS group_value,
			count() AS total_attempts,
			uniqIf(event_id, status = 'sent') AS sent_events
		FROM delivery_attempts FINAL
		%s
		%s
		%s
	`, selectField, whereClause, groupByClause, orderBy)

	rows, err := r.client.Conn().Query(ctx, groupedQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped metrics: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close grouped metrics rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var group repository.MetricsGroupResult
		if err := rows.Scan(&group.GroupValue, &group.TotalAttempts, &group.SentEvents); err != nil {
			return nil, fmt.Errorf("failed to scan grouped metrics row: %w", err)
		}
		result.Groups = append(result.Groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped metrics rows: %w", err)
	}

	return result, nil
}
