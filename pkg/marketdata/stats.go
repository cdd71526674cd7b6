package marketdata

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// FileStats summarizes an exported file.
type FileStats struct {
	Path   string
	Format writer.Format
	Rows   int
	First  optional.Option[time.Time]
	Last   optional.Option[time.Time]
	// Low and High are the extremes of the low and high columns. Zero when Rows is 0.
	Low  float64
	High float64
}

// Inspector reads exported CSV and Parquet files through DuckDB.
type Inspector struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

// NewInspector opens an in-memory DuckDB connection.
func NewInspector(log *logger.Logger) (*Inspector, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Inspector{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: log,
	}, nil
}

// Close closes the DuckDB connection.
func (i *Inspector) Close() error {
	return i.db.Close()
}

// FormatOf returns the export format implied by path's extension.
func FormatOf(path string) (writer.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writer.FormatCSV, nil
	case ".parquet":
		return writer.FormatParquet, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "cannot infer format of %s", path)
	}
}

// Stats reports the row count, time span and price extremes of the file at
// path, optionally restricted to rows within [start, end].
func (i *Inspector) Stats(path string, start optional.Option[time.Time], end optional.Option[time.Time]) (FileStats, error) {
	format, err := FormatOf(path)
	if err != nil {
		return FileStats{}, err
	}

	i.logger.Debug("Inspecting file", zap.String("path", path), zap.String("format", string(format)))

	if _, err := i.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return FileStats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// CREATE VIEW is not expressible with squirrel
	var source string

	switch format {
	case writer.FormatCSV:
		source = fmt.Sprintf(`read_csv('%s', header = true, columns = {'timestamp': 'VARCHAR', 'open': 'DOUBLE', 'high': 'DOUBLE', 'low': 'DOUBLE', 'close': 'DOUBLE'})`, escapeLiteral(path))
	case writer.FormatParquet:
		source = fmt.Sprintf(`read_parquet('%s')`, escapeLiteral(path))
	}

	if _, err := i.db.Exec(fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM %s;`, source)); err != nil {
		return FileStats{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read %s", path)
	}

	where := squirrel.And{}

	// Timestamps are stored as fixed-width strings, so string order is time order.
	if start.IsSome() {
		where = append(where, squirrel.GtOrEq{"timestamp": start.Unwrap().UTC().Format(writer.TimestampLayout)})
	}

	if end.IsSome() {
		where = append(where, squirrel.LtOrEq{"timestamp": end.Unwrap().UTC().Format(writer.TimestampLayout)})
	}

	query, args, err := i.sq.
		Select("COUNT(*)", "MIN(timestamp)", "MAX(timestamp)", "MIN(low)", "MAX(high)").
		From("market_data").
		Where(where).
		ToSql()
	if err != nil {
		return FileStats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var (
		rows        int
		first, last sql.NullString
		low, high   sql.NullFloat64
	)

	if err := i.db.QueryRow(query, args...).Scan(&rows, &first, &last, &low, &high); err != nil {
		return FileStats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query stats", err)
	}

	stats := FileStats{
		Path:   path,
		Format: format,
		Rows:   rows,
		First:  optional.None[time.Time](),
		Last:   optional.None[time.Time](),
		Low:    low.Float64,
		High:   high.Float64,
	}

	if first.Valid {
		t, err := time.ParseInLocation(writer.TimestampLayout, first.String, time.UTC)
		if err != nil {
			return FileStats{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "invalid first timestamp", err)
		}

		stats.First = optional.Some(t)
	}

	if last.Valid {
		t, err := time.ParseInLocation(writer.TimestampLayout, last.String, time.UTC)
		if err != nil {
			return FileStats{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "invalid last timestamp", err)
		}

		stats.Last = optional.Some(t)
	}

	return stats, nil
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
