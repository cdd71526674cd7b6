package writer

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// ReadCSV parses a file written by CSVWriter. Timestamps come back at minute
// precision in UTC; empty price fields parse as zero.
func ReadCSV(path string) (types.Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open %s", path)
	}
	defer file.Close()

	if err := checkHeader(file); err != nil {
		return nil, err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to rewind %s", path)
	}

	var rows []csvRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", path)
	}

	series := make(types.Series, 0, len(rows))
	for _, row := range rows {
		series = append(series, row.marketData())
	}

	return series, nil
}

// checkHeader rejects files whose first line is not exactly Columns.
// gocsv matches columns by name and would silently zero missing ones.
func checkHeader(file *os.File) error {
	line, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to read header", err)
	}

	header := strings.TrimRight(line, "\r\n")
	if header != strings.Join(Columns, ",") {
		return errors.Newf(errors.ErrCodeMarketDataParseFailed, "unexpected header %q, want %q", header, strings.Join(Columns, ","))
	}

	return nil
}
