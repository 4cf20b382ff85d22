package tools

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultCSVRows = 50
	maxCSVRows     = 1000
)

// CSVTools reads CSV files inside the workspace.
type CSVTools struct {
	files *FileTools
}

func NewCSVTools(files *FileTools) *CSVTools {
	return &CSVTools{files: files}
}

// Table is a slice of a CSV file.
type Table struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Truncated bool       `json:"truncated,omitempty"`
}

// ColumnStats summarizes one column.
type ColumnStats struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Empty   int      `json:"empty"`
	Numeric bool     `json:"numeric"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Mean    *float64 `json:"mean,omitempty"`
	Sample  []string `json:"sample,omitempty"`
}

// scan streams the records of a CSV file. The header row is passed first.
func (c *CSVTools) scan(ctx context.Context, path string, fn func(header []string, record []string) error) ([]string, error) {
	absPath, err := c.files.resolvePath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv file is empty: %s", path)
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		if err := fn(header, record); err != nil {
			return nil, err
		}
	}
	return header, nil
}

// Read returns the header and the first limit rows.
func (c *CSVTools) Read(ctx context.Context, path string, limit int) (*Table, error) {
	limit = clampRows(limit)
	table := &Table{Rows: [][]string{}}
	header, err := c.scan(ctx, path, func(_ []string, record []string) error {
		table.TotalRows++
		if len(table.Rows) < limit {
			table.Rows = append(table.Rows, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	table.Headers = header
	table.Truncated = table.TotalRows > len(table.Rows)
	return table, nil
}

// Filter returns rows whose column equals value, ignoring case and
// surrounding space.
func (c *CSVTools) Filter(ctx context.Context, path, column, value string, limit int) (*Table, error) {
	limit = clampRows(limit)
	want := strings.ToLower(strings.TrimSpace(value))
	col := -1
	table := &Table{Rows: [][]string{}}

	header, err := c.scan(ctx, path, func(header []string, record []string) error {
		if col == -1 {
			col = columnIndex(header, column)
			if col == -1 {
				return fmt.Errorf("column %q not found (columns: %s)", column, strings.Join(header, ", "))
			}
		}
		if col >= len(record) || strings.ToLower(strings.TrimSpace(record[col])) != want {
			return nil
		}
		table.TotalRows++
		if len(table.Rows) < limit {
			table.Rows = append(table.Rows, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if col == -1 && columnIndex(header, column) == -1 {
		return nil, fmt.Errorf("column %q not found (columns: %s)", column, strings.Join(header, ", "))
	}
	table.Headers = header
	table.Truncated = table.TotalRows > len(table.Rows)
	return table, nil
}

// Describe computes per-column statistics.
func (c *CSVTools) Describe(ctx context.Context, path string) ([]ColumnStats, int, error) {
	type acc struct {
		stats    ColumnStats
		sum      float64
		min, max float64
		numbers  int
	}
	var cols []*acc
	rows := 0

	header, err := c.scan(ctx, path, func(header []string, record []string) error {
		if cols == nil {
			cols = make([]*acc, len(header))
			for i, name := range header {
				cols[i] = &acc{stats: ColumnStats{Name: name}, min: math.Inf(1), max: math.Inf(-1)}
			}
		}
		rows++
		for i, a := range cols {
			a.stats.Count++
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				a.stats.Empty++
				continue
			}
			v := strings.TrimSpace(record[i])
			if len(a.stats.Sample) < 3 {
				a.stats.Sample = append(a.stats.Sample, v)
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				a.numbers++
				a.sum += f
				a.min = math.Min(a.min, f)
				a.max = math.Max(a.max, f)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	if cols == nil {
		out := make([]ColumnStats, len(header))
		for i, name := range header {
			out[i] = ColumnStats{Name: name}
		}
		return out, 0, nil
	}

	out := make([]ColumnStats, len(cols))
	for i, a := range cols {
		nonEmpty := a.stats.Count - a.stats.Empty
		if a.numbers > 0 && a.numbers == nonEmpty {
			mean := a.sum / float64(a.numbers)
			lo, hi := a.min, a.max
			a.stats.Numeric = true
			a.stats.Min, a.stats.Max, a.stats.Mean = &lo, &hi, &mean
		}
		out[i] = a.stats
	}
	return out, rows, nil
}

func columnIndex(header []string, name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

func clampRows(limit int) int {
	if limit <= 0 {
		return defaultCSVRows
	}
	if limit > maxCSVRows {
		return maxCSVRows
	}
	return limit
}

type csvReadTool struct{ csv *CSVTools }

func (t *csvReadTool) Descriptor() mcp.Tool {
	return mcp.NewTool("csv_read",
		mcp.WithDescription("Read the header and first rows of a CSV file in the workspace."),
		mcp.WithString("path", mcp.Required(), mcp.Description("CSV path relative to the workspace")),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to return (default 50, max 1000)")),
	)
}

func (t *csvReadTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *csvReadTool) Execute(ctx context.Context, args Args) (string, error) {
	table, err := t.csv.Read(ctx, args.String("path"), args.Int("limit", 0))
	if err != nil {
		return "", err
	}
	return jsonResult(table)
}

type csvFilterTool struct{ csv *CSVTools }

func (t *csvFilterTool) Descriptor() mcp.Tool {
	return mcp.NewTool("csv_filter",
		mcp.WithDescription("Return CSV rows where a column equals a value (case-insensitive)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("CSV path relative to the workspace")),
		mcp.WithString("column", mcp.Required(), mcp.Description("Column name from the header row")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to match")),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to return (default 50, max 1000)")),
	)
}

func (t *csvFilterTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *csvFilterTool) Execute(ctx context.Context, args Args) (string, error) {
	table, err := t.csv.Filter(ctx, args.String("path"), args.String("column"), args.String("value"), args.Int("limit", 0))
	if err != nil {
		return "", err
	}
	return jsonResult(table)
}

type csvDescribeTool struct{ csv *CSVTools }

func (t *csvDescribeTool) Descriptor() mcp.Tool {
	return mcp.NewTool("csv_describe",
		mcp.WithDescription("Summarize each column of a CSV file: counts, empty cells and numeric min/max/mean."),
		mcp.WithString("path", mcp.Required(), mcp.Description("CSV path relative to the workspace")),
	)
}

func (t *csvDescribeTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *csvDescribeTool) Execute(ctx context.Context, args Args) (string, error) {
	columns, rows, err := t.csv.Describe(ctx, args.String("path"))
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"rows": rows, "columns": columns})
}
