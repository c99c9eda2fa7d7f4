// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package warehouse reads area boundaries from the BigQuery warehouse.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/utils/httputils"
	"golang.org/x/oauth2/google"
	bigquery "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultPageSize = 500
	pollTimeoutMs   = 10_000
)

// DefaultTables returns the boundary tables of the warehouse for project.
func DefaultTables(project string) map[geo.Level]string {
	return map[geo.Level]string{
		geo.Department: project + ".clean.departements_geographie",
		geo.Region:     project + ".clean.region_geographie",
	}
}

// Options configures a BigQuerySource.
type Options struct {
	ProjectID string
	// Tables are fully qualified table names. Defaults to DefaultTables.
	Tables map[geo.Level]string
	// Layouts default to geo.DefaultLayouts.
	Layouts   map[geo.Level]geo.Layout
	Location  string
	PageSize  int64
	UserAgent string
	// TraceHTTP dumps the API traffic to stderr.
	TraceHTTP bool
}

// BigQuerySource implements geo.Source on top of the BigQuery REST API.
type BigQuerySource struct {
	service *bigquery.Service
	opts    Options
}

// NewBigQuerySource authenticates with Application Default Credentials.
func NewBigQuerySource(ctx context.Context, opts Options) (*BigQuerySource, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("warehouse: project id is required")
	}

	client, err := google.DefaultClient(ctx, bigquery.BigqueryScope)
	if err != nil {
		return nil, fmt.Errorf("warehouse: finding default credentials: %w", err)
	}

	client.Transport = wrapTransport(client.Transport, opts)

	service, err := bigquery.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("warehouse: creating bigquery client: %w", err)
	}

	return NewBigQuerySourceWithService(service, opts), nil
}

// NewBigQuerySourceWithService uses an already configured service.
func NewBigQuerySourceWithService(service *bigquery.Service, opts Options) *BigQuerySource {
	if opts.Tables == nil {
		opts.Tables = DefaultTables(opts.ProjectID)
	}

	if opts.Layouts == nil {
		opts.Layouts = geo.DefaultLayouts
	}

	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}

	return &BigQuerySource{service: service, opts: opts}
}

func wrapTransport(transport http.RoundTripper, opts Options) http.RoundTripper {
	if opts.UserAgent != "" {
		transport = &httputils.AppendRequestHeadersRoundTripper{
			Transport: transport,
			Headers:   map[string]string{"User-Agent": opts.UserAgent},
		}
	}

	if opts.TraceHTTP {
		transport = &httputils.LoggingRoundTripper{
			Transport: transport,
			Writer:    os.Stderr,
			DumpBody:  true,
		}
	}

	return transport
}

// Query returns the statement used to read the areas of level.
func (s *BigQuerySource) Query(level geo.Level) (string, error) {
	table, ok := s.opts.Tables[level]
	if !ok || table == "" {
		return "", fmt.Errorf("warehouse: no table configured for %s", level)
	}

	layout, ok := s.opts.Layouts[level]
	if !ok {
		layout = geo.DefaultLayouts[level]
	}

	return fmt.Sprintf("SELECT `%s`, `%s` FROM `%s`", layout.GeometryColumn, layout.NameColumn, table), nil
}

// Areas implements geo.Source.
func (s *BigQuerySource) Areas(ctx context.Context, level geo.Level) ([]*geo.Area, error) {
	query, err := s.Query(level)
	if err != nil {
		return nil, err
	}

	layout, ok := s.opts.Layouts[level]
	if !ok {
		layout = geo.DefaultLayouts[level]
	}

	source := s.opts.Tables[level]

	resp, err := s.service.Jobs.Query(s.opts.ProjectID, &bigquery.QueryRequest{
		Query:        query,
		UseLegacySql: googleapi.Bool(false),
		MaxResults:   s.opts.PageSize,
		Location:     s.opts.Location,
		TimeoutMs:    pollTimeoutMs,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("warehouse: querying %s: %w", source, err)
	}

	page := &resultPage{
		complete:  resp.JobComplete,
		token:     resp.PageToken,
		rows:      resp.Rows,
		schema:    resp.Schema,
		totalRows: resp.TotalRows,
	}

	var jobID, location string
	if resp.JobReference != nil {
		jobID, location = resp.JobReference.JobId, resp.JobReference.Location
	}

	var (
		bar  *progressbar.ProgressBar
		ret  []*geo.Area
		cols columns
	)

	for {
		if page.complete {
			if cols == nil {
				if cols, err = newColumns(page.schema, layout); err != nil {
					return nil, &geo.LoadError{Source: source, Err: err}
				}
			}

			if bar == nil && page.totalRows > 0 && isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progressbar.NewOptions64(int64(page.totalRows),
					progressbar.OptionSetDescription("Fetching "+string(level)),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			for _, row := range page.rows {
				name, wkt := cols.values(row)

				area, err := geo.NewArea(level, name, wkt)
				if err != nil {
					return nil, &geo.LoadError{Source: source, Row: len(ret) + 1, Name: name, Err: err}
				}

				ret = append(ret, area)
			}

			if bar != nil {
				_ = bar.Add(len(page.rows))
			}

			if page.token == "" {
				break
			}
		}

		if jobID == "" {
			return nil, fmt.Errorf("warehouse: querying %s: missing job reference", source)
		}

		page, err = s.nextPage(ctx, jobID, location, page.token)
		if err != nil {
			return nil, fmt.Errorf("warehouse: reading results of %s: %w", source, err)
		}
	}

	log.Printf("Fetched %d %s from %s", len(ret), level, source)

	return ret, nil
}

type resultPage struct {
	complete  bool
	token     string
	rows      []*bigquery.TableRow
	schema    *bigquery.TableSchema
	totalRows uint64
}

func (s *BigQuerySource) nextPage(ctx context.Context, jobID, location, token string) (*resultPage, error) {
	call := s.service.Jobs.GetQueryResults(s.opts.ProjectID, jobID).
		MaxResults(s.opts.PageSize).
		TimeoutMs(pollTimeoutMs).
		Context(ctx)

	if location != "" {
		call = call.Location(location)
	}

	if token != "" {
		call = call.PageToken(token)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, err
	}

	return &resultPage{
		complete:  resp.JobComplete,
		token:     resp.PageToken,
		rows:      resp.Rows,
		schema:    resp.Schema,
		totalRows: resp.TotalRows,
	}, nil
}

// columns holds the cell positions of the name and the geometry.
type columns []int

func newColumns(schema *bigquery.TableSchema, layout geo.Layout) (columns, error) {
	if schema == nil {
		return nil, errors.New("result has no schema")
	}

	name, geometry := -1, -1

	for i, f := range schema.Fields {
		switch f.Name {
		case layout.NameColumn:
			name = i
		case layout.GeometryColumn:
			geometry = i
		}
	}

	if name < 0 {
		return nil, fmt.Errorf("%w %q", geo.ErrMissingColumn, layout.NameColumn)
	}

	if geometry < 0 {
		return nil, fmt.Errorf("%w %q", geo.ErrMissingColumn, layout.GeometryColumn)
	}

	return columns{name, geometry}, nil
}

func (c columns) values(row *bigquery.TableRow) (name, wkt string) {
	return cell(row, c[0]), cell(row, c[1])
}

func cell(row *bigquery.TableRow, i int) string {
	if row == nil || i >= len(row.F) || row.F[i] == nil {
		return ""
	}

	if s, ok := row.F[i].V.(string); ok {
		return s
	}

	return ""
}
