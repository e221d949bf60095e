// Package bigquery streams JSON formatted messages into a BigQuery table.
// Each top-level key of the message is written to the column of the same
// name.
package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/netsampler/sflowparser/transport"
)

var (
	ErrMissingTable   = errors.New("project, dataset and table are required")
	ErrNotInitialized = errors.New("transport not initialized")
)

type inserter interface {
	Put(ctx context.Context, src interface{}) error
}

type BigQueryDriver struct {
	bigQueryProjectID string
	bigQueryDatasetID string
	bigQueryTableID   string
	bigQueryJsonKey   string
	timeout           time.Duration

	client   *bigquery.Client
	inserter inserter
}

func (d *BigQueryDriver) Prepare() error {
	flag.StringVar(&d.bigQueryProjectID, "transport.bigquery.project", "", "BigQuery project ID")
	flag.StringVar(&d.bigQueryDatasetID, "transport.bigquery.dataset", "", "BigQuery dataset ID")
	flag.StringVar(&d.bigQueryTableID, "transport.bigquery.table", "", "BigQuery table ID")
	flag.StringVar(&d.bigQueryJsonKey, "transport.bigquery.jsonkey", "", "BigQuery JSON key file path (empty for default credentials)")
	flag.DurationVar(&d.timeout, "transport.bigquery.timeout", 10*time.Second, "Timeout of an insert")
	return nil
}

func (d *BigQueryDriver) Init() error {
	if d.bigQueryProjectID == "" || d.bigQueryDatasetID == "" || d.bigQueryTableID == "" {
		return ErrMissingTable
	}
	var opts []option.ClientOption
	if d.bigQueryJsonKey != "" {
		opts = append(opts, option.WithCredentialsFile(d.bigQueryJsonKey))
	}
	client, err := bigquery.NewClient(context.Background(), d.bigQueryProjectID, opts...)
	if err != nil {
		return fmt.Errorf("bigquery.NewClient: %w", err)
	}
	d.client = client
	d.inserter = client.Dataset(d.bigQueryDatasetID).Table(d.bigQueryTableID).Inserter()
	return nil
}

// row is a message decoded from JSON. Numbers keep their text form so
// 64 bit counters are not rounded.
type row map[string]interface{}

// Save disables best-effort de-duplication, which allows for higher throughput.
func (r row) Save() (map[string]bigquery.Value, string, error) {
	values := make(map[string]bigquery.Value, len(r))
	for k, v := range r {
		values[k] = v
	}
	return values, bigquery.NoDedupeID, nil
}

func decodeRow(data []byte) (row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r row
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("message is not a JSON object: %w", err)
	}
	return r, nil
}

func (d *BigQueryDriver) Send(key, data []byte) error {
	if d.inserter == nil {
		return ErrNotInitialized
	}
	r, err := decodeRow(data)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.inserter.Put(ctx, r)
}

func (d *BigQueryDriver) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

func init() {
	d := &BigQueryDriver{}
	transport.RegisterTransportDriver("bigquery", d)
}
