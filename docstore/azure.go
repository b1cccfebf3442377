package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
)

const dataProperty = "Data"

func tableClientOptions() *aztables.ClientOptions {
	return &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
}

// azureTable is a Table backed by an Azure Storage table.
type azureTable struct {
	client *aztables.Client
}

func (t *azureTable) Insert(ctx context.Context, row Row) error {
	payload, err := encodeEntity(row)
	if err != nil {
		return err
	}
	_, err = t.client.AddEntity(ctx, payload, nil)
	return mapResponseError(err)
}

func (t *azureTable) Replace(ctx context.Context, row Row) error {
	payload, err := encodeEntity(row)
	if err != nil {
		return err
	}
	_, err = t.client.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return mapResponseError(err)
}

func (t *azureTable) Delete(ctx context.Context, partitionKey, rowKey string) error {
	_, err := t.client.DeleteEntity(ctx, partitionKey, rowKey, nil)
	if err = mapResponseError(err); errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (t *azureTable) Get(ctx context.Context, partitionKey, rowKey string) (Row, error) {
	resp, err := t.client.GetEntity(ctx, partitionKey, rowKey, nil)
	if err != nil {
		return Row{}, mapResponseError(err)
	}
	return decodeEntity(resp.Value)
}

func (t *azureTable) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	opts := &aztables.ListEntitiesOptions{}
	if filter := q.Filter(); filter != "" {
		opts.Filter = &filter
	}
	if q.Limit > 0 {
		top := int32(q.Limit)
		opts.Top = &top
	}
	pager := t.client.NewListEntitiesPager(opts)
	rows := []Row{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapResponseError(err)
		}
		for _, e := range resp.Entities {
			row, err := decodeEntity(e)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
			if q.Limit > 0 && len(rows) == q.Limit {
				return rows, nil
			}
		}
	}
	return rows, nil
}

// Create creates the table, tolerating an existing one.
func (t *azureTable) Create(ctx context.Context) error {
	_, err := t.client.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

func mapResponseError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusConflict:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}

func encodeEntity(row Row) ([]byte, error) {
	ent := make(map[string]any, len(row.Properties)+3)
	for k, v := range row.Properties {
		if reserved(k) {
			return nil, fmt.Errorf("property %q is reserved", k)
		}
		ent[k] = v
	}
	ent["PartitionKey"] = row.PartitionKey
	ent["RowKey"] = row.RowKey
	ent[dataProperty] = string(row.Data)
	return sonic.Marshal(ent)
}

func decodeEntity(payload []byte) (Row, error) {
	var raw map[string]any
	if err := sonic.Unmarshal(payload, &raw); err != nil {
		return Row{}, fmt.Errorf("decode entity: %w", err)
	}
	row := Row{Properties: map[string]string{}}
	row.PartitionKey, _ = raw["PartitionKey"].(string)
	row.RowKey, _ = raw["RowKey"].(string)
	if data, ok := raw[dataProperty].(string); ok {
		row.Data = []byte(data)
	}
	for k, v := range raw {
		if reserved(k) {
			continue
		}
		if s, ok := v.(string); ok {
			row.Properties[k] = s
		}
	}
	return row, nil
}

func reserved(name string) bool {
	switch name {
	case "PartitionKey", "RowKey", "Timestamp", dataProperty:
		return true
	}
	return strings.Contains(name, "odata.")
}
