// Package knowledge looks up merchant reference data used to explain charges.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
)

// MerchantInfo is the indexed description of a merchant.
type MerchantInfo struct {
	Name         string   `json:"name"`
	Category     string   `json:"category,omitempty"`
	Description  string   `json:"description,omitempty"`
	Website      string   `json:"website,omitempty"`
	SupportPhone string   `json:"support_phone,omitempty"`
	Descriptors  []string `json:"descriptors,omitempty"`
}

// MerchantLookup resolves a statement descriptor to merchant details. A nil
// result with a nil error means the merchant is unknown.
type MerchantLookup interface {
	LookupMerchant(ctx context.Context, merchantName string) (*MerchantInfo, error)
}

// Elasticsearch searches a merchants index by name and statement descriptor.
type Elasticsearch struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
	logger  logger.Logger
}

func NewElasticsearch(client *elasticsearch.Client, index string, timeout time.Duration, log logger.Logger) *Elasticsearch {
	return &Elasticsearch{
		client:  client,
		index:   index,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "knowledge", "index": index}),
	}
}

func buildMerchantQuery(merchantName string) map[string]interface{} {
	return map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  merchantName,
				"fields": []string{"name^3", "descriptors"},
			},
		},
	}
}

func (e *Elasticsearch) LookupMerchant(ctx context.Context, merchantName string) (*MerchantInfo, error) {
	if strings.TrimSpace(merchantName) == "" {
		return nil, nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	body, err := json.Marshal(buildMerchantQuery(merchantName))
	if err != nil {
		return nil, apperrors.NewKnowledgeLookupError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewTimeoutError("elasticsearch", err)
		}
		return nil, apperrors.NewKnowledgeLookupError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		e.logger.Warn("merchant index missing", nil)
		return nil, nil
	}
	if res.IsError() {
		return nil, apperrors.NewKnowledgeLookupError(fmt.Errorf("search query failed: %s", res.Status()))
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source MerchantInfo `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewKnowledgeLookupError(err)
	}
	if len(r.Hits.Hits) == 0 {
		return nil, nil
	}

	info := r.Hits.Hits[0].Source
	return &info, nil
}
