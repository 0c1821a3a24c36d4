package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/inkwell/pkg/entities"
)

// Config holds configuration for the Elasticsearch archive
type Config struct {
	Addresses       []string
	Username        string
	Password        string
	IndexPrefix     string
	RetentionPeriod time.Duration // How long archived documents stay queryable
	RotationPeriod  time.Duration // How often a fresh monthly index is cut
}

// DefaultConfig returns the default archive configuration
func DefaultConfig() *Config {
	return &Config{
		Addresses:       []string{"http://localhost:9200"},
		IndexPrefix:     "inkwell",
		RetentionPeriod: 90 * 24 * time.Hour,
		RotationPeriod:  30 * 24 * time.Hour,
	}
}

// Archive ships transactions and reading sessions to Elasticsearch for
// long-term analytics. SQLite stays the source of truth; a failed archive
// write never fails the operation that produced the document.
type Archive struct {
	client       *elasticsearch.Client
	config       *Config
	indexPrefix  string
	currentIndex string
	lastRotation time.Time
	mu           sync.Mutex
}

// ReadingSessionDoc is the archived shape of a single reading session
type ReadingSessionDoc struct {
	UserID      string    `json:"user_id"`
	BookID      string    `json:"book_id"`
	MinutesRead int64     `json:"minutes_read"`
	Chapter     int       `json:"chapter"`
	ReadAt      time.Time `json:"read_at"`
}

// TransactionDoc is the archived shape of a ledger transaction
type TransactionDoc struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"kind"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	BalanceAfter int64     `json:"balance_after"`
	Timestamp    time.Time `json:"timestamp"`
}

// New creates a new archive backed by Elasticsearch
func New(config *Config) (*Archive, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
	}

	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if config.IndexPrefix == "" {
		config.IndexPrefix = "inkwell"
	}
	if config.RetentionPeriod == 0 {
		config.RetentionPeriod = 90 * 24 * time.Hour
	}
	if config.RotationPeriod == 0 {
		config.RotationPeriod = 30 * 24 * time.Hour
	}

	a := &Archive{
		client:       client,
		config:       config,
		indexPrefix:  config.IndexPrefix,
		lastRotation: time.Now(),
	}

	ctx := context.Background()
	if err := a.initIndices(ctx); err != nil {
		return nil, fmt.Errorf("error initializing indices: %w", err)
	}

	return a, nil
}

// currentMonthIndex builds the monthly index name for a prefix
func (a *Archive) currentMonthIndex(kind string) string {
	return fmt.Sprintf("%s_%s_%s", a.indexPrefix, kind, time.Now().UTC().Format("2006-01"))
}

// initIndices creates the current monthly indices if they don't exist
func (a *Archive) initIndices(ctx context.Context) error {
	transactionMapping := `{
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"user_id": { "type": "keyword" },
				"amount": { "type": "long" },
				"kind": { "type": "keyword" },
				"reference_id": { "type": "keyword" },
				"description": { "type": "text" },
				"balance_after": { "type": "long" },
				"timestamp": { "type": "date" }
			}
		}
	}`

	sessionMapping := `{
		"mappings": {
			"properties": {
				"user_id": { "type": "keyword" },
				"book_id": { "type": "keyword" },
				"minutes_read": { "type": "long" },
				"chapter": { "type": "integer" },
				"read_at": { "type": "date" }
			}
		}
	}`

	for kind, mapping := range map[string]string{
		"transactions": transactionMapping,
		"sessions":     sessionMapping,
	} {
		index := a.currentMonthIndex(kind)

		res, err := a.client.Indices.Exists([]string{index})
		if err != nil {
			return fmt.Errorf("error checking if index %s exists: %w", index, err)
		}
		res.Body.Close()

		if res.StatusCode == 404 {
			req := esapi.IndicesCreateRequest{
				Index: index,
				Body:  bytes.NewReader([]byte(mapping)),
			}

			res, err := req.Do(ctx, a.client)
			if err != nil {
				return fmt.Errorf("error creating index %s: %w", index, err)
			}
			res.Body.Close()

			if res.IsError() {
				return fmt.Errorf("error creating index %s: %s", index, res.String())
			}
		}
	}

	a.currentIndex = a.currentMonthIndex("transactions")
	return nil
}

// rotateIfDue cuts fresh monthly indices once the rotation period elapses
func (a *Archive) rotateIfDue(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if time.Since(a.lastRotation) < a.config.RotationPeriod {
		return nil
	}

	if err := a.initIndices(ctx); err != nil {
		return err
	}

	a.lastRotation = time.Now()
	return nil
}

func (a *Archive) indexDocument(ctx context.Context, index string, doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling document: %w", err)
	}

	res, err := a.client.Index(
		index,
		bytes.NewReader(jsonData),
		a.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("error indexing document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// IndexTransaction archives a ledger transaction
func (a *Archive) IndexTransaction(ctx context.Context, transaction *entities.Transaction) error {
	if err := a.rotateIfDue(ctx); err != nil {
		return fmt.Errorf("error rotating indices: %w", err)
	}

	doc := TransactionDoc{
		ID:           transaction.ID,
		UserID:       transaction.UserID,
		Amount:       transaction.Amount,
		Kind:         string(transaction.Type),
		ReferenceID:  transaction.ReferenceID,
		Description:  transaction.Description,
		BalanceAfter: transaction.BalanceAfter,
		Timestamp:    transaction.Timestamp,
	}

	return a.indexDocument(ctx, a.currentMonthIndex("transactions"), doc)
}

// IndexReadingSession archives a reading session
func (a *Archive) IndexReadingSession(ctx context.Context, doc *ReadingSessionDoc) error {
	if err := a.rotateIfDue(ctx); err != nil {
		return fmt.Errorf("error rotating indices: %w", err)
	}

	return a.indexDocument(ctx, a.currentMonthIndex("sessions"), doc)
}

// RotateIndices forces an index rotation check
func (a *Archive) RotateIndices(ctx context.Context) error {
	return a.rotateIfDue(ctx)
}

// PruneOldIndices deletes monthly indices older than the retention period
func (a *Archive) PruneOldIndices(ctx context.Context) error {
	pattern := a.indexPrefix + "_*"
	res, err := a.client.Indices.Get(
		[]string{pattern},
		a.client.Indices.Get.WithContext(ctx),
		a.client.Indices.Get.WithExpandWildcards("open"),
	)
	if err != nil {
		return fmt.Errorf("error getting indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error getting indices: %s", res.String())
	}

	var indicesInfo map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&indicesInfo); err != nil {
		return fmt.Errorf("error parsing indices response: %w", err)
	}

	cutoffDate := time.Now().Add(-a.config.RetentionPeriod)

	for indexName := range indicesInfo {
		parts := strings.Split(indexName, "_")
		if len(parts) < 3 {
			continue
		}

		dateStr := parts[len(parts)-1]
		indexDate, err := time.Parse("2006-01", dateStr)
		if err != nil {
			continue // Not a monthly index
		}

		if indexDate.Before(cutoffDate) {
			log.Printf("Pruning archive index %s (older than retention period of %v)", indexName, a.config.RetentionPeriod)

			req := esapi.IndicesDeleteRequest{
				Index: []string{indexName},
			}

			res, err := req.Do(ctx, a.client)
			if err != nil {
				log.Printf("Error deleting index %s: %v", indexName, err)
				continue
			}
			res.Body.Close()

			if res.IsError() {
				log.Printf("Error deleting index %s: %s", indexName, res.String())
			}
		}
	}

	return nil
}

// Close is a no-op; the underlying HTTP client needs no teardown
func (a *Archive) Close() error {
	return nil
}
