package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/shopspring/decimal"

	"github.com/rpetrillo/spendsplit/internal/models"
)

// ArchiveService keeps a per-month archive of parsed transactions in Table
// Storage, partitioned by month. Re-uploading a sheet upserts the same
// entities, so the archive stays one row per transaction and feeds the
// monthly re-report trigger.
type ArchiveService struct {
	serviceClient *aztables.ServiceClient
	table         string
}

// NewArchiveService builds a client from TABLE_SERVICE_URL and ensures the
// transactions table exists.
func NewArchiveService() (*ArchiveService, error) {
	serviceURL := os.Getenv("TABLE_SERVICE_URL")
	if serviceURL == "" {
		return nil, fmt.Errorf("TABLE_SERVICE_URL environment variable is required")
	}

	table := os.Getenv("TRANSACTIONS_TABLE")
	if table == "" {
		table = "transactions"
	}

	var client *aztables.ServiceClient
	if isLocalEndpoint(serviceURL) {
		name, key := azuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table client with shared key: %w", err)
		}
	} else {
		cred, err := newTokenCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table client: %w", err)
		}
	}

	svc := &ArchiveService{serviceClient: client, table: table}
	if err := svc.ensureTable(context.Background()); err != nil {
		return nil, err
	}

	slog.Info("archive service initialized", "service_url", serviceURL, "table", table)
	return svc, nil
}

func (s *ArchiveService) ensureTable(ctx context.Context) error {
	_, err := s.serviceClient.CreateTable(ctx, s.table, nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

func partitionKey(t models.Transaction) string {
	return "month_" + t.Date.Format("2006-01")
}

// rowSignature identifies a transaction by date, payee, amount and account.
// Category and ignore flag are mutable in the source sheet, so they stay out
// of the identity; re-classified rows keep their key and get upserted.
func rowSignature(t models.Transaction) string {
	return fmt.Sprintf("%s|%s|%s|%d",
		t.Date.Format(models.DateFormat), t.Name, t.Amount.String(), t.AccountNumber)
}

// rowKey derives a deterministic key from the row signature plus an
// occurrence index, so identical rows within a batch stay distinct while
// re-uploads of the same sheet collide with the archived copy.
func rowKey(t models.Transaction, occurrence int) string {
	sig := fmt.Sprintf("%s|%d", rowSignature(t), occurrence)
	sum := sha256.Sum256([]byte(sig))
	return hex.EncodeToString(sum[:])
}

// SaveTransactions upserts a batch into the archive and returns the subset
// that was not already archived.
func (s *ArchiveService) SaveTransactions(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error) {
	if len(transactions) == 0 {
		return []models.Transaction{}, nil
	}

	client := s.serviceClient.NewClient(s.table)

	partitions := make(map[string][]models.Transaction)
	for _, t := range transactions {
		pk := partitionKey(t)
		partitions[pk] = append(partitions[pk], t)
	}

	newTransactions := []models.Transaction{}
	importedAt := time.Now().Format(time.RFC3339)

	for pk, batch := range partitions {
		existing, err := s.existingRowKeys(ctx, client, pk)
		if err != nil {
			return nil, err
		}

		actions, added := archiveActions(pk, batch, existing, importedAt)
		newTransactions = append(newTransactions, added...)

		// Table transactions accept at most 100 actions.
		const batchSize = 100
		for i := 0; i < len(actions); i += batchSize {
			end := min(i+batchSize, len(actions))
			if _, err := client.SubmitTransaction(ctx, actions[i:end], nil); err != nil {
				return nil, fmt.Errorf("failed to archive batch for %s: %w", pk, err)
			}
		}
	}

	slog.Info("archived transactions", "total", len(transactions), "new", len(newTransactions))
	return newTransactions, nil
}

// archiveActions builds one InsertReplace per row. Every row is upserted,
// including already-archived ones, so a re-upload with a corrected category
// or ignore flag overwrites the stale entity. The second return value is the
// subset whose keys were not yet in the archive.
func archiveActions(pk string, batch []models.Transaction, existing map[string]bool, importedAt string) ([]aztables.TransactionAction, []models.Transaction) {
	occurrences := make(map[string]int)
	var actions []aztables.TransactionAction
	var added []models.Transaction

	for _, t := range batch {
		sig := rowSignature(t)
		rk := rowKey(t, occurrences[sig])
		occurrences[sig]++

		if !existing[rk] {
			added = append(added, t)
		}

		entity := map[string]any{
			"PartitionKey":  pk,
			"RowKey":        rk,
			"Date":          t.Date.Format(models.DateFormat),
			"Name":          t.Name,
			"Amount":        t.Amount.InexactFloat64(),
			"AccountNumber": t.AccountNumber,
			"Category":      string(t.Category),
			"IgnoredFrom":   string(t.Ignore),
			"ImportedAt":    importedAt,
		}
		entityJSON, _ := json.Marshal(entity)
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     entityJSON,
		})
	}

	return actions, added
}

func (s *ArchiveService) existingRowKeys(ctx context.Context, client *aztables.Client, pk string) (map[string]bool, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", pk)
	selectFields := "RowKey"
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
		Select: &selectFields,
	})

	keys := make(map[string]bool)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list archived transactions: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				continue
			}
			if rk, ok := parsed["RowKey"].(string); ok {
				keys[rk] = true
			}
		}
	}
	return keys, nil
}

// ListTransactions returns the archived transactions for a month given as
// YYYY-MM, in no particular order.
func (s *ArchiveService) ListTransactions(ctx context.Context, month string) ([]models.Transaction, error) {
	client := s.serviceClient.NewClient(s.table)

	filter := fmt.Sprintf("PartitionKey eq 'month_%s'", month)
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
	})

	var transactions []models.Transaction
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list archived transactions: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				continue
			}

			t, err := entityToTransaction(parsed)
			if err != nil {
				slog.Warn("skipping malformed archive entity", "error", err)
				continue
			}
			transactions = append(transactions, t)
		}
	}

	return transactions, nil
}

func entityToTransaction(entity map[string]any) (models.Transaction, error) {
	dateStr, _ := entity["Date"].(string)
	date, err := time.Parse(models.DateFormat, dateStr)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid archived Date %q", dateStr)
	}

	name, _ := entity["Name"].(string)

	amount := decimal.Zero
	if v, ok := entity["Amount"].(float64); ok {
		amount = decimal.NewFromFloat(v)
	}

	accountNumber := 0
	if v, ok := entity["AccountNumber"].(float64); ok {
		accountNumber = int(v)
	}

	category, _ := entity["Category"].(string)
	ignoredFrom, _ := entity["IgnoredFrom"].(string)

	return models.Transaction{
		Date:          date,
		Name:          name,
		AccountNumber: accountNumber,
		Amount:        amount,
		Category:      models.Category(category),
		Ignore:        models.IgnoredFrom(ignoredFrom),
	}, nil
}
