// Package cosmos connects to Azure Cosmos DB and provisions the database and
// containers the service expects.
package cosmos

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"go.uber.org/zap"
)

// PartitionKeyPath is shared by every container: documents are partitioned by id.
const PartitionKeyPath = "/id"

// Options configures Connect.
type Options struct {
	ConnectionString string
	// UseEmulator skips TLS verification so the local emulator's
	// self-signed certificate is accepted.
	UseEmulator bool
}

// Connect builds a Cosmos client from a connection string.
func Connect(opts Options) (*azcosmos.Client, error) {
	if opts.ConnectionString == "" {
		return nil, errors.New("cosmos connection string setting not configured")
	}

	clientOpts := &azcosmos.ClientOptions{}
	if opts.UseEmulator {
		clientOpts.Transport = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // emulator only
			},
		}
	}

	client, err := azcosmos.NewClientFromConnectionString(opts.ConnectionString, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("creating cosmos client: %w", err)
	}
	return client, nil
}

// Provision creates the database with manual throughput and each container,
// skipping any that already exist.
func Provision(ctx context.Context, client *azcosmos.Client, database string, throughput int32, containers []string, log *zap.Logger) error {
	tp := azcosmos.NewManualThroughputProperties(throughput)
	_, err := client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: database}, &azcosmos.CreateDatabaseOptions{
		ThroughputProperties: &tp,
	})
	if err != nil && !IsStatus(err, http.StatusConflict) {
		return fmt.Errorf("creating database %s: %w", database, err)
	}
	log.Info("cosmos database ready", zap.String("database", database))

	db, err := client.NewDatabase(database)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", database, err)
	}

	for _, id := range containers {
		_, err := db.CreateContainer(ctx, azcosmos.ContainerProperties{
			ID: id,
			PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
				Paths: []string{PartitionKeyPath},
			},
		}, nil)
		if err != nil && !IsStatus(err, http.StatusConflict) {
			return fmt.Errorf("creating container %s: %w", id, err)
		}
		log.Info("cosmos container ready", zap.String("container", id))
	}
	return nil
}

// IsStatus reports whether err is a Cosmos response error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}
