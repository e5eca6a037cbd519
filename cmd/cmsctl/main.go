// Command cmsctl administers the CMS record store from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/karunyatrust/cms/internal/config"
	"github.com/karunyatrust/cms/internal/records"
	"github.com/karunyatrust/cms/pkg/logger"
)

// openStore loads the service configuration and opens the configured record store.
func openStore(ctx context.Context) (*config.Config, *records.Collections, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	clients, closeClients, err := records.Dial(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	store, closeStore, err := records.Open(ctx, cfg, clients)
	if err != nil {
		closeClients()
		return nil, nil, nil, err
	}
	return cfg, records.NewCollections(store), func() {
		_ = closeStore()
		closeClients()
	}, nil
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	if err := newRootCommand(openStore).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
