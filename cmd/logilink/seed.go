package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/ingestion"
	"github.com/poiesic/logilink/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedDocument struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

type seedContract struct {
	core.Contract `yaml:",inline"`
	Documents     []seedDocument `yaml:"documents"`
}

type seedFile struct {
	Contracts []seedContract       `yaml:"contracts"`
	Shipments []core.Shipment      `yaml:"shipments"`
	Events    []core.TrackingEvent `yaml:"events"`
}

// seedReport counts what a seed run wrote. Records that already existed are
// counted as skipped.
type seedReport struct {
	Contracts int
	Documents int
	Shipments int
	Events    int
	Skipped   int
}

func parseSeed(data []byte) (*seedFile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// applySeed writes the seed. It can be rerun: existing contracts, events and
// documents are skipped and shipments are replaced.
func applySeed(
	ctx context.Context,
	contracts storage.ContractRepository,
	shipments storage.ShipmentRepository,
	ingester documentIngester,
	seed *seedFile,
) (*seedReport, error) {
	report := &seedReport{}

	for i := range seed.Contracts {
		sc := seed.Contracts[i]
		contract := sc.Contract
		if _, err := contracts.AddContract(ctx, &contract); err != nil {
			if !errors.Is(err, storage.ErrDuplicateKey) {
				return report, fmt.Errorf("contract %q: %w", sc.DocumentName, err)
			}
			report.Skipped++
		} else {
			report.Contracts++
		}

		for _, doc := range sc.Documents {
			_, err := ingester.Ingest(ctx, contract.ID, doc.Name, doc.Text)
			switch {
			case errors.Is(err, ingestion.ErrDuplicateDocument):
				report.Skipped++
			case err != nil:
				return report, fmt.Errorf("document %q: %w", doc.Name, err)
			default:
				report.Documents++
			}
		}
	}

	for i := range seed.Shipments {
		shipment := seed.Shipments[i]
		if _, err := shipments.PutShipment(ctx, &shipment); err != nil {
			return report, fmt.Errorf("shipment %d: %w", shipment.ID, err)
		}
		report.Shipments++
	}

	for i := range seed.Events {
		event := seed.Events[i]
		if _, err := shipments.AddEvents(ctx, &event); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				report.Skipped++
				continue
			}
			return report, fmt.Errorf("event %d: %w", event.ID, err)
		}
		report.Events++
	}

	return report, nil
}

func seedCommand(c *cli.Context) error {
	data := defaultSeed
	if path := c.String("file"); path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return err
		}
	}
	seed, err := parseSeed(data)
	if err != nil {
		return err
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	pipeline, err := rt.newPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	report, err := applySeed(c.Context, rt.db.ContractRepository(), rt.db.ShipmentRepository(), pipeline, seed)
	if err != nil {
		return err
	}
	rt.logger.Info("seed applied",
		"contracts", report.Contracts,
		"documents", report.Documents,
		"shipments", report.Shipments,
		"events", report.Events,
		"skipped", report.Skipped,
	)
	return nil
}
