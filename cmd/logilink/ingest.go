package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/ingestion"
	"github.com/poiesic/logilink/storage"
	"github.com/urfave/cli/v2"
)

// expandInputs merges explicit paths with the files matched by pattern,
// dropping duplicates and keeping a stable order.
func expandInputs(paths []string, pattern string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, p := range paths {
		add(p)
	}
	if pattern != "" {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return files, nil
}

// readDocuments loads each file as one document. A single file may be
// renamed with name; otherwise the path is the document name.
func readDocuments(contractID core.ID, files []string, name string) ([]ingestion.Document, error) {
	if name != "" && len(files) > 1 {
		return nil, errors.New("--name applies to a single file")
	}
	docs := make([]ingestion.Document, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		docName := f
		if name != "" {
			docName = name
		}
		docs = append(docs, ingestion.Document{ContractID: contractID, Name: docName, Text: string(data)})
	}
	return docs, nil
}

func ingestCommand(c *cli.Context) error {
	files, err := expandInputs(c.Args().Slice(), c.String("glob"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no input files: pass paths or --glob")
	}
	docs, err := readDocuments(core.ID(c.Uint64("contract")), files, c.String("name"))
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

	results, err := pipeline.IngestAll(c.Context, docs)
	reportIngest(c.App.Writer, docs, results)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func reportIngest(w io.Writer, docs []ingestion.Document, results []*ingestion.Result) {
	for i, doc := range docs {
		res := results[i]
		if res == nil {
			fmt.Fprintf(w, "%s: not ingested\n", doc.Name)
			continue
		}
		fmt.Fprintf(w, "%s: %d/%d chunks\n", doc.Name, res.ChunksIngested(), res.Planned)
	}
}

func listContractsCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	contracts, err := rt.db.ContractRepository().ListContracts(c.Context)
	if err != nil {
		return err
	}
	return printContracts(c.App.Writer, contracts)
}

func printContracts(w io.Writer, contracts []*core.Contract) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tACTIVE\tORGANIZATION")
	for _, ct := range contracts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", ct.ID, ct.DocumentName, ct.Version, ct.Active, ct.OrganizationID)
	}
	return tw.Flush()
}

func addContractCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	contract, err := rt.db.ContractRepository().AddContract(c.Context, &core.Contract{
		OrganizationID: c.String("org"),
		DocumentName:   c.String("name"),
		Version:        c.String("version"),
		Active:         true,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created contract %d\n", contract.ID)
	return nil
}

func setContractActiveCommand(active bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		id, err := strconv.ParseUint(c.Args().First(), 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid contract id %q", c.Args().First())
		}

		rt, err := openRuntime(c)
		if err != nil {
			return err
		}
		defer rt.Close()

		return setContractActive(c.Context, rt.db.ContractRepository(), core.ID(id), active)
	}
}

func setContractActive(ctx context.Context, repo storage.ContractRepository, id core.ID, active bool) error {
	if err := repo.SetContractActive(ctx, id, active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("contract %d does not exist", id)
		}
		return err
	}
	return nil
}
