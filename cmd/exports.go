package main

import (
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hotleads/internal/export"
	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/secrets"
	"github.com/sells-group/hotleads/pkg/notion"
)

func writeCSVFile(path string, snap model.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := export.WriteCSV(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func readCSVFile(path string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return export.ReadCSV(f)
}

// newNotionExporter resolves the integration token from config or the OS
// keychain.
func newNotionExporter() (*export.NotionExporter, error) {
	if err := cfg.Validate("notion"); err != nil {
		return nil, err
	}
	token, err := secrets.NotionToken(cfg.Notion.Token)
	if err != nil {
		return nil, eris.Wrap(err, "notion token (set HOTLEADS_NOTION_TOKEN or run `hotleads notion-token set`)")
	}
	return export.NewNotionExporter(notion.NewClient(token), cfg.Notion.ParentPageID), nil
}
