package export

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/pkg/notion"
)

// colRow orders pages when reading a database back.
const colRow = "Row"

// NotionExporter publishes snapshots as Notion databases under a parent page.
type NotionExporter struct {
	client   notion.Client
	parentID string
	now      func() time.Time
}

// NewNotionExporter creates an exporter writing under parentPageID.
func NewNotionExporter(c notion.Client, parentPageID string) *NotionExporter {
	return &NotionExporter{client: c, parentID: parentPageID, now: time.Now}
}

// Schema is the database layout for a lead table.
func Schema() notionapi.PropertyConfigs {
	options := make([]notionapi.Option, len(model.Outcomes))
	for i, o := range model.Outcomes {
		options[i] = notionapi.Option{Name: string(o)}
	}
	return notionapi.PropertyConfigs{
		ColName:        notionapi.TitlePropertyConfig{Type: notionapi.PropertyConfigTypeTitle},
		ColID:          notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		colRow:         notionapi.NumberPropertyConfig{Type: notionapi.PropertyConfigTypeNumber, Number: notionapi.NumberFormat{Format: notionapi.FormatNumber}},
		ColAddress:     notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		ColPhone:       notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		ColContactAlt:  notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		ColOpeningDate: notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		ColDaysSince:   notionapi.NumberPropertyConfig{Type: notionapi.PropertyConfigTypeNumber, Number: notionapi.NumberFormat{Format: notionapi.FormatNumber}},
		ColScore:       notionapi.NumberPropertyConfig{Type: notionapi.PropertyConfigTypeNumber, Number: notionapi.NumberFormat{Format: notionapi.FormatNumber}},
		ColDemoLink:    notionapi.URLPropertyConfig{Type: notionapi.PropertyConfigTypeURL},
		ColOutcome:     notionapi.SelectPropertyConfig{Type: notionapi.PropertyConfigTypeSelect, Select: notionapi.Select{Options: options}},
	}
}

func leadProperties(row int, l model.Lead) notionapi.Properties {
	outcome := l.Outcome
	if outcome == "" {
		outcome = model.OutcomeUncalled
	}
	props := notionapi.Properties{
		ColName:        notion.Title(l.Name),
		ColID:          notion.Text(l.ID),
		colRow:         notion.Number(float64(row)),
		ColAddress:     notion.Text(l.Address),
		ColPhone:       notion.Text(l.Phone),
		ColContactAlt:  notion.Text(l.ContactAlt),
		ColOpeningDate: notion.Text(l.OpeningDate),
		ColDaysSince:   notion.Number(float64(l.DaysSinceOpening)),
		ColScore:       notion.Number(float64(l.Score)),
		ColOutcome:     notion.Select(string(outcome)),
	}
	if l.DemoLink != "" {
		props[ColDemoLink] = notion.URL(l.DemoLink)
	}
	return props
}

// Export creates a database titled snap.Title and adds one page per lead in
// row order. It returns the database URL and ID.
func (e *NotionExporter) Export(ctx context.Context, snap model.Snapshot) (url, dbID string, err error) {
	if e.parentID == "" {
		return "", "", eris.New("export: notion parent page is not configured")
	}

	title := snap.Title(e.now())
	db, err := notion.CreateDatabaseUnderPage(ctx, e.client, e.parentID, title, Schema())
	if err != nil {
		return "", "", eris.Wrap(err, "export: notion")
	}
	dbID = string(db.ID)

	for i, l := range snap.Leads {
		if _, err := notion.AddRow(ctx, e.client, dbID, leadProperties(i, l)); err != nil {
			return db.URL, dbID, eris.Wrapf(err, "export: notion row %d (%s)", i, l.ID)
		}
	}

	zap.L().Info("export: notion database created",
		zap.String("title", title),
		zap.String("url", db.URL),
		zap.Int("rows", len(snap.Leads)),
	)
	return db.URL, dbID, nil
}

// ReadOutcomes reads the Call Outcome column of a database created by
// Export and applies it to a copy of base by lead ID. Leads missing from the
// database keep their outcome from base.
func (e *NotionExporter) ReadOutcomes(ctx context.Context, dbID string, base model.Snapshot) (model.Snapshot, error) {
	pages, err := notion.QueryAll(ctx, e.client, dbID, &notionapi.DatabaseQueryRequest{
		Sorts:    []notionapi.SortObject{{Property: colRow, Direction: notionapi.SortOrderASC}},
		PageSize: 100,
	})
	if err != nil {
		return model.Snapshot{}, eris.Wrap(err, "export: read notion outcomes")
	}

	edited := make(map[string]model.Outcome, len(pages))
	for _, p := range pages {
		id := notion.TextValue(p.Properties[ColID])
		if id == "" {
			continue
		}
		o, err := model.ParseOutcome(notion.SelectValue(p.Properties[ColOutcome]))
		if err != nil {
			zap.L().Warn("export: skipping notion row with unknown outcome",
				zap.String("lead_id", id), zap.Error(err))
			continue
		}
		edited[id] = o
	}

	out := base.Clone()
	for i, l := range out.Leads {
		if o, ok := edited[l.ID]; ok {
			out.Leads[i].Outcome = o
		}
	}
	return out, nil
}
