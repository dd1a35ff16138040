package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll follows pagination cursors until every page of dbID matching
// query is fetched. query may be nil.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{}
	if query != nil {
		req.Filter = query.Filter
		req.Sorts = query.Sorts
		req.PageSize = query.PageSize
	}

	var all []notionapi.Page
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// CreateDatabaseUnderPage creates an inline-free database titled title under
// the page parentID.
func CreateDatabaseUnderPage(ctx context.Context, c Client, parentID, title string, schema notionapi.PropertyConfigs) (*notionapi.Database, error) {
	db, err := c.CreateDatabase(ctx, &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(parentID),
		},
		Title:      []notionapi.RichText{richText(title)},
		Properties: schema,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: create database %q", title)
	}
	return db, nil
}

// AddRow creates one page in database dbID.
func AddRow(ctx context.Context, c Client, dbID string, props notionapi.Properties) (*notionapi.Page, error) {
	return c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	})
}
