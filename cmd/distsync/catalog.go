package main

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/marmos91/distsync/pkg/distpoint"
	"github.com/marmos91/distsync/pkg/distpoint/upload"
)

// restCatalog is a minimal client for the server's package and script
// catalog, just enough to resolve filenames to record IDs for the legacy
// upload backend. The full object model lives in the surrounding CRUD layer,
// not here.
type restCatalog struct {
	session upload.Session
}

func newRESTCatalog(session upload.Session) *restCatalog {
	return &restCatalog{session: session}
}

type catalogRecord struct {
	ID       int    `xml:"id"`
	Name     string `xml:"name"`
	Filename string `xml:"filename"`
}

type catalogList struct {
	Packages []catalogRecord `xml:"package"`
	Scripts  []catalogRecord `xml:"script"`
}

func (c *restCatalog) endpoint(cat distpoint.Category) string {
	if cat == distpoint.CategoryPackage {
		return c.session.BaseURL + "/JSSResource/packages"
	}
	return c.session.BaseURL + "/JSSResource/scripts"
}

func (c *restCatalog) FindRecord(ctx context.Context, filename string, cat distpoint.Category) (int, bool, error) {
	records, err := c.list(ctx, cat)
	if err != nil {
		return 0, false, err
	}
	for _, record := range records {
		if record.Filename == filename || record.Name == filename {
			return record.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *restCatalog) DeleteRecord(ctx context.Context, filename string, cat distpoint.Category) error {
	id, found, err := c.FindRecord(ctx, filename, cat)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no catalog record for %s", filename)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/id/%d", c.endpoint(cat), id), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.session.Username, c.session.Password)

	resp, err := c.session.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("deleting record %d: server returned %s", id, resp.Status)
	}
	return nil
}

func (c *restCatalog) list(ctx context.Context, cat distpoint.Category) ([]catalogRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(cat), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.session.Username, c.session.Password)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.session.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing catalog: server returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var list catalogList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parsing catalog response: %w", err)
	}
	if cat == distpoint.CategoryPackage {
		return list.Packages, nil
	}
	return list.Scripts, nil
}
