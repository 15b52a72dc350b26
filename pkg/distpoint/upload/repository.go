// Package upload implements the legacy dbfileupload distribution-point
// backend: payloads are POSTed to the management server, which stores them
// in its database and handles propagation to its own distribution servers.
// There is no mount step and no raw-file API.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/marmos91/distsync/internal/logger"
	"github.com/marmos91/distsync/pkg/distpoint"
)

// Destination codes understood by the dbfileupload endpoint: which tier of
// the server's own distribution infrastructure receives the payload.
const (
	DestinationMaster = 0
	DestinationJDS    = 1
	DestinationCDP    = 2
)

// File type codes sent in the FILE_TYPE field.
const (
	fileTypePackage = 0
	fileTypeScript  = 3
)

// Session is the authenticated transport supplied by the object-mapping
// layer. This subsystem never builds its own credentials.
type Session struct {
	// BaseURL is the management server root, without a trailing slash.
	BaseURL string

	Username string
	Password string

	// Client is the HTTP client carrying the session's TLS configuration.
	// Defaults to http.DefaultClient when nil.
	Client *http.Client
}

func (s Session) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

// Catalog is the slice of the object-mapping layer this backend consults:
// the package/script records registered on the server. Payload bytes and
// catalog records live in different places, which is why existence answers
// derived from the catalog are approximate.
type Catalog interface {
	// FindRecord looks up a catalog record by filename, returning its ID.
	FindRecord(ctx context.Context, filename string, cat distpoint.Category) (id int, found bool, err error)

	// DeleteRecord removes the catalog record for the filename. Deleting
	// the record also drops the database payload blob; there is no separate
	// raw-file deletion for this backend.
	DeleteRecord(ctx context.Context, filename string, cat distpoint.Category) error
}

// SyncStatus is the optional, undocumented status side-channel. When
// available it reports, per distribution server, the package files that have
// finished syncing. Its wire format is not officially specified, so absence
// or failure is treated as "unknown", never as "false".
type SyncStatus interface {
	// DistributionServerFiles returns the synced package filenames per
	// distribution server.
	DistributionServerFiles(ctx context.Context) (map[string][]string, error)
}

// Config describes one legacy upload distribution point.
type Config struct {
	// Name is the display name. Defaults to the session base URL.
	Name string

	// Destination selects which server tier receives the payload
	// (DestinationMaster, DestinationJDS, DestinationCDP).
	Destination int
}

// Repository uploads payloads to the dbfileupload endpoint over the
// authenticated session.
type Repository struct {
	cfg     Config
	session Session
	catalog Catalog
	sync    SyncStatus

	// runCurl executes the system curl fallback. Overridable in tests.
	runCurl func(ctx context.Context, args []string) error
}

var _ distpoint.Repository = (*Repository)(nil)

// New creates a legacy upload repository. The sync side-channel may be nil;
// existence answers then never upgrade past "unknown" for cataloged files.
func New(cfg Config, session Session, catalog Catalog, sync SyncStatus) *Repository {
	return &Repository{
		cfg:     cfg,
		session: session,
		catalog: catalog,
		sync:    sync,
		runCurl: runCurlCommand,
	}
}

func (r *Repository) Name() string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	return r.session.BaseURL
}

func (r *Repository) String() string { return r.Name() }

func (r *Repository) uploadURL() string {
	return r.session.BaseURL + "/dbfileupload"
}

// Copy uploads the payload as a multipart form POST. Only flat files are
// supported: the database backend has nowhere to put a bundle-style
// (directory) package, so those fail fast before any network I/O. When
// req.ObjectID is set the server overwrites that record's payload instead of
// creating a new one.
//
// Some server/TLS-stack combinations reject the in-process POST because the
// server's bundled TLS implementation is outdated. On that specific failure
// mode the upload is retried once through the system curl binary, which
// links against the platform TLS stack; curl's result is the operation's
// result. This is a deliberate workaround for a known backend defect, not a
// generic retry.
func (r *Repository) Copy(ctx context.Context, req distpoint.TransferRequest) error {
	info, err := os.Stat(req.SourcePath)
	if err != nil {
		return fmt.Errorf("reading payload %s: %w", req.SourcePath, err)
	}
	if info.IsDir() {
		return &distpoint.UnsupportedPayloadError{
			Path:   req.SourcePath,
			Reason: "this backend does not permit directory uploads; zip the bundle or build a flat package",
		}
	}

	err = r.post(ctx, req)
	if err == nil {
		return nil
	}
	if !isTLSFailure(err) {
		return &distpoint.TransferError{Repository: r.Name(), Err: err}
	}

	logger.Warn("%s: in-process TLS rejected by server, retrying via system curl", r.Name())
	if curlErr := r.runCurl(ctx, r.curlArgs(req)); curlErr != nil {
		return &distpoint.TransferError{Repository: r.Name(), Err: curlErr}
	}
	return nil
}

// formFields builds the dbfileupload protocol fields for a request.
func (r *Repository) formFields(req distpoint.TransferRequest) map[string]string {
	fileType := fileTypePackage
	if req.Category == distpoint.CategoryScript {
		fileType = fileTypeScript
	}
	// OBJECT_ID -1 tells the server to create a new record.
	objectID := -1
	if req.ObjectID != 0 {
		objectID = req.ObjectID
	}
	return map[string]string{
		"DESTINATION": strconv.Itoa(r.cfg.Destination),
		"OBJECT_ID":   strconv.Itoa(objectID),
		"FILE_TYPE":   strconv.Itoa(fileType),
		"FILE_NAME":   filepath.Base(req.SourcePath),
	}
}

func (r *Repository) post(ctx context.Context, req distpoint.TransferRequest) error {
	file, err := os.Open(req.SourcePath)
	if err != nil {
		return err
	}
	defer file.Close()

	body, contentType := multipartBody(file, filepath.Base(req.SourcePath), r.formFields(req))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.uploadURL(), body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.SetBasicAuth(r.session.Username, r.session.Password)

	resp, err := r.session.client().Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %s: %s", resp.Status, string(payload))
	}
	return nil
}

// multipartBody streams a multipart form with the protocol fields and the
// payload as its file part. The body is produced through a pipe so large
// packages are never buffered whole in memory.
func multipartBody(file io.Reader, filename string, fields map[string]string) (io.Reader, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() { pw.CloseWithError(err) }()

		for key, value := range fields {
			if err = writer.WriteField(key, value); err != nil {
				return
			}
		}
		part, partErr := writer.CreateFormFile("name", filename)
		if partErr != nil {
			err = partErr
			return
		}
		if _, err = io.Copy(part, file); err != nil {
			return
		}
		err = writer.Close()
	}()

	return pr, writer.FormDataContentType()
}

// Exists reports a best-effort answer derived from catalog records.
//
// No matching record is an authoritative absent: nothing can have been
// uploaded without one. A matching record, however, only proves the record
// exists; the binary payload may still be propagating (or may never have
// been uploaded), so the answer is "unknown" unless the sync side-channel
// confirms the file is present on every distribution server.
func (r *Repository) Exists(ctx context.Context, filename string, cat distpoint.Category) (distpoint.Existence, error) {
	_, found, err := r.catalog.FindRecord(ctx, filename, cat)
	if err != nil {
		return distpoint.ExistenceUnknown, err
	}
	if !found {
		return distpoint.ExistenceAbsent, nil
	}

	// The side-channel only tracks package propagation.
	if r.sync != nil && cat == distpoint.CategoryPackage {
		if r.confirmedEverywhere(ctx, filename) {
			return distpoint.ExistencePresent, nil
		}
	}
	return distpoint.ExistenceUnknown, nil
}

// confirmedEverywhere reports whether the side-channel lists the file on
// every distribution server. Side-channel errors degrade to false: the
// caller then reports "unknown", never "absent".
func (r *Repository) confirmedEverywhere(ctx context.Context, filename string) bool {
	servers, err := r.sync.DistributionServerFiles(ctx)
	if err != nil || len(servers) == 0 {
		return false
	}
	for _, files := range servers {
		onServer := false
		for _, f := range files {
			if f == filename {
				onServer = true
				break
			}
		}
		if !onServer {
			return false
		}
	}
	return true
}

// Delete removes the catalog record, which also drops the payload blob.
func (r *Repository) Delete(ctx context.Context, filename string, cat distpoint.Category) error {
	return r.catalog.DeleteRecord(ctx, filename, cat)
}
