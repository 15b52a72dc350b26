package distpoint

import (
	"context"

	"github.com/marmos91/distsync/internal/logger"
)

// TransferOutcome records the result of one operation against one
// repository.
type TransferOutcome struct {
	// Repository is the display name of the backend.
	Repository string

	// Err is nil on success.
	Err error
}

// BatchResult collects the per-repository outcomes of one fan-out. Partial
// successes are never discarded: a batch that fails on some repositories
// still reports exactly which ones succeeded.
type BatchResult struct {
	Outcomes []TransferOutcome
}

// Successes returns the outcomes of repositories that completed the
// operation.
func (r BatchResult) Successes() []TransferOutcome {
	var out []TransferOutcome
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns the outcomes of repositories that failed the operation.
func (r BatchResult) Failures() []TransferOutcome {
	var out []TransferOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err returns nil if every repository succeeded, otherwise a *BatchError
// embedding the full result.
func (r BatchResult) Err() error {
	if len(r.Failures()) == 0 {
		return nil
	}
	return &BatchError{Result: r}
}

// DistributionPoints presents one logical copy/exists/delete surface over an
// ordered collection of repositories.
//
// Fan-out is sequential, in configured order; a slow or unreachable
// repository delays but never aborts delivery to the remainder. An
// orchestrator with zero repositories is valid: every operation is a no-op
// returning an empty result, so callers never special-case "no distribution
// points configured".
type DistributionPoints struct {
	repos []Repository
}

// New creates an orchestrator over the given repositories. Order is
// preserved: operations are fanned out in exactly this order.
func New(repos ...Repository) *DistributionPoints {
	return &DistributionPoints{repos: repos}
}

// Add appends a repository to the fan-out order.
func (d *DistributionPoints) Add(repo Repository) {
	d.repos = append(d.repos, repo)
}

// Repositories returns the configured repositories in fan-out order.
func (d *DistributionPoints) Repositories() []Repository {
	return d.repos
}

// Copy delivers a file to every repository, classifying it as a package or
// a script from its extension. Failures are captured per repository; after
// all repositories have been attempted the aggregate error (if any) embeds
// the full per-repository result.
func (d *DistributionPoints) Copy(ctx context.Context, path string, objectID int) (BatchResult, error) {
	req := TransferRequest{
		SourcePath: path,
		Category:   Classify(path),
		ObjectID:   objectID,
	}
	return d.copyAll(ctx, req)
}

// CopyPackage delivers a file to the Packages area of every repository,
// bypassing extension classification.
func (d *DistributionPoints) CopyPackage(ctx context.Context, path string, objectID int) (BatchResult, error) {
	return d.copyAll(ctx, TransferRequest{SourcePath: path, Category: CategoryPackage, ObjectID: objectID})
}

// CopyScript delivers a file to the Scripts area of every repository,
// bypassing extension classification.
func (d *DistributionPoints) CopyScript(ctx context.Context, path string, objectID int) (BatchResult, error) {
	return d.copyAll(ctx, TransferRequest{SourcePath: path, Category: CategoryScript, ObjectID: objectID})
}

func (d *DistributionPoints) copyAll(ctx context.Context, req TransferRequest) (BatchResult, error) {
	var result BatchResult
	for _, repo := range d.repos {
		err := repo.Copy(ctx, req)
		if err != nil {
			logger.Warn("copy of %s to %s failed: %v", req.SourcePath, repo.Name(), err)
		} else {
			logger.Debug("copied %s to %s", req.SourcePath, repo.Name())
		}
		result.Outcomes = append(result.Outcomes, TransferOutcome{Repository: repo.Name(), Err: err})
	}
	return result, result.Err()
}

// Exists reports the existence of the named file on every repository, keyed
// by repository name. Results are tri-state: the legacy upload backend
// cannot give a definitive absent-vs-present answer for payload bytes and
// reports ExistenceUnknown in that case.
func (d *DistributionPoints) Exists(ctx context.Context, filename string) (map[string]Existence, error) {
	cat := Classify(filename)
	results := make(map[string]Existence, len(d.repos))
	var batch BatchResult
	for _, repo := range d.repos {
		existence, err := repo.Exists(ctx, filename, cat)
		if err != nil {
			existence = ExistenceUnknown
		}
		results[repo.Name()] = existence
		batch.Outcomes = append(batch.Outcomes, TransferOutcome{Repository: repo.Name(), Err: err})
	}
	return results, batch.Err()
}

// Delete removes the named file from every repository that stores it.
// Like Copy, failures are captured per repository and aggregated.
func (d *DistributionPoints) Delete(ctx context.Context, filename string) (BatchResult, error) {
	cat := Classify(filename)
	var result BatchResult
	for _, repo := range d.repos {
		err := repo.Delete(ctx, filename, cat)
		result.Outcomes = append(result.Outcomes, TransferOutcome{Repository: repo.Name(), Err: err})
	}
	return result, result.Err()
}

// MountAll mounts every mountable repository. Non-mountable repositories are
// skipped.
func (d *DistributionPoints) MountAll(ctx context.Context) (BatchResult, error) {
	var result BatchResult
	for _, repo := range d.repos {
		m, ok := repo.(Mountable)
		if !ok {
			continue
		}
		err := m.EnsureMounted(ctx)
		result.Outcomes = append(result.Outcomes, TransferOutcome{Repository: repo.Name(), Err: err})
	}
	return result, result.Err()
}

// UnmountAll unmounts every mountable repository. Forced unmount detaches
// volumes even if the OS reports them busy, avoiding stale handles across
// repeated runs.
func (d *DistributionPoints) UnmountAll(ctx context.Context, forced bool) (BatchResult, error) {
	var result BatchResult
	for _, repo := range d.repos {
		m, ok := repo.(Mountable)
		if !ok {
			continue
		}
		err := m.Unmount(ctx, forced)
		result.Outcomes = append(result.Outcomes, TransferOutcome{Repository: repo.Name(), Err: err})
	}
	return result, result.Err()
}
