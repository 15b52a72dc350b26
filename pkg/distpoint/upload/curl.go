package upload

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/marmos91/distsync/pkg/distpoint"
)

// TLS fallback path.
//
// The management server bundles its own TLS implementation, and older builds
// reject handshakes from modern in-process TLS stacks on certain payload
// uploads. The system curl binary links against the platform networking
// stack and negotiates fine, so on a TLS-class failure the upload is
// replayed through curl with equivalent multipart semantics.

// curl exit codes worth translating for the operator; everything else is
// reported numerically.
var curlExitMessages = map[int]string{
	6:  "could not resolve host",
	7:  "failed to connect to host",
	22: "HTTP error response (400 or above)",
	28: "operation timed out",
	35: "SSL connect error",
	60: "peer certificate cannot be authenticated",
}

// curlArgs builds the argument list replaying a Copy as a curl multipart
// POST. --fail maps HTTP-level errors onto the exit code so failures are not
// silently swallowed.
func (r *Repository) curlArgs(req distpoint.TransferRequest) []string {
	args := []string{
		"--silent", "--show-error", "--fail",
		"--request", "POST",
		"--user", r.session.Username + ":" + r.session.Password,
		"--form", fmt.Sprintf("name=@%s", req.SourcePath),
	}
	for key, value := range r.formFields(req) {
		args = append(args, "--form", key+"="+value)
	}
	return append(args, r.uploadURL())
}

func runCurlCommand(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "curl", args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg, ok := curlExitMessages[exitErr.ExitCode()]; ok {
			return fmt.Errorf("curl: %s (%s)", msg, strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("curl exited %d (%s)", exitErr.ExitCode(), strings.TrimSpace(string(out)))
	}
	return fmt.Errorf("curl: %w", err)
}

// isTLSFailure reports whether an upload error is the known TLS-stack
// rejection rather than an ordinary transport or server failure. Only this
// class of error triggers the curl fallback.
func isTLSFailure(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") ||
		strings.Contains(msg, "handshake failure") ||
		strings.Contains(msg, "protocol version not supported") ||
		strings.Contains(msg, "remote error")
}
