// Package notify delivers the single completion POST a run produces
// (spec.md §4.4).
package notify

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sylabs/umlboxd/internal/pkg/sandbox"
	"github.com/sylabs/umlboxd/internal/pkg/sylog"
)

// Notifier is constructed per run with a target URL and an opaque token,
// and satisfies sandbox.Notifier structurally.
type Notifier struct {
	targetURL string
	token     string
	log       *sylog.Logger
	client    *http.Client
}

// New builds a Notifier for one run. targetURL and token come straight
// from the `notify` and `token` multipart form fields (spec.md §6).
func New(targetURL, token string, log *sylog.Logger) *Notifier {
	return &Notifier{
		targetURL: targetURL,
		token:     token,
		log:       log,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Send issues a single form-encoded POST carrying status, exit code, and
// captured output streams. Network errors are logged and swallowed: they
// never affect the sandbox state machine (spec.md §4.4, §7). There are no
// retries: at-most-once delivery (spec.md §9 Open Question, resolved).
func (n *Notifier) Send(outcome sandbox.Outcome) {
	form := url.Values{}
	form.Set("token", n.token)
	form.Set("status", string(outcome.Result))
	if outcome.ExitCode != nil {
		form.Set("exit_code", strconv.Itoa(*outcome.ExitCode))
	}
	form.Set("test_output", outcome.TestOutput)
	form.Set("stdout", outcome.Stdout)
	form.Set("stderr", outcome.Stderr)

	resp, err := n.client.PostForm(n.targetURL, form)
	if err != nil {
		n.log.Warnf("notification POST to %s failed: %s", n.targetURL, err)
		return
	}
	defer resp.Body.Close()

	n.log.Debugf("notification POST to %s delivered, remote status %s", n.targetURL, resp.Status)
}
