package harness

import (
	"net/http"
	"net/http/httputil"
	"regexp"

	"github.com/sfgbrewery/beer-contract-tests/framework"
)

var wiretapExcludedHeaders = []*regexp.Regexp{ //nolint:gochecknoglobals
	regexp.MustCompile(`(?i)^(User-Agent|Accept-Encoding|Content-Length|Date|Connection):`),
}

// wiretapTransport dumps each request and response to a Logger.
type wiretapTransport struct {
	base   http.RoundTripper
	logger framework.Logger
}

func newWiretapTransport(base http.RoundTripper, logger framework.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &wiretapTransport{base: base, logger: logger}
}

func (w *wiretapTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(requestIDHeader)
	if dump, err := httputil.DumpRequestOut(req, true); err == nil {
		_, _ = newFilteredWriter(w.logger, "["+id+"] > ", wiretapExcludedHeaders).Write(dump)
	}
	resp, err := w.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if dump, err := httputil.DumpResponse(resp, true); err == nil {
		_, _ = newFilteredWriter(w.logger, "["+id+"] < ", wiretapExcludedHeaders).Write(dump)
	}
	return resp, nil
}
