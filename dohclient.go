package droute

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/jtacoma/uritemplates"
	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
)

// DoHClient is a DNS-over-HTTPS client for a single server, with support for HTTP/2.
type DoHClient struct {
	id       string
	endpoint string
	method   string
	template *uritemplates.UriTemplate
	client   *http.Client
	settings *groupSettings
	metrics  *clientMetrics
}

var _ Resolver = &DoHClient{}

// newDoHClient returns a client for a DoH endpoint which can be a URI template.
// Method is GET or POST, POST is used if empty.
func newDoHClient(id, endpoint, method string, tlsConfig *tls.Config, settings *groupSettings) (*DoHClient, error) {
	template, err := uritemplates.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse doh endpoint '%s'", endpoint)
	}
	switch method {
	case "":
		method = http.MethodPost
	case http.MethodPost, http.MethodGet:
	default:
		return nil, fmt.Errorf("unsupported doh method '%s'", method)
	}
	tr := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsConfig,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, errors.Wrap(err, "failed to configure http2 transport")
	}
	return &DoHClient{
		id:       id,
		endpoint: endpoint,
		method:   method,
		template: template,
		client:   &http.Client{Transport: tr},
		settings: settings,
		metrics:  newClientMetrics(id),
	}, nil
}

// Resolve a DNS query.
func (d *DoHClient) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	s := d.settings.get()
	logger(d.id, q, ci).WithFields(logrus.Fields{
		"resolver": d.endpoint,
		"protocol": "doh",
		"method":   d.method,
	}).Debug("querying upstream resolver")

	q = q.Copy()
	s.prepare(q)
	padQuery(q)

	// The DNS ID should be 0 in DoH to be cache friendly. Restore it in the answer.
	id := q.Id
	q.Id = 0

	var b []byte
	var err error
	if q.IsTsig() != nil {
		b, _, err = dns.TsigGenerate(q, s.TSIGSecret, "", false)
	} else {
		b, err = q.Pack()
	}
	if err != nil {
		d.metrics.err.Add("pack", 1)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()
	req, err := d.request(ctx, b)
	if err != nil {
		d.metrics.err.Add("http", 1)
		return nil, err
	}
	d.metrics.query.Add(1)
	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			d.metrics.err.Add("timeout", 1)
			return nil, QueryTimeoutError{q}
		}
		d.metrics.err.Add("request", 1)
		return nil, err
	}
	defer resp.Body.Close()
	a, err := d.responseFromHTTP(resp)
	if err != nil {
		return nil, err
	}
	a.Id = id
	stripPadding(a)
	return a, nil
}

// Build the HTTP request for a packed query. POST doesn't use variables in the
// URL, GET passes the query base64url encoded in the "dns" variable.
func (d *DoHClient) request(ctx context.Context, b []byte) (*http.Request, error) {
	var (
		u    string
		body io.Reader
		err  error
	)
	if d.method == http.MethodGet {
		u, err = d.template.Expand(map[string]interface{}{"dns": base64.RawURLEncoding.EncodeToString(b)})
	} else {
		u, err = d.template.Expand(map[string]interface{}{})
		body = bytes.NewReader(b)
	}
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, d.method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Add("accept", "application/dns-message")
	if body != nil {
		req.Header.Add("content-type", "application/dns-message")
	}
	return req, nil
}

// Check the HTTP response status code and parse out the response DNS message.
func (d *DoHClient) responseFromHTTP(resp *http.Response) (*dns.Msg, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.metrics.err.Add(fmt.Sprintf("http%d", resp.StatusCode), 1)
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		d.metrics.err.Add("read", 1)
		return nil, err
	}
	a := new(dns.Msg)
	if err := a.Unpack(rb); err != nil {
		d.metrics.err.Add("unpack", 1)
		return nil, err
	}
	d.metrics.response.Add(rCode(a), 1)
	return a, nil
}

func (d *DoHClient) String() string {
	return d.id
}
