// Package tradestat talks to the DGCI&S trade statistics portal. Every
// report behind the portal follows the same protocol: GET the report
// form to pick up a CSRF token, then POST the form with the token and
// the report's selection fields to receive a server-rendered HTML
// table.
package tradestat

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"
	"tradestat-ingestor/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/tradestat")

// ErrNoToken means the form page rendered without its CSRF token. No
// extraction is possible for the request; this is a fatal failure for
// the unit of work, unlike a missing data table.
var ErrNoToken = fmt.Errorf("could not find csrf token on form page")

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 60
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("referer", opts.BaseUrl)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "scrapers/tradestat/http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}

// Bootstrap fetches a report form page and extracts the session's CSRF
// token from it. The portal is Laravel-backed, so the token lives in a
// hidden _token input.
func (c *Client) Bootstrap(ctx context.Context, formPath string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Bootstrap")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(formPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch form page")
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse form page html")
		return "", err
	}

	token := doc.Find("input[name=_token]").AttrOr("value", "")
	if token == "" {
		span.SetStatus(codes.Error, "csrf token missing")
		return "", fmt.Errorf("%w: %s", ErrNoToken, formPath)
	}
	return token, nil
}

// FetchReport runs the full token-then-POST exchange for one report
// request and returns the raw HTML of the response.
func (c *Client) FetchReport(ctx context.Context, report Report, req Request) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchReport")
	defer span.End()

	postPath := report.postPath(req.Direction)

	token, err := c.Bootstrap(ctx, postPath)
	if err != nil {
		return "", err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(report.Form(token, req)).
		Post(postPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit report form")
		return "", err
	}
	if res.IsError() {
		err := fmt.Errorf("report submission returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return res.String(), nil
}
