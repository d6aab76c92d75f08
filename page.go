package robox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/go-resty/resty/v2"
	"github.com/gregjones/httpcache"
	"golang.org/x/net/html"

	"github.com/danclaudiupop/robox/form"
	"github.com/danclaudiupop/robox/table"
)

var (
	// ErrNoForm indicates that the page holds no matching form element.
	ErrNoForm = errors.New("no form found")
	// ErrNoTable indicates that the page holds no matching table element.
	ErrNoTable = errors.New("no table found")
	// ErrNoLink indicates that no link matched.
	ErrNoLink = errors.New("no link found")
	// ErrMultipleLinks indicates that a text lookup matched several links.
	ErrMultipleLinks = errors.New("multiple links found")
)

// Page is a fetched response turned navigable: its parse tree is memoized
// on first access, and everything on it (forms, tables, links) resolves
// against the page's canonical URL.
type Page struct {
	browser *Browser
	resp    *resty.Response
	content []byte
	url     *url.URL

	doc *goquery.Document // memoized parse tree
}

func newPage(b *Browser, resp *resty.Response) *Page {
	p := &Page{
		browser: b,
		resp:    resp,
		content: resp.Body(),
	}
	// Prefer the final URL after redirects.
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		p.url = raw.Request.URL
	} else if u, err := url.Parse(resp.Request.URL); err == nil {
		p.url = u
	}
	return p
}

// StatusCode returns the response status code.
func (p *Page) StatusCode() int { return p.resp.StatusCode() }

// URL returns the page's canonical URL.
func (p *Page) URL() string {
	if p.url == nil {
		return ""
	}
	return p.url.String()
}

// Location returns the canonical URL, satisfying the retry policy's view
// of a response.
func (p *Page) Location() string { return p.URL() }

// Content returns the raw response body.
func (p *Page) Content() []byte { return p.content }

// FromCache reports whether the response was served from the browser's
// local response cache rather than the network.
func (p *Page) FromCache() bool {
	return p.resp.Header().Get(httpcache.XFromCache) != ""
}

// Header returns a response header value.
func (p *Page) Header(key string) string { return p.resp.Header().Get(key) }

// Doc returns the memoized parse tree, parsing the body on first call.
func (p *Page) Doc() (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.content))
	if err != nil {
		return nil, fmt.Errorf("parsing page %s: %w", p.URL(), err)
	}
	p.doc = doc
	return doc, nil
}

// Title returns the page title, or "".
func (p *Page) Title() string {
	doc, err := p.Doc()
	if err != nil {
		return ""
	}
	return doc.Find("title").First().Text()
}

// Description returns the content of the description meta tag, or "".
func (p *Page) Description() string {
	doc, err := p.Doc()
	if err != nil {
		return ""
	}
	return doc.Find(`meta[name="description"]`).First().AttrOr("content", "")
}

// Form returns the first form matching selector; an empty selector means
// the first form on the page.
func (p *Page) Form(selector string) (*form.Form, error) {
	forms, err := p.Forms(selector)
	if err != nil {
		return nil, err
	}
	return forms[0], nil
}

// Forms returns every form matching selector; an empty selector means all
// forms on the page.
func (p *Page) Forms(selector string) ([]*form.Form, error) {
	doc, err := p.Doc()
	if err != nil {
		return nil, err
	}
	if selector == "" {
		selector = "form"
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: selector %q on %s", ErrNoForm, selector, p.URL())
	}
	forms := make([]*form.Form, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		forms = append(forms, form.New(s))
	})
	return forms, nil
}

// Table returns the first table matching selector; an empty selector means
// the first table on the page.
func (p *Page) Table(selector string) (*table.Table, error) {
	tables, err := p.Tables(selector)
	if err != nil {
		return nil, err
	}
	return tables[0], nil
}

// Tables returns every table matching selector; an empty selector means
// all tables on the page.
func (p *Page) Tables(selector string) ([]*table.Table, error) {
	doc, err := p.Doc()
	if err != nil {
		return nil, err
	}
	if selector == "" {
		selector = "table"
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: selector %q on %s", ErrNoTable, selector, p.URL())
	}
	tables := make([]*table.Table, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		tables = append(tables, table.New(s))
	})
	return tables, nil
}

// Links returns the page's links with fragments stripped and duplicate
// targets removed.
func (p *Page) Links() ([]Link, error) {
	doc, err := p.Doc()
	if err != nil {
		return nil, err
	}
	return dedupeLinks(stripFragments(extractLinks(doc))), nil
}

// InternalLinks returns the page's links targeting its own host, with
// relative targets counting as internal.
func (p *Page) InternalLinks() ([]Link, error) {
	links, err := p.Links()
	if err != nil || p.url == nil {
		return nil, err
	}
	return internalLinks(links, p.url), nil
}

// LinksByRegex returns links whose target matches pattern.
func (p *Page) LinksByRegex(pattern string) ([]Link, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	links, err := p.Links()
	if err != nil {
		return nil, err
	}
	var matched []Link
	for _, l := range links {
		if re.MatchString(l.HRef) {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

// LinkByText returns the single link whose text equals text,
// case-insensitively.
func (p *Page) LinkByText(text string) (Link, error) {
	links, err := p.Links()
	if err != nil {
		return Link{}, err
	}
	var matched []Link
	for _, l := range links {
		if strings.EqualFold(l.Text, text) {
			matched = append(matched, l)
		}
	}
	switch len(matched) {
	case 0:
		return Link{}, fmt.Errorf("%w: text %q", ErrNoLink, text)
	case 1:
		return matched[0], nil
	default:
		return Link{}, fmt.Errorf("%w: text %q matched %d links", ErrMultipleLinks, text, len(matched))
	}
}

// FollowLink opens a link's target resolved against the page URL.
func (p *Page) FollowLink(ctx context.Context, link Link) (*Page, error) {
	return p.browser.Open(ctx, p.resolve(link.HRef))
}

// FollowLinkByText finds the link with the given text and follows it.
func (p *Page) FollowLinkByText(ctx context.Context, text string) (*Page, error) {
	link, err := p.LinkByText(text)
	if err != nil {
		return nil, err
	}
	return p.FollowLink(ctx, link)
}

// SubmitForm serializes the form and opens its action URL with the form's
// method. submit optionally marks a default submit button (a *form.Control
// or locator string). The page URL becomes the Referer unless the response
// already carried one.
func (p *Page) SubmitForm(ctx context.Context, f *form.Form, submit interface{}) (*Page, error) {
	payload, err := f.Payload(submit)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{}
	if p.Header("Referer") == "" {
		headers["Referer"] = p.URL()
	}
	return p.browser.open(ctx, f.Method(), p.resolve(f.Action()), payload, headers)
}

// XPath returns the nodes matching an XPath expression.
func (p *Page) XPath(expr string) ([]*html.Node, error) {
	root, err := p.root()
	if err != nil {
		return nil, err
	}
	return htmlquery.QueryAll(root, expr)
}

// XPathText returns the joined text of all nodes matching expr.
func (p *Page) XPathText(expr string) (string, error) {
	nodes, err := p.XPath(expr)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, strings.TrimSpace(htmlquery.InnerText(n)))
	}
	return strings.Join(texts, " "), nil
}

func (p *Page) root() (*html.Node, error) {
	doc, err := p.Doc()
	if err != nil {
		return nil, err
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("empty document on %s", p.URL())
	}
	return doc.Nodes[0], nil
}

// resolve joins a possibly-relative reference against the page URL.
func (p *Page) resolve(ref string) string {
	if p.url == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return p.url.ResolveReference(parsed).String()
}
