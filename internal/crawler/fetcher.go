package crawler

import (
	"errors"
	"path"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"
	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/crawlerrors"
	"github.com/sneakyhydra/sneakdex/crawler/internal/queue"
)

const (
	// depthCtxKey carries the queue depth through the colly request context.
	depthCtxKey = "depth"

	// maxLinkLength is the fast-reject cap for raw href values; anything
	// longer is never worth validating.
	maxLinkLength = 2000
)

var skipExts = map[string]struct{}{
	".pdf": {}, ".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".css": {}, ".js": {}, ".ico": {},
	".svg": {}, ".woff": {}, ".ttf": {}, ".mp4": {}, ".mp3": {}, ".zip": {}, ".exe": {},
}

// newCollector configures the colly collector and registers all hooks.
func (c *Crawler) newCollector() *colly.Collector {
	cfg := c.cfg

	options := []colly.CollectorOption{
		colly.MaxDepth(cfg.CrawlDepth),
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
	}

	// Defense in depth: the validator already filters, but the collector
	// enforces the same domain policy on its own.
	if blacklist := cfg.BlacklistDomains(); len(blacklist) > 0 {
		options = append(options, colly.DisallowedDomains(blacklist...))
	}
	if whitelist := cfg.WhitelistDomains(); len(whitelist) > 0 {
		options = append(options, colly.AllowedDomains(whitelist...))
	}
	if cfg.EnableDebug {
		options = append(options, colly.Debugger(&debug.LogDebugger{}))
	}

	collector := colly.NewCollector(options...)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.MaxConcurrency,
		Delay:       cfg.RequestDelay,
		RandomDelay: cfg.RequestDelay / 2,
	}); err != nil {
		c.log.WithFields(logrus.Fields{"error": err}).Error("Failed to set rate limit")
	}

	collector.SetRequestTimeout(cfg.RequestTimeout)

	collector.OnRequest(c.onRequest)
	collector.OnResponseHeaders(c.onResponseHeaders)
	collector.OnHTML("html", c.onHTML)
	collector.OnHTML("a[href]", c.onLink)
	collector.OnError(c.onError)

	if cfg.EnableDebug {
		collector.OnResponse(func(r *colly.Response) {
			c.log.WithFields(logrus.Fields{
				"url":          r.Request.URL.String(),
				"status_code":  r.StatusCode,
				"content_type": r.Headers.Get("Content-Type"),
				"size":         len(r.Body),
			}).Debug("Response received")
		})
	}

	return collector
}

// Visit hands a queue item to the collector with its depth attached to the
// per-request context. A synchronous error means the request never started.
func (c *Crawler) Visit(item queue.Item) error {
	rctx := colly.NewContext()
	rctx.Put(depthCtxKey, item.Depth)
	return c.collector.Request("GET", item.URL, nil, rctx, nil)
}

// depthOf recovers the queue depth from a request context, defaulting to 1
// when absent.
func depthOf(r *colly.Request) int {
	if d, ok := r.Ctx.GetAny(depthCtxKey).(int); ok {
		return d
	}
	return 1
}

func (c *Crawler) onRequest(r *colly.Request) {
	select {
	case <-c.ctx.Done():
		c.log.WithFields(logrus.Fields{"url": r.URL.String()}).Debug("Request aborted due to shutdown")
		c.stats.IncrementPagesAborted()
		r.Abort()
		return
	default:
	}

	if c.stats.GetPagesProcessed() >= c.cfg.MaxPages {
		c.log.WithFields(logrus.Fields{"url": r.URL.String()}).Debug("Max pages limit reached, aborting request")
		c.stats.IncrementPagesAborted()
		r.Abort()
		return
	}

	urlStr := r.URL.String()
	ext := strings.ToLower(path.Ext(r.URL.Path))
	if _, skip := skipExts[ext]; skip {
		c.log.WithFields(logrus.Fields{"url": urlStr, "ext": ext}).Debug("Skipping URL due to file extension")
		c.stats.IncrementPagesAborted()
		r.Abort()
		return
	}

	// Browser-like headers
	r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	r.Headers.Set("Accept-Encoding", "gzip, deflate")
	r.Headers.Set("DNT", "1")
	r.Headers.Set("Connection", "keep-alive")
	r.Headers.Set("Keep-Alive", "300")
	r.Headers.Set("Upgrade-Insecure-Requests", "1")

	c.stats.IncrementInflightPages()
	c.log.WithFields(logrus.Fields{"url": urlStr}).Debug("Visiting URL")
}

// onResponseHeaders gates on Content-Type before the body is downloaded.
// Anything that is not HTML is a terminal outcome for the URL.
func (c *Crawler) onResponseHeaders(r *colly.Response) {
	contentType := strings.ToLower(r.Headers.Get("Content-Type"))
	if strings.Contains(contentType, "text/html") {
		return
	}

	url := r.Request.URL.String()
	c.log.WithFields(logrus.Fields{"url": url, "content_type": contentType}).Debug("Skipping non-HTML response")
	c.stats.IncrementPagesSkipped()
	c.markVisited(url)
	r.Request.Abort()
	c.stats.DecrementInflightPages()
}

// onHTML is the terminal hook for pages whose body arrived: extract, publish
// and record the outcome.
func (c *Crawler) onHTML(e *colly.HTMLElement) {
	defer c.stats.DecrementInflightPages()
	url := e.Request.URL.String()

	select {
	case <-c.ctx.Done():
		c.log.WithFields(logrus.Fields{"url": url}).Debug("HTML processing skipped due to shutdown")
		return
	default:
	}

	if c.stats.GetPagesProcessed() >= c.cfg.MaxPages {
		c.log.WithFields(logrus.Fields{"url": url}).Debug("Max pages limit reached, dropping HTML")
		c.stats.IncrementPagesAborted()
		return
	}

	html, err := e.DOM.Html()
	if err != nil {
		c.log.WithFields(logrus.Fields{"url": url, "error": err}).Error("Failed to extract HTML")
		c.stats.IncrementPagesFailed()
		c.markVisited(url)
		return
	}

	c.stats.IncrementPagesProcessed()
	item := queue.Item{URL: url, Depth: depthOf(e.Request)}

	if err := c.publisher.Publish(item, []byte(html)); err != nil {
		var crawlErr *crawlerrors.CrawlError
		if errors.As(err, &crawlErr) && crawlErr.Retry {
			if c.requeueOnce(item, err) {
				return
			}
		}
		c.log.WithFields(logrus.Fields{"url": url, "error": err}).Error("Failed to publish page")
		c.stats.IncrementPagesFailed()
		c.markVisited(url)
		return
	}

	c.stats.IncrementPagesSuccessful()
	c.log.WithFields(logrus.Fields{"url": url, "content_size": len(html)}).Debug("Page processed successfully")
	c.markVisited(url)
}

// onLink extracts and enqueues discovered links at parent depth + 1.
func (c *Crawler) onLink(e *colly.HTMLElement) {
	select {
	case <-c.ctx.Done():
		return
	default:
	}

	if c.stats.GetPagesProcessed() >= c.cfg.MaxPages {
		return
	}

	link := e.Attr("href")
	if link == "" || len(link) > maxLinkLength {
		return
	}
	// Fragment-only links, query-only links and non-HTTP schemes
	if link[0] == '#' || link[0] == '?' {
		return
	}
	if strings.HasPrefix(link, "javascript:") ||
		strings.HasPrefix(link, "mailto:") ||
		strings.HasPrefix(link, "tel:") ||
		strings.Contains(link, "#") {
		return
	}

	absoluteURL := e.Request.AbsoluteURL(link)
	normalized, ok := c.validator.IsValidURL(absoluteURL)
	if !ok {
		return
	}

	childDepth := depthOf(e.Request) + 1
	if childDepth > c.cfg.CrawlDepth {
		return
	}

	seen, err := c.queue.IsURLSeen(c.ctx, normalized)
	if err != nil {
		c.log.WithFields(logrus.Fields{"url": normalized, "error": err}).Error("Failed to check URL seen status")
		return
	}
	if seen {
		return
	}

	if err := c.queue.AddToPending(c.ctx, queue.Item{URL: normalized, Depth: childDepth}); err != nil {
		c.log.WithFields(logrus.Fields{"url": normalized, "error": err}).Error("Failed to enqueue discovered URL")
	}
}

// onError is the terminal hook for failed transactions. Transport-class
// errors earn the URL its single requeue; everything else retires it.
func (c *Crawler) onError(r *colly.Response, err error) {
	// The content-type gate already accounted for this page.
	if errors.Is(err, colly.ErrAbortedAfterHeaders) {
		return
	}

	url := r.Request.URL.String()
	isNetworkError := crawlerrors.IsRetriable(err)

	if !isNetworkError || c.cfg.EnableDebug {
		c.log.WithFields(logrus.Fields{
			"url":         url,
			"status_code": r.StatusCode,
			"error":       err,
		}).Warn("Request failed")
	} else {
		c.log.WithFields(logrus.Fields{
			"url":         url,
			"status_code": r.StatusCode,
			"error":       err,
		}).Debug("Suppressed network error")
	}

	defer c.stats.DecrementInflightPages()
	c.stats.IncrementPagesFailed()

	if isNetworkError {
		item := queue.Item{URL: url, Depth: depthOf(r.Request)}
		if c.requeueOnce(item, err) {
			return
		}
	}

	c.markVisited(url)
}

// requeueOnce applies the single-retry policy: a URL that has not used its
// retry is re-enqueued at the same depth and remembered; one that has is
// retired. Returns true when the URL was requeued.
func (c *Crawler) requeueOnce(item queue.Item, cause error) bool {
	requeued, err := c.queue.IsRequeued(c.ctx, item.URL)
	if err != nil {
		c.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to check requeued state")
		return false
	}

	if requeued {
		c.log.WithFields(logrus.Fields{"url": item.URL}).Trace("URL already requeued once, will be marked visited")
		if err := c.queue.RemoveFromRequeued(c.ctx, item.URL); err != nil {
			c.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to clear requeue marker")
		}
		return false
	}

	c.log.WithFields(logrus.Fields{"url": item.URL, "error": cause}).Warn("Retriable error occurred, requeuing URL")
	if err := c.queue.AddToPending(c.ctx, item); err != nil {
		c.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to requeue URL")
		return false
	}
	if err := c.queue.AddToRequeued(c.ctx, item.URL); err != nil {
		c.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to record requeue marker")
	}
	return true
}

// markVisited writes the terminal marker, logging failures only.
func (c *Crawler) markVisited(url string) {
	if err := c.queue.MarkVisited(c.ctx, url); err != nil {
		c.log.WithFields(logrus.Fields{"url": url, "error": err}).Error("Failed to mark URL visited")
	}
}
