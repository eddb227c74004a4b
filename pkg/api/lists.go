package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/store"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

const (
	listApplications = "applications"
	listSubmissions  = "submissions"
	listCacheType    = "list"
)

// defaultDescriptor is the first page a list view asks for
var defaultDescriptor = listing.FetchDescriptor{
	First:         10,
	SortDirection: listing.SortDesc,
	OrderBy:       "updatedAt",
}

type pageKey struct {
	filter store.Filter
	desc   listing.FetchDescriptor
}

// pageCache holds recently served pages. A nil cache stores nothing.
type pageCache[T any] struct {
	pages *lru.LRU[pageKey, listing.Page[T]]
}

func newPageCache[T any](size int, ttl time.Duration) *pageCache[T] {
	if size < 1 || ttl <= 0 {
		return nil
	}
	return &pageCache[T]{pages: lru.NewLRU[pageKey, listing.Page[T]](size, nil, ttl)}
}

func (c *pageCache[T]) get(key pageKey) (listing.Page[T], bool) {
	if c == nil {
		return listing.Page[T]{}, false
	}
	return c.pages.Get(key)
}

func (c *pageCache[T]) add(key pageKey, page listing.Page[T]) {
	if c != nil {
		c.pages.Add(key, page)
	}
}

type listFunc[T any] func(ctx context.Context, filter store.Filter, d listing.FetchDescriptor) (listing.Page[T], error)

// serveList answers one page request for list, going through cache unless
// the client asked for fresh results.
func serveList[T any](s *Server, w http.ResponseWriter, r *http.Request, list string, filter store.Filter, cache *pageCache[T], fetch listFunc[T]) {
	desc, err := listing.ParseDescriptor(r.URL.Query(), defaultDescriptor)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	forced := httputil.WantsFresh(r)
	key := pageKey{filter: filter, desc: desc}

	if !forced {
		if page, ok := cache.get(key); ok {
			s.recordCache(true)
			httputil.WriteList(w, page.Items, page.Total)
			return
		}
		s.recordCache(false)
	}

	if s.metrics != nil {
		s.metrics.RecordListingFetch(list, forced)
	}

	page, err := fetch(r.Context(), filter, desc)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).WithField("list", list).Error("Failed to list records")
		httputil.WriteInternalError(w)
		return
	}
	if page.Items == nil {
		page.Items = []T{}
	}

	cache.add(key, page)
	httputil.WriteList(w, page.Items, page.Total)
}

func (s *Server) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache(listCacheType, hit)
	}
}

// listApplications handles GET /applications
func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !applications.Status(status).Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("unknown status %q", status))
		return
	}
	serveList(s, w, r, listApplications, store.Filter{Status: status}, s.applicationPages, s.applications.ListApplications)
}

// listSubmissions handles GET /submissions
func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !submissions.Status(status).Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("unknown status %q", status))
		return
	}
	serveList(s, w, r, listSubmissions, store.Filter{Status: status}, s.submissionPages, s.submissions.ListSubmissions)
}
