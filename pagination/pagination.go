/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package pagination rewrites a SELECT statement into a page-bounded
// form (count query + LIMIT/OFFSET query), the way rbatis's
// plugin::page::{Page, PageRequest} does for its fetch_page_by_wrapper
// calls. It is implemented as an intercept.Interceptor so it plugs
// into the same Before/After pipeline as logging/tracing/generated keys.
package pagination

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dynsql/dynsql/intercept"
)

// Request describes the page being asked for: 1-indexed page number
// and page size, matching rbatis::plugin::page::PageRequest::new(page,
// size).
type Request struct {
	Page int
	Size int
}

// Offset returns the zero-indexed row offset for this request.
func (r Request) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.Size
}

// Result wraps the rows returned for one page together with the total
// row count across all pages, matching rbatis::plugin::page::Page.
type Result struct {
	Page  int
	Size  int
	Total int64
	Pages int64
}

// NewResult computes Pages from Total and Size.
func NewResult(req Request, total int64) Result {
	pages := int64(0)
	if req.Size > 0 {
		pages = (total + int64(req.Size) - 1) / int64(req.Size)
	}
	return Result{Page: req.Page, Size: req.Size, Total: total, Pages: pages}
}

var selectColumnsRegexp = regexp.MustCompile(`(?is)^\s*select\s+.*?\s+from\s`)

// CountQuery rewrites a SELECT statement into a COUNT(*) query over
// the same FROM/WHERE/JOIN clauses, dropping ORDER BY (order doesn't
// affect counting and some dialects reject ORDER BY on a column not in
// a bare count projection).
func CountQuery(query string) (string, error) {
	loc := selectColumnsRegexp.FindStringIndex(query)
	if loc == nil {
		return "", fmt.Errorf("pagination: query does not start with SELECT ... FROM: %q", query)
	}
	rest := query[loc[1]:]
	rest = stripOrderBy(rest)
	return "SELECT COUNT(*) FROM " + rest, nil
}

// PagedQuery appends a LIMIT/OFFSET clause sized by req to query.
func PagedQuery(query string, req Request) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", strings.TrimRight(query, "; \t\n"), req.Size, req.Offset())
}

var orderByRegexp = regexp.MustCompile(`(?is)\border\s+by\s.*$`)

func stripOrderBy(s string) string {
	return strings.TrimSpace(orderByRegexp.ReplaceAllString(s, ""))
}

// attributeKey is the statement attribute a mapper uses to request
// pagination, e.g. <select id="list" paginate="true">.
const attributeKey = "paginate"

// requestLocalKey stashes the Request extracted from the task's param
// between Before and After.
const requestLocalKey = "pagination.request"

// Interceptor rewrites a paginated statement's query into its paged
// form in Before. It does not run the COUNT(*) query, and nothing else
// in this module does: CountQuery and RequestFor are exported for a
// caller that issues that second query itself.
type Interceptor struct {
	// Extract pulls a Request out of the task's bound parameters. The
	// caller supplies this because parameter shapes vary per mapper.
	Extract func(task *intercept.Task) (Request, bool)
}

// Before rewrites task.Query to its LIMIT/OFFSET form when the
// statement is marked for pagination and Extract finds a Request.
func (i *Interceptor) Before(_ context.Context, task *intercept.Task) (bool, error) {
	if task.Attribute(attributeKey) != "true" {
		return true, nil
	}
	if i.Extract == nil {
		return true, nil
	}
	req, ok := i.Extract(task)
	if !ok {
		return true, nil
	}
	task.SetLocal(requestLocalKey, req)
	task.Query = PagedQuery(task.Query, req)
	return true, nil
}

// After is a no-op; it neither runs the count query nor builds a Result.
func (i *Interceptor) After(_ context.Context, _ *intercept.Task, _ *intercept.Result) error {
	return nil
}

// RequestFor retrieves the Request a prior Before call stashed on task,
// for the executor to reuse when issuing the COUNT(*) companion query.
func RequestFor(task *intercept.Task) (Request, bool) {
	v, ok := task.Local(requestLocalKey)
	if !ok {
		return Request{}, false
	}
	req, ok := v.(Request)
	return req, ok
}
