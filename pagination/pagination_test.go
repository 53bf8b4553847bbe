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

package pagination

import (
	"context"
	"testing"

	"github.com/dynsql/dynsql/intercept"
)

func TestCountQuery(t *testing.T) {
	got, err := CountQuery("SELECT id, name FROM users WHERE active = 1 ORDER BY id")
	if err != nil {
		t.Fatal(err)
	}
	want := "SELECT COUNT(*) FROM users WHERE active = 1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPagedQuery(t *testing.T) {
	got := PagedQuery("SELECT * FROM users", Request{Page: 2, Size: 20})
	want := "SELECT * FROM users LIMIT 20 OFFSET 20"
	if got != want {
		t.Errorf("got %q", got)
	}
}

func TestNewResult_Pages(t *testing.T) {
	r := NewResult(Request{Page: 1, Size: 20}, 45)
	if r.Pages != 3 {
		t.Errorf("pages = %d, want 3", r.Pages)
	}
}

func TestInterceptor_RewritesQueryWhenMarked(t *testing.T) {
	i := &Interceptor{Extract: func(*intercept.Task) (Request, bool) {
		return Request{Page: 1, Size: 10}, true
	}}
	task := &intercept.Task{
		Query:      "SELECT * FROM users",
		Attributes: map[string]string{"paginate": "true"},
	}
	if _, err := i.Before(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	if task.Query != "SELECT * FROM users LIMIT 10 OFFSET 0" {
		t.Errorf("query = %q", task.Query)
	}
	req, ok := RequestFor(task)
	if !ok || req.Size != 10 {
		t.Errorf("RequestFor = %v, %v", req, ok)
	}
}

func TestInterceptor_SkipsWhenNotMarked(t *testing.T) {
	i := &Interceptor{Extract: func(*intercept.Task) (Request, bool) { return Request{}, true }}
	task := &intercept.Task{Query: "SELECT * FROM users"}
	if _, err := i.Before(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	if task.Query != "SELECT * FROM users" {
		t.Errorf("query should be unchanged, got %q", task.Query)
	}
}
