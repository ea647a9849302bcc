package serverpe

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Jar holds the backend session cookies belonging to one browser session.
// The gateway persists Values() in its own session between requests and
// rebuilds a Jar from them on the next request.
type Jar struct {
	mu      sync.Mutex
	values  map[string]string
	changed bool
}

func NewJar(values map[string]string) *Jar {
	j := &Jar{values: make(map[string]string, len(values))}
	for name, value := range values {
		j.values[name] = value
	}
	return j
}

// Values returns a copy of the cookies currently held.
func (j *Jar) Values() map[string]string {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[string]string, len(j.values))
	for name, value := range j.values {
		out[name] = value
	}
	return out
}

// Changed reports whether the backend set or cleared a cookie since the
// Jar was built.
func (j *Jar) Changed() bool {
	if j == nil {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.changed
}

// Clear drops every cookie, e.g. on logout or a 401.
func (j *Jar) Clear() {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.values) > 0 {
		j.changed = true
	}
	j.values = map[string]string{}
}

func (j *Jar) apply(req *http.Request) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	names := make([]string, 0, len(j.values))
	for name := range j.values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: j.values[name]})
	}
}

func (j *Jar) merge(cookies []*http.Cookie) {
	if j == nil || len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, c := range cookies {
		expired := !c.Expires.IsZero() && c.Expires.Before(now)
		if c.MaxAge < 0 || c.Value == "" || expired {
			if _, ok := j.values[c.Name]; ok {
				delete(j.values, c.Name)
				j.changed = true
			}
			continue
		}
		if j.values[c.Name] != c.Value {
			j.values[c.Name] = c.Value
			j.changed = true
		}
	}
}

type jarKey struct{}

// WithJar attaches jar to ctx; every backend call made with the returned
// context replays and updates it.
func WithJar(ctx context.Context, jar *Jar) context.Context {
	return context.WithValue(ctx, jarKey{}, jar)
}

// JarFrom returns the jar attached to ctx, or nil.
func JarFrom(ctx context.Context) *Jar {
	jar, _ := ctx.Value(jarKey{}).(*Jar)
	return jar
}
