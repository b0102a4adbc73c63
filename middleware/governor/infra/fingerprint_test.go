package infra

import (
	"net/url"
	"strings"
	"testing"

	"request-governor/middleware/governor/domain"

	"github.com/stretchr/testify/assert"
)

func TestFingerprinter_ReadsAreOrderIndependent(t *testing.T) {
	fp := Fingerprinter{}

	a := fp.Fingerprint(domain.Request{
		Method: "get", Path: "/tasks", Idempotent: true,
		Query: url.Values{"b": {"2", "1"}, "a": {"x"}},
	})
	b := fp.Fingerprint(domain.Request{
		Method: "GET", Path: "/tasks", Idempotent: true,
		Query: url.Values{"a": {"x"}, "b": {"1", "2"}},
	})

	assert.Equal(t, a, b)
	assert.Equal(t, domain.Fingerprint("GET /tasks?a=x&b=1&b=2"), a)
}

func TestFingerprinter_ReadsWithDifferentParamsDiffer(t *testing.T) {
	fp := Fingerprinter{}

	a := fp.Fingerprint(domain.Request{Method: "GET", Path: "/tasks", Idempotent: true, Query: url.Values{"page": {"1"}}})
	b := fp.Fingerprint(domain.Request{Method: "GET", Path: "/tasks", Idempotent: true, Query: url.Values{"page": {"2"}}})
	c := fp.Fingerprint(domain.Request{Method: "GET", Path: "/tasks", Idempotent: true})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, domain.Fingerprint("GET /tasks"), c)
}

func TestFingerprinter_WritesAreUniquePerCall(t *testing.T) {
	fp := Fingerprinter{}
	req := domain.Request{Method: "POST", Path: "/tasks"}

	seen := make(map[domain.Fingerprint]bool)
	for i := 0; i < 100; i++ {
		f := fp.Fingerprint(req)
		assert.False(t, seen[f], "duplicate write fingerprint %q", f)
		assert.True(t, strings.HasPrefix(string(f), "POST /tasks#"))
		seen[f] = true
	}
}
