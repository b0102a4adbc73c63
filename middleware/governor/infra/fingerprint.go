package infra

import (
	"net/url"
	"sort"
	"strings"

	"request-governor/middleware/governor/domain"

	"github.com/google/uuid"
)

// Fingerprinter implementa domain.Fingerprinter.
//
// Leituras: "METHOD path?k=v&k=v" com chaves e valores ordenados.
// Escritas: "METHOD path#<uuid>", única por chamada.
type Fingerprinter struct{}

func (Fingerprinter) Fingerprint(req domain.Request) domain.Fingerprint {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if !req.Idempotent {
		return domain.Fingerprint(method + " " + req.Path + "#" + uuid.NewString())
	}

	q := canonicalQuery(req.Query)
	if q == "" {
		return domain.Fingerprint(method + " " + req.Path)
	}
	return domain.Fingerprint(method + " " + req.Path + "?" + q)
}

func canonicalQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		if len(vals) == 0 {
			vals = []string{""}
		}
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
