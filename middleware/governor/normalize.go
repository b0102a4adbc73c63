package governor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

// Normalizer corrige o formato de um campo em payloads JSON de um endpoint de escrita:
// quando Field deveria ser uma lista mas chega como valor escalar, ele vira uma
// lista de um elemento antes do envio.
type Normalizer struct {
	// Method vazio casa com qualquer método de escrita.
	Method string
	Path   string
	Field  string
}

func (n Normalizer) Matches(r *http.Request) bool {
	if isReadMethod(r.Method) {
		return false
	}
	if n.Method != "" && !strings.EqualFold(n.Method, r.Method) {
		return false
	}
	return r.URL != nil && r.URL.Path == n.Path
}

// Apply devolve o corpo normalizado e se houve alteração.
// Corpos que não são objetos JSON são devolvidos intactos.
func (n Normalizer) Apply(body []byte) ([]byte, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return body, false
	}

	raw, ok := obj[n.Field]
	if !ok {
		return body, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")) {
		return body, false
	}

	wrapped := make([]byte, 0, len(trimmed)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, trimmed...)
	wrapped = append(wrapped, ']')
	obj[n.Field] = wrapped

	out, err := json.Marshal(obj)
	if err != nil {
		return body, false
	}
	return out, true
}
