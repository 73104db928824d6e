package swagger

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}

	var parsed struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not valid JSON: %v", err)
	}
	if parsed.BasePath != "/api" {
		t.Errorf("basePath: got %q", parsed.BasePath)
	}
	for _, p := range []string{"/medicines", "/medicines/{id}", "/medicines/stats", "/medicines/report.xlsx", "/health"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Errorf("missing path %s", p)
		}
	}
}
