package infra

import (
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "valid marker",
			query:      "--sql 0f8c2a71-5b3e-4d59-9d4e-6a7c1b2e3f40\nselect 1;\n",
			wantMarker: "0f8c2a71-5b3e-4d59-9d4e-6a7c1b2e3f40",
			wantBody:   "select 1;",
		},
		{
			name:       "leading whitespace",
			query:      "\n  --sql 0f8c2a71-5b3e-4d59-9d4e-6a7c1b2e3f40\nselect 1;",
			wantMarker: "0f8c2a71-5b3e-4d59-9d4e-6a7c1b2e3f40",
			wantBody:   "select 1;",
		},
		{name: "missing marker", query: "select 1;", wantErr: true},
		{name: "uppercase uuid rejected", query: "--sql 0F8C2A71-5B3E-4D59-9D4E-6A7C1B2E3F40\nselect 1;", wantErr: true},
		{name: "empty", query: "   ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if (err != nil) != tc.wantErr {
				t.Fatalf("extractMarker() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if marker != tc.wantMarker {
				t.Fatalf("marker = %q, want %q", marker, tc.wantMarker)
			}
			if strings.TrimSpace(body) != tc.wantBody {
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}
