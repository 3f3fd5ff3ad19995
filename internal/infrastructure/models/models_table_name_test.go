package models

import "testing"

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		ApiKey{}.TableName():        "api_keys",
		ApiKeyHistory{}.TableName(): "api_key_history",
		RequestLog{}.TableName():    "request_logs",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("table name %q, want %q", got, want)
		}
	}
}
