package constants

import "testing"

func TestDefaultVersionTableName(t *testing.T) {
	if DefaultVersionTableName != "schema_migrations" {
		t.Fatalf("unexpected default table name: %s", DefaultVersionTableName)
	}
}
