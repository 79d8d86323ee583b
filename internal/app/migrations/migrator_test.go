package migrations

import "testing"

func TestMigrationVersion(t *testing.T) {
	tests := map[string]string{
		"001_init.sql":                    "001",
		"migrations/course/002_index.sql": "002",
		"003.sql":                         "003.sql",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := migrationVersion(in); got != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		})
	}
}
