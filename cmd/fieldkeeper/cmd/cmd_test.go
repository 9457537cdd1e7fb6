package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/solatis/fieldkeeper/internal/core/api"
)

const contactFields = `fields:
  - entity_type: contact
    code: country
    name: Country
    sort_order: 1
  - entity_type: contact
    code: state
    name: State
    sort_order: 2
    visibility:
      mode: if
      conditions:
        - field_code: country
          operator: equals
          value: US
`

const cyclicFields = `fields:
  - code: a
    visibility:
      mode: if
      conditions:
        - {field_code: b, operator: is_not_empty}
  - code: b
    visibility:
      mode: if
      conditions:
        - {field_code: a, operator: is_not_empty}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	configFile, dbURL, logLevel, logFormat = "", "", "error", "text"

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvaluate(t *testing.T) {
	fields := writeFile(t, "fields.yaml", contactFields)

	tests := []struct {
		name        string
		valuesFile  string
		values      string
		wantVisible []string
	}{
		{"json us", "values.json", `{"country": "US"}`, []string{"country", "state"}},
		{"yaml ca", "values.yaml", "country: CA\n", []string{"country"}},
		{"empty", "values.json", `{}`, []string{"country"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := writeFile(t, tt.valuesFile, tt.values)
			out, _, err := run(t, "evaluate", "--fields", fields, "--values", values, "--entity", "")
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			var resp api.EvaluateResponse
			if err := json.Unmarshal([]byte(out), &resp); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out)
			}
			if strings.Join(resp.Visible, ",") != strings.Join(tt.wantVisible, ",") {
				t.Errorf("visible = %v, want %v", resp.Visible, tt.wantVisible)
			}
			if resp.EntityType != "contact" {
				t.Errorf("entity_type = %q, want contact", resp.EntityType)
			}
		})
	}
}

func TestEvaluate_SeveralEntities(t *testing.T) {
	fields := writeFile(t, "fields.yaml", contactFields+`  - entity_type: account
    code: role
`)
	values := writeFile(t, "values.json", `{}`)

	if _, _, err := run(t, "evaluate", "--fields", fields, "--values", values, "--entity", ""); err == nil {
		t.Fatal("expected error for mixed entity types without --entity")
	}
	out, _, err := run(t, "evaluate", "--fields", fields, "--values", values, "--entity", "account")
	if err != nil {
		t.Fatalf("evaluate --entity account: %v", err)
	}
	if !strings.Contains(out, `"role"`) || strings.Contains(out, `"country"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDeps(t *testing.T) {
	fields := writeFile(t, "fields.yaml", contactFields)
	out, _, err := run(t, "deps", "--fields", fields, "--entity", "")
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	var resp api.DependenciesResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got := resp.Reactive["country"]; len(got) != 1 || got[0] != "state" {
		t.Errorf("reactive[country] = %v, want [state]", got)
	}
}

func TestDeps_CycleWarning(t *testing.T) {
	fields := writeFile(t, "fields.yaml", cyclicFields)
	_, stderr, err := run(t, "deps", "--fields", fields, "--entity", "form")
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	if !strings.Contains(stderr, "dependency cycle") {
		t.Errorf("stderr = %q, want cycle warning", stderr)
	}
}

func TestDatabaseCommands(t *testing.T) {
	t.Setenv("FK_HMAC_SECRET", "0190f3b1c2d34e5f8a9b0c1d2e3f4a5b:MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	url := "sqlite://" + filepath.Join(t.TempDir(), "cli.db")
	fields := writeFile(t, "fields.yaml", contactFields)

	if _, _, err := run(t, "--db-url", url, "fields", "list", "contact"); err == nil {
		t.Fatal("fields list before migrate should fail")
	}

	out, _, err := run(t, "--db-url", url, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "applied 001_initial_schema.sql") {
		t.Errorf("migrate output = %q", out)
	}

	out, _, err = run(t, "--db-url", url, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status: %v", err)
	}
	if !strings.Contains(out, "applied") || strings.Contains(out, "pending") {
		t.Errorf("migrate status output = %q", out)
	}

	out, _, err = run(t, "--db-url", url, "fields", "import", fields, "--entity", "")
	if err != nil {
		t.Fatalf("fields import: %v", err)
	}
	if !strings.Contains(out, "imported 2 fields") {
		t.Errorf("import output = %q", out)
	}

	out, _, err = run(t, "--db-url", url, "fields", "list", "contact")
	if err != nil {
		t.Fatalf("fields list: %v", err)
	}
	if !strings.Contains(out, "if all(country equals US)") {
		t.Errorf("fields list output = %q", out)
	}

	out, _, err = run(t, "--db-url", url, "apikey", "create", "ci")
	if err != nil {
		t.Fatalf("apikey create: %v", err)
	}
	m := regexp.MustCompile(`api_key_id: (\S+)`).FindStringSubmatch(out)
	if m == nil || !strings.Contains(out, "fk-v1-0190f3b1c2d34e5f8a9b0c1d2e3f4a5b-") {
		t.Fatalf("apikey create output = %q", out)
	}

	if _, _, err := run(t, "--db-url", url, "apikey", "revoke", m[1]); err != nil {
		t.Fatalf("apikey revoke: %v", err)
	}
	if _, _, err := run(t, "--db-url", url, "apikey", "revoke", m[1]); err == nil {
		t.Error("second revoke should fail")
	}

	if _, _, err := run(t, "--db-url", url, "fields", "delete", "contact", "state"); err != nil {
		t.Fatalf("fields delete: %v", err)
	}
}
