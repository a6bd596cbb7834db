package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"full yes", "YES\n", false, true},
		{"no", "n\n", true, false},
		{"empty takes default true", "\n", true, true},
		{"empty takes default false", "\n", false, false},
		{"eof declines", "", true, false},
		{"retries after garbage", "maybe\ny\n", false, true},
		{"answer without newline", "y", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			p := NewWithIO(strings.NewReader(tt.input), &out)
			got, err := p.Confirm("Restore?", tt.def)
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Restore?") {
				t.Errorf("question not written, got %q", out.String())
			}
		})
	}
}

func TestConfirm_Hint(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewWithIO(strings.NewReader("\n"), &out)
	if _, err := p.Confirm("Delete?", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "[Y/n]") {
		t.Errorf("expected [Y/n] hint, got %q", out.String())
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	items := []string{"2024-03-01_10-00-00", "2024-03-02_10-00-00", "2024-03-03_10-00-00"}

	tests := []struct {
		name    string
		items   []string
		input   string
		want    int
		wantErr error
	}{
		{"explicit", items, "2\n", 1, nil},
		{"default first", items, "\n", 0, nil},
		{"single item needs no input", items[:1], "", 0, nil},
		{"empty list", nil, "", -1, ErrNoItems},
		{"out of range", items, "4\n", -1, ErrInvalidSelection},
		{"zero", items, "0\n", -1, ErrInvalidSelection},
		{"not a number", items, "abc\n", -1, ErrInvalidSelection},
		{"eof", items, "", -1, ErrSelectionCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			p := NewWithIO(strings.NewReader(tt.input), &out)
			got, err := p.Select("Pick a backup", tt.items)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Select() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelect_ListsItems(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewWithIO(strings.NewReader("1\n"), &out)
	if _, err := p.Select("Pick", []string{"alpha", "beta"}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Pick:", "[1] alpha", "[2] beta", "Select [1]: "} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestPick_NonInteractiveFallsBack(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewWithIO(strings.NewReader("2\n"), &out)
	if p.Interactive() {
		t.Fatal("NewWithIO should not be interactive")
	}
	got, err := p.Pick("Pick", []string{"a", "b"}, func(int) string { return "" })
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("Pick() = %d, want 1", got)
	}
}

func TestPrompter_SharedReader(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewWithIO(strings.NewReader("2\ny\n"), &out)
	idx, err := p.Select("Pick", []string{"a", "b"})
	if err != nil || idx != 1 {
		t.Fatalf("Select() = %d, %v", idx, err)
	}
	ok, err := p.Confirm("Sure?", false)
	if err != nil || !ok {
		t.Fatalf("Confirm() = %v, %v", ok, err)
	}
}
