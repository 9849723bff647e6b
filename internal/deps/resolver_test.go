package deps

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestResolveSeparatesStdlibFromThirdParty(t *testing.T) {
	src := `package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

func main() {
	_ = json.Valid
	_ = fmt.Sprintf
	_ = http.Get
	_ = os.Getenv
	_ = uuid.NewString
	_ = yaml.Marshal
}
`
	got, err := Resolve(src)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"github.com/google/uuid", "gopkg.in/yaml.v3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveTableCases(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "stdlib only",
			source: "package main\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n",
			want:   []string{},
		},
		{
			name:   "no imports",
			source: "package main\n\nfunc main() {}\n",
			want:   []string{},
		},
		{
			name:   "duplicates collapse",
			source: "package main\n\nimport (\n\ta \"github.com/google/uuid\"\n\tb \"github.com/google/uuid\"\n)\n",
			want:   []string{"github.com/google/uuid"},
		},
		{
			name:   "bare unknown segment is not fetchable",
			source: "package main\n\nimport \"mypkg/helpers\"\n",
			want:   []string{},
		},
		{
			name:   "nested stdlib path",
			source: "package main\n\nimport \"database/sql\"\n",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.source)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Resolve = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Resolve[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveRejectsUnparsableSource(t *testing.T) {
	if _, err := Resolve("not go code"); err == nil {
		t.Fatal("expected an error for unparsable source")
	}
}

func TestEnsureDisabledPolicy(t *testing.T) {
	in := NewInstaller(false)
	err := in.Ensure(context.Background(), t.TempDir(), []string{"github.com/google/uuid"})

	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("expected *InstallError, got %v", err)
	}
	if len(installErr.Modules) != 1 || installErr.Modules[0] != "github.com/google/uuid" {
		t.Errorf("modules = %v", installErr.Modules)
	}
}

func TestEnsureNothingToInstall(t *testing.T) {
	in := NewInstaller(false)
	if err := in.Ensure(context.Background(), t.TempDir(), nil); err != nil {
		t.Fatalf("expected nil for an empty module list, got %v", err)
	}
}
