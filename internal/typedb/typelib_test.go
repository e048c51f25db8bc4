package typedb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rand-tech/auto-enum/internal/typeinfo"
)

func TestParseCType(t *testing.T) {
	db := New()

	tests := []struct {
		spelling string
		kind     typeinfo.Kind
		name     string
		ptr      bool
	}{
		{"int", typeinfo.KindInt, "int", false},
		{"unsigned long", typeinfo.KindInt, "unsigned long", false},
		{"bool", typeinfo.KindBool, "bool", false},
		{"void", typeinfo.KindVoid, "void", false},
		{"const char *", typeinfo.KindPtr, "", true},
		{"char*", typeinfo.KindPtr, "", true},
		{"void **", typeinfo.KindPtr, "", true},
		{"struct stat *", typeinfo.KindPtr, "", true},
		{"mode_t", typeinfo.KindInt, "mode_t", false},
		{"BOOL", typeinfo.KindInt, "BOOL", false},
		{"size_t", typeinfo.KindInt, "size_t", false},
		{"...", typeinfo.KindVoid, "...", false},
	}

	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			got := db.ParseCType(tt.spelling)
			if got.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.IsPtr() != tt.ptr {
				t.Errorf("IsPtr = %v, want %v", got.IsPtr(), tt.ptr)
			}
			if !tt.ptr && got.Name != tt.name {
				t.Errorf("name = %q, want %q", got.Name, tt.name)
			}
		})
	}

	t.Run("registered_enum_resolves", func(t *testing.T) {
		if _, err := db.AddEnum("ENUM_OPEN_2", nil); err != nil {
			t.Fatal(err)
		}
		got := db.ParseCType("ENUM_OPEN_2")
		if !got.IsEnum() {
			t.Errorf("registered enum parsed as %+v", got)
		}
	})
}

func TestLoadTypeLibAndBind(t *testing.T) {
	dir := t.TempDir()
	lib := `{
		"open": {"ret": "int", "callconv": "cdecl", "params": [
			{"type": "const char *", "name": "pathname"},
			{"type": "int", "name": "flags"},
			{"type": "mode_t", "name": "mode"}
		]},
		"socket": {"ret": "int", "params": [
			{"type": "int", "name": "domain"},
			{"type": "int", "name": "type"},
			{"type": "int", "name": "protocol"}
		]}
	}`
	path := filepath.Join(dir, "typelib.json")
	if err := os.WriteFile(path, []byte(lib), 0644); err != nil {
		t.Fatal(err)
	}

	db := New()
	n, err := db.LoadTypeLib(path)
	if err != nil {
		t.Fatalf("LoadTypeLib: %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d prototypes, want 2", n)
	}
	if !db.HasPrototype("open") || db.HasPrototype("close") {
		t.Error("HasPrototype lookup wrong")
	}

	t.Run("bind_direct", func(t *testing.T) {
		if !db.Bind(0x4010, "open", false) {
			t.Fatal("Bind(open) = false")
		}
		got, ok := db.TypeAt(0x4010)
		if !ok {
			t.Fatal("TypeAt after Bind = none")
		}
		fd, ptr, ok := typeinfo.FuncDetails(got)
		if !ok || ptr {
			t.Fatalf("FuncDetails: ptr=%v ok=%v", ptr, ok)
		}
		if len(fd.Params) != 3 || fd.Params[1].Name != "flags" {
			t.Errorf("params = %+v", fd.Params)
		}
		if !fd.Params[0].Type.IsPtr() {
			t.Error("pathname should be a pointer")
		}
		if !fd.Params[2].Type.IsIntegral() {
			t.Error("mode_t should be integral")
		}
	})

	t.Run("bind_pointer", func(t *testing.T) {
		if !db.Bind(0x5020, "socket", true) {
			t.Fatal("Bind(socket) = false")
		}
		got, _ := db.TypeAt(0x5020)
		_, ptr, ok := typeinfo.FuncDetails(got)
		if !ok || !ptr {
			t.Fatalf("FuncDetails: ptr=%v ok=%v, want pointer shape", ptr, ok)
		}
	})

	t.Run("bind_unknown", func(t *testing.T) {
		if db.Bind(0x6000, "close", false) {
			t.Fatal("Bind of unknown prototype succeeded")
		}
		if _, ok := db.TypeAt(0x6000); ok {
			t.Fatal("unknown bind committed a type")
		}
	})
}

func TestLoadTypeLibErrors(t *testing.T) {
	db := New()
	if _, err := db.LoadTypeLib(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("LoadTypeLib on missing file should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadTypeLib(bad); err == nil {
		t.Fatal("LoadTypeLib on malformed JSON should fail")
	}
}
