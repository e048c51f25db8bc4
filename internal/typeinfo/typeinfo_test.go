package typeinfo

import "testing"

func TestPredicates(t *testing.T) {
	intT := Type{Kind: KindInt, Bits: 32, Signed: true}
	boolT := Type{Kind: KindBool, Name: "bool"}
	enumT := Type{Kind: KindEnum, Name: "ENUM_PROT_4"}
	ptrT := PtrTo(Type{Kind: KindInt, Bits: 8, Signed: true})

	tests := []struct {
		name     string
		typ      Type
		integral bool
		enum     bool
		ptr      bool
	}{
		{"int", intT, true, false, false},
		{"bool", boolT, true, false, false},
		{"enum", enumT, true, true, false},
		{"char_ptr", ptrT, false, false, true},
		{"void", Type{Kind: KindVoid}, false, false, false},
		{"double", Type{Kind: KindFloat, Bits: 64}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsIntegral(); got != tt.integral {
				t.Errorf("IsIntegral = %v, want %v", got, tt.integral)
			}
			if got := tt.typ.IsEnum(); got != tt.enum {
				t.Errorf("IsEnum = %v, want %v", got, tt.enum)
			}
			if got := tt.typ.IsPtr(); got != tt.ptr {
				t.Errorf("IsPtr = %v, want %v", got, tt.ptr)
			}
		})
	}
}

func TestFuncDetails(t *testing.T) {
	sig := FuncData{
		Ret: Type{Kind: KindInt, Bits: 32, Signed: true},
		Params: []Param{
			{Name: "fd", Type: Type{Kind: KindInt, Bits: 32, Signed: true}},
		},
	}

	t.Run("direct", func(t *testing.T) {
		fd, ptr, ok := FuncDetails(FuncOf(sig))
		if !ok {
			t.Fatal("FuncDetails: not a function")
		}
		if ptr {
			t.Error("direct function reported as pointer")
		}
		if len(fd.Params) != 1 || fd.Params[0].Name != "fd" {
			t.Errorf("params = %+v", fd.Params)
		}
	})

	t.Run("pointer", func(t *testing.T) {
		fd, ptr, ok := FuncDetails(PtrTo(FuncOf(sig)))
		if !ok {
			t.Fatal("FuncDetails: not a function")
		}
		if !ptr {
			t.Error("function pointer reported as direct")
		}
		if len(fd.Params) != 1 {
			t.Errorf("params = %+v", fd.Params)
		}
	})

	t.Run("data_pointer", func(t *testing.T) {
		if _, _, ok := FuncDetails(PtrTo(Type{Kind: KindInt, Bits: 32})); ok {
			t.Error("pointer to int resolved as function")
		}
	})

	t.Run("scalar", func(t *testing.T) {
		if _, _, ok := FuncDetails(Type{Kind: KindInt, Bits: 32}); ok {
			t.Error("int resolved as function")
		}
	})

	t.Run("missing_sig", func(t *testing.T) {
		if _, _, ok := FuncDetails(Type{Kind: KindFunc}); ok {
			t.Error("function without signature resolved")
		}
	})
}

func TestFuncDetailsCopies(t *testing.T) {
	orig := FuncOf(FuncData{
		Ret:    Type{Kind: KindInt, Bits: 32, Signed: true},
		Params: []Param{{Name: "flags", Type: Type{Kind: KindInt, Bits: 32, Signed: true}}},
	})

	fd, _, ok := FuncDetails(orig)
	if !ok {
		t.Fatal("FuncDetails failed")
	}
	fd.Params[0].Type = Type{Kind: KindEnum, Name: "ENUM_OPEN"}

	if orig.Sig.Params[0].Type.Kind == KindEnum {
		t.Error("mutating the resolved signature leaked into the source type")
	}
}

func TestPrototype(t *testing.T) {
	tests := []struct {
		name string
		fd   FuncData
		fn   string
		want string
	}{
		{
			"no_params",
			FuncData{Ret: Type{Kind: KindVoid}},
			"abort",
			"void abort(void)",
		},
		{
			"scalar_params",
			FuncData{
				Ret: Type{Kind: KindInt, Bits: 32, Signed: true},
				Params: []Param{
					{Name: "fd", Type: Type{Kind: KindInt, Bits: 32, Signed: true}},
					{Name: "prot", Type: Type{Kind: KindEnum, Name: "ENUM_PROT_4"}},
				},
			},
			"mprotect",
			"int mprotect(int fd, ENUM_PROT_4 prot)",
		},
		{
			"pointer_param",
			FuncData{
				Ret: Type{Kind: KindInt, Bits: 32, Signed: true},
				Params: []Param{
					{Name: "pathname", Type: PtrTo(Type{Kind: KindInt, Bits: 8, Signed: true})},
				},
			},
			"open",
			"int open(char *pathname)",
		},
		{
			"named_types",
			FuncData{
				Ret: Type{Kind: KindInt, Name: "ssize_t", Bits: 64, Signed: true},
				Params: []Param{
					{Name: "ok", Type: Type{Kind: KindBool, Name: "MACRO_BOOL"}},
				},
			},
			"f",
			"ssize_t f(MACRO_BOOL ok)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fd.Prototype(tt.fn); got != tt.want {
				t.Errorf("Prototype = %q, want %q", got, tt.want)
			}
		})
	}
}
