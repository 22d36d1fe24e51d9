package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseDecode,
				Kind:    KindTypeMismatch,
				Path:    []string{"list[2]", "map[0]"},
				Code:    0xa1,
				HasCode: true,
				Type:    "int",
				Detail:  "cannot convert",
			},
			contains: []string{"[decode]", "type_mismatch", "list[2].map[0]", "0xa1", "int", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseClassify,
				Kind:  KindInvalidFormatCode,
			},
			contains: []string{"[classify]", "invalid_format_code"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseUnmarshal,
				Kind:   KindTruncated,
				Detail: "short read",
				Cause:  errors.New("unexpected EOF"),
			},
			contains: []string{"[unmarshal]", "truncated_input", "short read", "caused by", "unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindTruncated,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindTruncated}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseUnmarshal, Kind: KindTruncated}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindUnsupported}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDecode, Kind: KindTruncated}
	if !errors.Is(fmt.Errorf("frame 3: %w", err), target) {
		t.Error("errors.Is should match through wrapping")
	}
}

func TestIsKind(t *testing.T) {
	inner := Truncated(PhaseDecode, nil, 10, 4)
	outer := Wrap(PhaseDecode, KindInvalidData, inner, "element 2")

	if !IsKind(outer, KindInvalidData) {
		t.Error("IsKind should match outer kind")
	}
	if !IsKind(outer, KindTruncated) {
		t.Error("IsKind should match kind in cause chain")
	}
	if IsKind(outer, KindUnsupported) {
		t.Error("IsKind should not match absent kind")
	}
	if IsKind(errors.New("plain"), KindTruncated) {
		t.Error("IsKind should not match plain errors")
	}
	if IsKind(nil, KindTruncated) {
		t.Error("IsKind(nil) should be false")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindTruncated).
		Path("list[1]").
		Code(0xb0).
		Type("binary").
		Value(300).
		Cause(cause).
		Detail("need %d, have %d", 300, 12).
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindTruncated {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTruncated)
	}
	if len(err.Path) != 1 || err.Path[0] != "list[1]" {
		t.Errorf("Path = %v, want [list[1]]", err.Path)
	}
	if !err.HasCode || err.Code != 0xb0 {
		t.Errorf("Code = 0x%02x (set %v), want 0xb0", err.Code, err.HasCode)
	}
	if err.Type != "binary" {
		t.Errorf("Type = %v, want binary", err.Type)
	}
	if err.Value != 300 {
		t.Errorf("Value = %v, want 300", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "need 300, have 12" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidFormatCode", func(t *testing.T) {
		err := InvalidFormatCode(PhaseClassify, 0x1f)
		if err.Kind != KindInvalidFormatCode {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !strings.Contains(err.Error(), "0x1f") || !strings.Contains(err.Error(), "0x10") {
			t.Errorf("message %q should name code and nibble", err.Error())
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		err := Truncated(PhaseDecode, []string{"x"}, 8, 3)
		if err.Kind != KindTruncated || err.Detail != "need 8 bytes, have 3" {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseEncode, "array of nulls")
		if err.Kind != KindUnsupported || err.Detail != "array of nulls" {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("EncodingState", func(t *testing.T) {
		err := EncodingState(PhaseEncode, "no value")
		if err.Kind != KindEncodingState {
			t.Errorf("Kind = %v", err.Kind)
		}
	})

	t.Run("InvalidUTF8 truncates preview", func(t *testing.T) {
		data := make([]byte, 64)
		err := InvalidUTF8(PhaseDecode, nil, data)
		if strings.Count(err.Detail, "00") != 32 {
			t.Errorf("preview should hold 32 bytes, got %q", err.Detail)
		}
	})

	t.Run("InvalidASCII", func(t *testing.T) {
		err := InvalidASCII(PhaseEncode, nil, 3, 0xC3)
		if err.Kind != KindInvalidASCII || !strings.Contains(err.Detail, "0xc3") {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Registration", func(t *testing.T) {
		cause := errors.New("duplicate")
		err := Registration("descriptor 0x70", cause)
		if err.Phase != PhaseRegistry || !errors.Is(err, cause) {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Load", func(t *testing.T) {
		err := Load("open capture", errors.New("no such file"))
		if err.Phase != PhaseLoad || err.Kind != KindInvalidData {
			t.Errorf("got %+v", err)
		}
	})
}
