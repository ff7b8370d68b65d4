package errors

import (
	"fmt"
	"io/fs"
	"testing"

	stderrors "errors"
)

func TestIsFollowsWrapChain(t *testing.T) {
	base := Wrap(ErrCodeFileRead, fs.ErrNotExist, "open %s", "nodes.csv")
	wrapped := fmt.Errorf("load nodes: %w", base)

	if !Is(wrapped, ErrCodeFileRead) {
		t.Errorf("Is(wrapped, FILE_READ) = false, want true")
	}
	if Is(wrapped, ErrCodeParse) {
		t.Errorf("Is(wrapped, PARSE) = true, want false")
	}
	if !stderrors.Is(wrapped, fs.ErrNotExist) {
		t.Errorf("cause should remain reachable through errors.Is")
	}
	if got := GetCode(wrapped); got != ErrCodeFileRead {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeFileRead)
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeParse, "missing column %q", "node_type")
	if got, want := err.Error(), `PARSE: missing column "node_type"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := UserMessage(err), `missing column "node_type"`; got != want {
		t.Errorf("UserMessage() = %q, want %q", got, want)
	}
}

func TestGetCodePlainError(t *testing.T) {
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
	if got := UserMessage(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
