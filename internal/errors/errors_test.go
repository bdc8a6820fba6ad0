package errors

import (
	stdErrors "errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsCoreErrorClassification(t *testing.T) {
	root := stdErrors.New("root")
	wrapped := fmt.Errorf("adding context: %w", root)
	nf := NewNotFoundError("vfs.getattr", wrapped)
	if !IsCoreError(nf) {
		t.Fatalf("expected IsCoreError=true for not-found error")
	}
	if !stdErrors.Is(nf, root) {
		t.Fatalf("expected errors.Is to find root cause")
	}
	var nfe *NotFoundError
	if !stdErrors.As(nf, &nfe) {
		t.Fatalf("expected errors.As to *NotFoundError")
	}
	if nfe.Op != "vfs.getattr" {
		t.Fatalf("unexpected op: %s", nfe.Op)
	}

	cc := NewCorruptContainerError("container.next_block", nil)
	if !IsCoreError(cc) {
		t.Fatalf("expected corrupt container error classified")
	}
	if !IsCorruptContainer(cc) {
		t.Fatalf("expected IsCorruptContainer true")
	}
	up := NewUnsupportedParamsError("correct.stripe", stdErrors.New("width not a multiple of 8"))
	if !IsCoreError(up) {
		t.Fatalf("expected unsupported-params error classified")
	}
	if !IsUnsupportedParams(up) {
		t.Fatalf("expected IsUnsupportedParams true")
	}
	oom := NewOutOfMemoryError("correct.chroma", nil)
	if !IsCoreError(oom) {
		t.Fatalf("expected out-of-memory error classified")
	}
	ioe := NewIOError("container.read_block", stdErrors.New("short read"))
	if !IsCoreError(ioe) {
		t.Fatalf("expected io error classified")
	}
}

func TestIsNotFound(t *testing.T) {
	if IsNotFound(nil) {
		t.Fatalf("nil should not be not-found")
	}
	if IsNotFound(stdErrors.New("plain")) {
		t.Fatalf("unclassified error should not be not-found")
	}
	if !IsNotFound(NewNotFoundError("vfs.open", nil)) {
		t.Fatalf("expected NotFoundError recognized")
	}
}

func TestErrno(t *testing.T) {
	cases := []struct {
		err  error
		want syscall.Errno
	}{
		{nil, 0},
		{NewNotFoundError("vfs.getattr", nil), syscall.ENOENT},
		{NewIOError("container.read_block", nil), syscall.EIO},
		{NewCorruptContainerError("container.next_block", nil), syscall.EIO},
		{NewOutOfMemoryError("correct.chroma", nil), syscall.EIO},
	}
	for _, c := range cases {
		if got := Errno(c.err); got != c.want {
			t.Fatalf("Errno(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
