package fuseshim

import (
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/alxayo/mlvfs-core/internal/mlv/vfs"
)

func TestChildPath(t *testing.T) {
	cases := []struct {
		parent, name, want string
	}{
		{"/", "clip.MLV", "/clip.MLV"},
		{"/clip.MLV", "00000000.DNG", "/clip.MLV/00000000.DNG"},
	}
	for _, c := range cases {
		if got := childPath(c.parent, c.name); got != c.want {
			t.Errorf("childPath(%q, %q) = %q, want %q", c.parent, c.name, got, c.want)
		}
	}
}

func TestFillAttrDirectory(t *testing.T) {
	var out fuse.Attr
	mtime := time.Unix(1_700_000_000, 0)
	fillAttr(&out, vfs.Attr{IsDir: true, Mtime: mtime})

	if out.Mode&syscall.S_IFDIR == 0 {
		t.Fatalf("expected directory mode bit set, got mode %o", out.Mode)
	}
}

func TestFillAttrRegularFile(t *testing.T) {
	var out fuse.Attr
	fillAttr(&out, vfs.Attr{IsDir: false, Size: 12345})

	if out.Mode&syscall.S_IFREG == 0 {
		t.Fatalf("expected regular-file mode bit set, got mode %o", out.Mode)
	}
	if out.Size != 12345 {
		t.Fatalf("Size = %d, want 12345", out.Size)
	}
}

func TestFillAttrZeroMtimeDoesNotPanic(t *testing.T) {
	var out fuse.Attr
	fillAttr(&out, vfs.Attr{}) // a zero-value Mtime must fall back rather than propagate as-is
}
