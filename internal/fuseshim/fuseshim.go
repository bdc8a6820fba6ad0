// Package fuseshim adapts internal/mlv/vfs's small synthetic-filesystem
// interface (Getattr, Open, Read, Readdir, no FUSE import) onto
// github.com/hanwen/go-fuse/v2/fs, per spec §1's "binding to FUSE-like
// or Windows pass-through virtual-filesystem runtimes is an external
// collaborator, not part of this module's scope" — this package is that
// thin shim, not a reimplementation of the binding itself.
package fuseshim

import (
	"context"
	"io"
	"path"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	coreerrors "github.com/alxayo/mlvfs-core/internal/errors"
	"github.com/alxayo/mlvfs-core/internal/mlv/vfs"
)

// node is one inode in the mounted tree: a lazily-populated view over a
// synthetic path, resolved against the vfs.Core on every Lookup/Getattr/
// Readdir/Open rather than cached in the node itself (vfs.Core and its
// resource manager already own the caching, spec §4.8).
type node struct {
	fs.Inode
	core *vfs.Core
	path string
}

var (
	_ fs.NodeLookuper  = (*node)(nil)
	_ fs.NodeGetattrer = (*node)(nil)
	_ fs.NodeReaddirer = (*node)(nil)
	_ fs.NodeOpener    = (*node)(nil)
)

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return path.Join(parent, name)
}

func fillAttr(out *fuse.Attr, attr vfs.Attr) {
	if attr.IsDir {
		out.Mode = syscall.S_IFDIR | 0o755
	} else {
		out.Mode = syscall.S_IFREG | 0o444
	}
	out.Size = uint64(attr.Size)
	mtime := attr.Mtime
	if mtime.IsZero() {
		mtime = time.Unix(0, 0)
	}
	out.SetTimes(nil, &mtime, nil)
}

// Lookup resolves one path component under n, the dynamic-tree
// counterpart to go-fuse's static NewPersistentInode examples: every
// child is discovered on demand via vfs.Core.Getattr rather than
// pre-registered.
func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	cp := childPath(n.path, name)
	attr, err := n.core.Getattr(cp)
	if err != nil {
		return nil, coreerrors.Errno(err)
	}

	mode := uint32(syscall.S_IFREG)
	if attr.IsDir {
		mode = syscall.S_IFDIR
	}
	fillAttr(&out.Attr, attr)

	child := n.NewInode(ctx, &node{core: n.core, path: cp}, fs.StableAttr{Mode: mode})
	return child, 0
}

// Getattr reports the synthetic path's attributes, backed by vfs.Core's
// own attribute cache (spec §4.8) — this shim never caches on its own.
func (n *node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.core.Getattr(n.path)
	if err != nil {
		return coreerrors.Errno(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

// Readdir lists the synthetic directory's children.
func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.core.Readdir(n.path)
	if err != nil {
		return nil, coreerrors.Errno(err)
	}
	list := make([]fuse.DirEntry, len(entries))
	for i, e := range entries {
		mode := uint32(fuse.S_IFREG)
		if e.IsDir {
			mode = fuse.S_IFDIR
		}
		list[i] = fuse.DirEntry{Name: e.Name, Mode: mode}
	}
	return fs.NewListDirStream(list), 0
}

// Open resolves the synthetic file and wraps its vfs.Handle as a FUSE
// file handle. Every open re-resolves through vfs.Core.Open, so the
// resource manager's reference count (spec §5) tracks live file
// descriptors rather than just live inodes.
func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	h, err := n.core.Open(n.path)
	if err != nil {
		return nil, 0, coreerrors.Errno(err)
	}
	return &fileHandle{handle: h}, fuse.FOPEN_KEEP_CACHE, 0
}

// fileHandle adapts a vfs.Handle's io.ReaderAt onto go-fuse's
// FileReader/FileReleaser handle interfaces.
type fileHandle struct {
	handle *vfs.Handle
}

var (
	_ fs.FileReader   = (*fileHandle)(nil)
	_ fs.FileReleaser = (*fileHandle)(nil)
)

func (f *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := f.handle.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		return nil, coreerrors.Errno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (f *fileHandle) Release(ctx context.Context) syscall.Errno {
	f.handle.Close()
	return 0
}

// Mount mounts core's synthetic tree at mountpoint, returning the running
// FUSE server. Callers stop the mount with server.Unmount();
// cmd/mlvfs-mount calls it after a shutdown signal.
func Mount(mountpoint string, core *vfs.Core, debug, allowOther bool) (*fuse.Server, error) {
	root := &node{core: core, path: "/"}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Debug:      debug,
			FsName:     "mlvfs",
			Name:       "mlvfs",
			AllowOther: allowOther,
		},
	}
	return fs.Mount(mountpoint, root, opts)
}
