//go:build linux
// +build linux

// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package fuseshim maps bazil.org/fuse upcalls onto the jgfs core engine.
// It is the sole place in this codebase that imports bazil.org/fuse; the
// core package never does, so it stays usable by anything that wants to
// read or write a jgfs image without going through a kernel mount.
package fuseshim

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/tinyfs/jgfs/internal/jgfs"
)

// FS is the bazil.org/fuse root filesystem backed by a jgfs session.
type FS struct {
	sess *jgfs.Session
}

// New wraps an already-open session for mounting.
func New(sess *jgfs.Session) *FS {
	return &FS{sess: sess}
}

func (f *FS) Root() (fusefs.Node, error) {
	return &Node{fs: f, ent: f.sess.Root(), path: "/"}, nil
}

// Statfs reports free/total cluster counts, translating statfs -> fat_count(FREE).
func (f *FS) Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	resp.Blocks = uint64(f.sess.FsClusters())
	resp.Bfree = uint64(f.sess.FatFreeCount())
	resp.Bavail = resp.Bfree
	resp.Bsize = f.sess.ClusterSize()
	return nil
}

// Node wraps a *jgfs.DirEntry, adding the cluster it lives in (its
// directory's cluster, needed to look up siblings) and the path it was
// reached by (used only to derive a stable inode number).
type Node struct {
	fs          *FS
	parentClust uint32
	ent         *jgfs.DirEntry
	path        string
}

func inodeFor(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return h.Sum64()
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func direntTypeFor(ent *jgfs.DirEntry) fuse.DirentType {
	switch {
	case ent.IsDir():
		return fuse.DT_Dir
	case ent.IsSymlink():
		return fuse.DT_Link
	default:
		return fuse.DT_File
	}
}

// translateErr maps a recoverable *jgfs.Error onto the fuse.Errno the
// kernel expects; any other error (including fatal paths, which never
// return here since they terminate the process) passes through unchanged.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var je *jgfs.Error
	if !errors.As(err, &je) {
		return err
	}
	switch je.Code {
	case jgfs.ErrNoEntry:
		return fuse.ENOENT
	case jgfs.ErrNotADirectory:
		return fuse.Errno(syscall.ENOTDIR)
	case jgfs.ErrIsADirectory:
		return fuse.Errno(syscall.EISDIR)
	case jgfs.ErrExists:
		return fuse.EEXIST
	case jgfs.ErrNotEmpty:
		return fuse.Errno(syscall.ENOTEMPTY)
	case jgfs.ErrNameTooLong:
		return fuse.Errno(syscall.ENAMETOOLONG)
	case jgfs.ErrNoSpace:
		return fuse.Errno(syscall.ENOSPC)
	case jgfs.ErrInvalidArgument:
		return fuse.Errno(syscall.EINVAL)
	case jgfs.ErrUnimplemented:
		return fuse.ENOSYS
	default:
		return err
	}
}

func (n *Node) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = inodeFor(n.path)
	a.Mtime = time.Unix(int64(n.ent.Mtime()), 0)
	a.Valid = time.Second

	switch {
	case n.ent.IsDir():
		a.Mode = os.ModeDir | 0755
	case n.ent.IsSymlink():
		a.Mode = os.ModeSymlink | 0777
		a.Size = uint64(n.ent.Size())
	default:
		a.Mode = 0644
		a.Size = uint64(n.ent.Size())
	}
	return nil
}

func (n *Node) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	if !n.ent.IsDir() {
		return nil, fuse.Errno(syscall.ENOTDIR)
	}
	clust := uint32(n.ent.Begin())
	child, ok := n.fs.sess.DirLookup(clust, name)
	if !ok {
		return nil, fuse.ENOENT
	}
	return &Node{fs: n.fs, parentClust: clust, ent: child, path: joinPath(n.path, name)}, nil
}

func (n *Node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	if !n.ent.IsDir() {
		return nil, fuse.Errno(syscall.ENOTDIR)
	}
	clust := uint32(n.ent.Begin())

	dirents := []fuse.Dirent{
		{Inode: inodeFor(n.path), Name: ".", Type: fuse.DT_Dir},
		{Inode: inodeFor(n.path + "/.."), Name: "..", Type: fuse.DT_Dir},
	}
	n.fs.sess.DirForEach(clust, func(e *jgfs.DirEntry) bool {
		dirents = append(dirents, fuse.Dirent{
			Inode: inodeFor(joinPath(n.path, e.Name())),
			Name:  e.Name(),
			Type:  direntTypeFor(e),
		})
		return false
	})
	return dirents, nil
}

func (n *Node) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	buf := make([]byte, req.Size)
	nRead, err := n.fs.sess.ReadAt(n.ent, buf, req.Offset)
	if err != nil {
		return translateErr(err)
	}
	resp.Data = buf[:nRead]
	return nil
}

func (n *Node) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	nWritten, err := n.fs.sess.WriteAt(n.ent, req.Data, req.Offset)
	resp.Size = nWritten
	return translateErr(err)
}

func (n *Node) Mknod(ctx context.Context, req *fuse.MknodRequest) (fusefs.Node, error) {
	clust := uint32(n.ent.Begin())
	ent, err := n.fs.sess.CreateFile(clust, req.Name)
	if err != nil {
		return nil, translateErr(err)
	}
	return &Node{fs: n.fs, parentClust: clust, ent: ent, path: joinPath(n.path, req.Name)}, nil
}

func (n *Node) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	clust := uint32(n.ent.Begin())
	ent, err := n.fs.sess.CreateDir(clust, req.Name)
	if err != nil {
		return nil, translateErr(err)
	}
	return &Node{fs: n.fs, parentClust: clust, ent: ent, path: joinPath(n.path, req.Name)}, nil
}

func (n *Node) Symlink(ctx context.Context, req *fuse.SymlinkRequest) (fusefs.Node, error) {
	clust := uint32(n.ent.Begin())
	ent, err := n.fs.sess.CreateSymlink(clust, req.NewName, req.Target)
	if err != nil {
		return nil, translateErr(err)
	}
	return &Node{fs: n.fs, parentClust: clust, ent: ent, path: joinPath(n.path, req.NewName)}, nil
}

func (n *Node) Readlink(ctx context.Context, req *fuse.ReadlinkRequest) (string, error) {
	target, err := n.fs.sess.ReadLink(n.ent)
	if err != nil {
		return "", translateErr(err)
	}
	return target, nil
}

func (n *Node) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	clust := uint32(n.ent.Begin())
	child, ok := n.fs.sess.DirLookup(clust, req.Name)
	if !ok {
		return fuse.ENOENT
	}
	if req.Dir && !child.IsDir() {
		return fuse.Errno(syscall.ENOTDIR)
	}
	if !req.Dir && child.IsDir() {
		return fuse.Errno(syscall.EISDIR)
	}
	return translateErr(n.fs.sess.DeleteEnt(child, true))
}

func (n *Node) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fusefs.Node) error {
	nd, ok := newDir.(*Node)
	if !ok {
		return fuse.EIO
	}
	clust := uint32(n.ent.Begin())
	child, ok := n.fs.sess.DirLookup(clust, req.OldName)
	if !ok {
		return fuse.ENOENT
	}
	newParentClust := uint32(nd.ent.Begin())
	return translateErr(n.fs.sess.Rename(child, req.NewName, newParentClust))
}

func (n *Node) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if req.Valid.Size() {
		cur := uint64(n.ent.Size())
		var err error
		switch {
		case req.Size < cur:
			err = n.fs.sess.Reduce(n.ent, uint32(req.Size))
		case req.Size > cur:
			err = n.fs.sess.Enlarge(n.ent, uint32(req.Size))
		}
		if err != nil {
			return translateErr(err)
		}
	}
	if req.Valid.Mtime() {
		n.fs.sess.SetTimes(n.ent, req.Mtime)
	}
	return n.Attr(ctx, &resp.Attr)
}

func (n *Node) Fsync(ctx context.Context, req *fuse.FsyncRequest) error {
	return translateErr(n.fs.sess.Sync())
}
