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
package fuseshim

import (
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/tinyfs/jgfs/internal/jgfs"
	"github.com/tinyfs/jgfs/internal/logger"
	jgfsos "github.com/tinyfs/jgfs/pkg/util/os"
)

// Mount prepares mountpoint, mounts sess's filesystem through bazil.org/fuse,
// and blocks until a termination signal arrives and the kernel confirms the
// unmount.
func Mount(mountpoint string, sess *jgfs.Session, log *logger.Logger) error {
	created, err := jgfsos.EnsureDir(mountpoint, true)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(mountpoint)
	if err != nil {
		return err
	}
	defer c.Close()

	root := New(sess)

	go func() {
		srv := fusefs.New(c, nil)
		if err := srv.Serve(root); err != nil {
			log.Errorf("serve error: %v", err)
		}
	}()

	return waitForUmount(mountpoint, log)
}

func waitForUmount(mountpoint string, log *logger.Logger) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	log.Info("waiting for termination signal")

	const maxUnmountRetries = 3
	unmountAttempts := 0

	for sig := range sigc {
		log.Infof("signal received: %v", sig)

		if unmountAttempts >= maxUnmountRetries-1 {
			log.Errorf("maximum unmount retries (%d) exceeded for %s, exiting anyway", maxUnmountRetries, mountpoint)
			return fuse.Unmount(mountpoint)
		}

		log.Infof("attempting unmount of %s (attempt %d/%d)", mountpoint, unmountAttempts+1, maxUnmountRetries)
		if err := fuse.Unmount(mountpoint); err == nil {
			log.Info("unmounted successfully")
			return nil
		} else {
			unmountAttempts++
			log.Warnf("unmount failed: %v, waiting for another signal to retry", err)
		}
	}
	return nil
}
