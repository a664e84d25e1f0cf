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
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinyfs/jgfs/internal/disk"
	"github.com/tinyfs/jgfs/internal/fuseshim"
	"github.com/tinyfs/jgfs/internal/jgfs"
	"github.com/tinyfs/jgfs/internal/logger"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <device_path>",
		Short: "Mount a jgfs image at a mountpoint via FUSE",
		Long: `The 'mount' command opens a jgfs image and exposes it as a regular
directory tree through a user-space FUSE daemon. It blocks until the
mountpoint receives SIGINT or SIGTERM, at which point it attempts to
unmount cleanly before exiting.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "Absolute path to the directory where the filesystem will be mounted. If not specified, a default will be generated from the device name.")
	cmd.Flags().String("log-level", "INFO", "Log level: DEBUG, INFO, WARN, or ERROR")
	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	devicePath := disk.NormalizeVolumePath(args[0])

	levelFlag, _ := cmd.Flags().GetString("log-level")
	log := logger.New(os.Stderr, logger.ParseLevel(levelFlag))

	sess, err := jgfs.Open(devicePath, log)
	if err != nil {
		return err
	}
	defer sess.Done()

	mountpoint, _ := cmd.Flags().GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = getMountpoint(devicePath)
	}

	return fuseshim.Mount(mountpoint, sess, log)
}

// getMountpoint generates a mountpoint name from a device path by stripping
// the extension, appending "_mnt" when there was none to strip.
func getMountpoint(devicePath string) string {
	baseName := filepath.Base(devicePath)
	ext := filepath.Ext(baseName)
	baseName = strings.TrimSuffix(baseName, ext)
	mountpoint := baseName
	if ext == "" {
		mountpoint += "_mnt"
	}
	return mountpoint
}
