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
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/tinyfs/jgfs/internal/jgfs"
	"github.com/tinyfs/jgfs/internal/logger"
)

func DefineFsckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fsck <device_path>",
		Short:        "Check a jgfs image for consistency violations",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunFsck,
	}

	cmd.Flags().String("csv", "", "Write the violation report to this path as CSV")
	return cmd
}

func RunFsck(cmd *cobra.Command, args []string) error {
	devicePath := args[0]
	csvPath, _ := cmd.Flags().GetString("csv")

	log := logger.New(os.Stderr, logger.WarnLevel)

	sess, err := jgfs.Open(devicePath, log)
	if err != nil {
		return err
	}
	defer sess.Done()

	result := sess.Check()
	violations := make([]jgfs.Violation, 0, len(result.Errors))
	for _, e := range result.Errors {
		if v, ok := e.(jgfs.Violation); ok {
			violations = append(violations, v)
		}
	}

	if len(violations) == 0 {
		fmt.Println("fsck: no violations found")
		return nil
	}

	fmt.Printf("fsck: %d violation(s) found\n", len(violations))
	for _, v := range violations {
		fmt.Printf("  %s\n", v.Error())
	}

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := gocsv.MarshalFile(&violations, f); err != nil {
			return err
		}
		fmt.Printf("fsck: report written to %s\n", csvPath)
	}

	return nil
}
