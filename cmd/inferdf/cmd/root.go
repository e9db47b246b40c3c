// Copyright 2025 The InfeRDF Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the inferdf command tree.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/inference"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/module"
	"inferdf.dev/go/rdf"
	"inferdf.dev/go/rule"
)

// Exit codes of the inferdf command.
const (
	exitOK       = 0
	exitParse    = 1
	exitConflict = 2
	exitBudget   = 3
	exitIO       = 4
	exitVersion  = 5
)

var logLevel string

// New returns the root command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:           "inferdf",
		Short:         "inferdf builds and inspects paged interpretation modules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "off",
		"engine log level (off, error, warn, info, debug, trace)")
	root.AddCommand(newBuildCmd())
	root.AddCommand(newDumpCmd())
	return root
}

// Main runs the command and maps its error to an exit code.
func Main() int {
	if err := New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "inferdf:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	var (
		nqErr      *rdf.SyntaxError
		ruleErr    *rule.Error
		compileErr *inference.CompileError

		signErr     *dataset.ConflictSign
		lockErr     *inference.ConflictLocked
		neErr       *interp.ConflictNonEqual
		mergedErr   *interp.ConflictAlreadyMerged
		indexErr    *dataset.IndexInvalidated
		budgetErr   *inference.BudgetError
		formatErr   *module.FormatMismatch
		pageErr     *module.UnalignedPage
		boundsErr   *module.EntryOutOfBounds
		heapErr     *module.HeapCorruption
		pathErr     *fs.PathError
	)
	switch {
	case errors.As(err, &nqErr), errors.As(err, &ruleErr), errors.As(err, &compileErr):
		return exitParse
	case errors.As(err, &signErr), errors.As(err, &lockErr),
		errors.As(err, &neErr), errors.As(err, &mergedErr), errors.As(err, &indexErr):
		return exitConflict
	case errors.As(err, &budgetErr):
		return exitBudget
	case errors.As(err, &formatErr):
		return exitVersion
	case errors.As(err, &pageErr), errors.As(err, &boundsErr), errors.As(err, &heapErr):
		return exitIO
	case errors.As(err, &pathErr):
		return exitIO
	}
	return exitIO
}

func newLogger() hclog.Logger {
	if logLevel == "" || logLevel == "off" {
		return hclog.NewNullLogger()
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "inferdf",
		Level:  hclog.LevelFromString(logLevel),
		Output: os.Stderr,
	})
}
