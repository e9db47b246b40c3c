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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inferdf.dev/go/internal/core/classify"
	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/export"
	"inferdf.dev/go/internal/core/inference"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/rdf"
	"inferdf.dev/go/rule"
)

// A manifest is the YAML build configuration accepted by -f.
type manifest struct {
	Inputs   []string `yaml:"inputs"`
	Rules    []string `yaml:"rules"`
	Output   string   `yaml:"output"`
	PageSize uint32   `yaml:"pageSize"`
	MaxSteps int      `yaml:"maxSteps"`
}

func newBuildCmd() *cobra.Command {
	var (
		manifestFile string
		ruleFiles    []string
		output       string
		pageSize     uint32
		maxSteps     int
	)
	cmd := &cobra.Command{
		Use:   "build [flags] [input.nq ...]",
		Short: "saturate N-Quads inputs under a rule set and write a module",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := manifest{
				Inputs:   args,
				Rules:    ruleFiles,
				Output:   output,
				PageSize: pageSize,
				MaxSteps: maxSteps,
			}
			if manifestFile != "" {
				data, err := os.ReadFile(manifestFile)
				if err != nil {
					return err
				}
				if err := yaml.Unmarshal(data, &m); err != nil {
					return err
				}
				m.Inputs = append(m.Inputs, args...)
			}
			if m.Output == "" {
				m.Output = "out.irdf"
			}
			if m.PageSize == 0 {
				m.PageSize = 4096
			}
			return runBuild(cmd, m)
		},
	}
	cmd.Flags().StringVarP(&manifestFile, "manifest", "f", "", "YAML build manifest")
	cmd.Flags().StringArrayVar(&ruleFiles, "rules", nil, "rule files")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output module file")
	cmd.Flags().Uint32Var(&pageSize, "page-size", 0, "module page size in bytes")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "saturation step budget (0 = default)")
	return cmd
}

func runBuild(cmd *cobra.Command, m manifest) error {
	in := interp.New()

	var files []*rule.File
	for _, name := range m.Rules {
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		f, err := rule.Parse(name, data)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	compiled, err := inference.Compile(in, files...)
	if err != nil {
		return err
	}

	e := inference.New(in, dataset.New(), compiled, inference.Config{
		Logger:   newLogger(),
		MaxSteps: m.MaxSteps,
	})
	for _, name := range m.Inputs {
		if err := loadInput(e, name); err != nil {
			return err
		}
	}
	if err := e.Saturate(); err != nil {
		return err
	}

	cl := classify.Classify(in, e.Dataset())
	b, err := export.Export(in, e.Dataset(), cl, m.PageSize)
	if err != nil {
		return err
	}

	out, err := os.Create(m.Output)
	if err != nil {
		return err
	}
	n, err := b.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", m.Output, n)
	return nil
}

// loadInput streams one N-Quads document into the engine; blank node
// labels are scoped to the file.
func loadInput(e *inference.Engine, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	d := rdf.NewDecoder(f)
	var stmts []*rdf.Statement
	for {
		st, err := d.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		stmts = append(stmts, st)
	}
	return e.LoadDocument(stmts)
}
