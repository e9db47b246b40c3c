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
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"inferdf.dev/go/module"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump module.irdf",
		Short: "print the facts of a module, graph by graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r, err := module.NewReader(f)
			if err != nil {
				return err
			}
			return dumpModule(cmd, r)
		},
	}
}

func dumpModule(cmd *cobra.Command, r *module.Reader) error {
	names, err := resourceNames(r)
	if err != nil {
		return err
	}
	name := func(id uint32) string {
		if n, ok := names[id]; ok {
			return n
		}
		return "_:r" + strconv.FormatUint(uint64(id), 10)
	}

	printGraph := func(label string, gd module.GraphDescription) error {
		facts := r.Facts(gd)
		fmt.Fprintf(cmd.OutOrStdout(), "# %s (%d facts)\n", label, facts.Len())
		for i := 0; i < facts.Len(); i++ {
			f, err := facts.At(i)
			if err != nil {
				return err
			}
			sign := "+"
			if f.Sign == module.SignNegative {
				sign = "-"
			}
			cause := ""
			switch f.CauseKind {
			case module.CauseStated:
				cause = fmt.Sprintf("stated:%d", f.CauseValue)
			case module.CauseInferred:
				cause = fmt.Sprintf("inferred:%d", f.CauseValue)
			case module.CauseMerged:
				cause = fmt.Sprintf("merged:%d", f.CauseValue)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s  [%s]\n",
				sign, name(f.S), name(f.P), name(f.O), cause)
		}
		return nil
	}

	if err := printGraph("default graph", r.DefaultGraph()); err != nil {
		return err
	}
	named := r.NamedGraphs()
	for i := 0; i < named.Len(); i++ {
		ng, err := named.At(i)
		if err != nil {
			return err
		}
		if err := printGraph("graph "+name(ng.ID), ng.Graph); err != nil {
			return err
		}
	}
	return nil
}

// resourceNames maps each resource to its smallest IRI or, for a
// resource with no IRI, to the first of its literals in table order.
func resourceNames(r *module.Reader) (map[uint32]string, error) {
	names := map[uint32]string{}
	iris := r.IRIs()
	for i := 0; i < iris.Len(); i++ {
		rec, err := iris.At(i)
		if err != nil {
			return nil, err
		}
		text, err := r.HeapString(rec.IRI)
		if err != nil {
			return nil, err
		}
		text = "<" + text + ">"
		if have, ok := names[rec.Interpretation]; !ok || text < have {
			names[rec.Interpretation] = text
		}
	}
	lits := r.Literals()
	for i := 0; i < lits.Len(); i++ {
		rec, err := lits.At(i)
		if err != nil {
			return nil, err
		}
		// Literal names only stand in for resources with no IRI.
		res, err := literalResource(r, i)
		if err != nil {
			return nil, err
		}
		if _, ok := names[res]; ok {
			continue
		}
		value, err := r.HeapString(rec.Value)
		if err != nil {
			return nil, err
		}
		names[res] = strconv.Quote(value)
	}
	return names, nil
}

// literalResource finds the resource whose literal set contains id i.
func literalResource(r *module.Reader, i int) (uint32, error) {
	resources := r.Resources()
	for j := 0; j < resources.Len(); j++ {
		res, err := resources.At(j)
		if err != nil {
			return 0, err
		}
		ids, err := r.HeapU32s(res.Literals)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			if int(id) == i {
				return res.ID, nil
			}
		}
	}
	return 0, &module.HeapCorruption{Msg: fmt.Sprintf("literal %d belongs to no resource", i)}
}
