// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"encoding/json"
	"fmt"
)

// section collects ordered key/value output for one result, rendered
// either as aligned text or as JSON depending on --json.
type section struct {
	Title   string
	entries []entry
}

type entry struct {
	key   string
	value any
	sub   *section
}

func newSection(title string) *section {
	return &section{Title: title}
}

func (s *section) add(key string, value any) {
	s.entries = append(s.entries, entry{key: key, value: value})
}

func (s *section) sub(title string) *section {
	child := newSection(title)
	s.entries = append(s.entries, entry{sub: child})
	return child
}

func (s *section) jsonValue() map[string]any {
	m := make(map[string]any, len(s.entries))
	for _, e := range s.entries {
		if e.sub != nil {
			m[e.sub.Title] = e.sub.jsonValue()
			continue
		}
		m[e.key] = e.value
	}
	return m
}

func (s *section) printText(indent string) {
	if s.Title != "" {
		fmt.Printf("%s%s:\n", indent, s.Title)
		indent += "  "
	}
	width := 0
	for _, e := range s.entries {
		if e.sub == nil && len(e.key) > width {
			width = len(e.key)
		}
	}
	for _, e := range s.entries {
		if e.sub != nil {
			e.sub.printText(indent)
			continue
		}
		fmt.Printf("%s%-*s  %v\n", indent, width, e.key, e.value)
	}
}

// print renders the section to stdout.
func (s *section) print() error {
	if jsonOutput {
		v := any(s.jsonValue())
		if s.Title != "" {
			v = map[string]any{s.Title: v}
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	s.printText("")
	return nil
}

// printResult renders an arbitrary value as JSON when --json is set,
// otherwise with the provided plain printer.
func printResult(v any, plain func()) error {
	if jsonOutput {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	plain()
	return nil
}
