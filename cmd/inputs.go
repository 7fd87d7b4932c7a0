package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/gemini-sub-translator/internal/service"
	"github.com/MimeLyc/gemini-sub-translator/pkg/file"
)

const subtitleExt = ".srt"

// resolveInputs expands globs and directories into a de-duplicated list of
// SRT files. Files found inside a directory that already carry the
// "_<language>" suffix are earlier outputs and are skipped.
func resolveInputs(args []string, targetLanguage string) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string
	add := func(path string) {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			inputs = append(inputs, path)
		}
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[") {
			globbed, err := filepath.Glob(arg)
			if err != nil {
				return nil, service.WrapError(err, service.ErrInput, "invalid input pattern").WithContext("pattern", arg)
			}
			if len(globbed) == 0 {
				return nil, service.NewError(service.ErrInput, fmt.Sprintf("no files found matching pattern: %s", arg))
			}
			matches = globbed
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, service.WrapError(err, service.ErrInput, "cannot read input").WithContext("path", match)
			}
			if !info.IsDir() {
				add(match)
				continue
			}

			found, err := file.FindByExt(match, subtitleExt)
			if err != nil {
				return nil, service.WrapError(err, service.ErrInput, "cannot scan directory").WithContext("path", match)
			}
			count := 0
			for _, path := range found {
				if isTranslatedOutput(path, targetLanguage) {
					continue
				}
				add(path)
				count++
			}
			if count == 0 {
				return nil, service.NewError(service.ErrInput, fmt.Sprintf("no %s files found in %s", subtitleExt, match))
			}
		}
	}

	if len(inputs) == 0 {
		return nil, service.NewError(service.ErrInput, "no input files given")
	}
	return inputs, nil
}

func isTranslatedOutput(path, targetLanguage string) bool {
	if targetLanguage == "" {
		return false
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.HasSuffix(strings.ToLower(stem), "_"+strings.ToLower(targetLanguage))
}
