package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"planner/pkg/logger"
)

const cleanupPrompt = "You are cleaning up messy OCR output from a handwritten to-do list. " +
	"Fix only obvious spelling mistakes and spacing while keeping each task's meaning intact. " +
	"Never invent new tasks or replace words with unrelated ones. " +
	"Return the cleaned list as a numbered list. " +
	"Example:\nMessy Input: '- y deveat evil'\nClean Output: '1. workout'\n\n" +
	"OCR Input:\n%s\n\nClean list:"

// Cleaner repairs OCR noise in task lines. It never fails: without a
// completer, on error, or on an empty answer it returns its input.
type Cleaner struct {
	llm Completer
	log zerolog.Logger
}

// NewCleaner accepts a nil completer, which disables cleaning.
func NewCleaner(c Completer) *Cleaner {
	return &Cleaner{llm: c, log: logger.WithComponent("llm-cleanup")}
}

func (c *Cleaner) Clean(ctx context.Context, lines []string) []string {
	original := append([]string(nil), lines...)
	if c == nil || c.llm == nil || isNilClient(c.llm) || len(lines) == 0 {
		return original
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	answer, err := c.llm.Complete(ctx, "cleanup", fmt.Sprintf(cleanupPrompt, b.String()))
	if err != nil {
		c.log.Warn().Err(err).Msg("LLM cleanup failed")
		return original
	}
	cleaned := ParseNumberedList(answer)
	if len(cleaned) == 0 {
		c.log.Warn().Msg("LLM cleanup returned no lines")
		return original
	}
	c.log.Debug().Int("in", len(lines)).Int("out", len(cleaned)).Msg("lines cleaned")
	return cleaned
}

// ParseNumberedList reads "1. foo" style answers. Lines are trimmed of spaces
// and hyphens; a "N. " marker within the first four characters is dropped.
func ParseNumberedList(answer string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(answer, "\r\n", "\n"), "\n") {
		s := strings.Trim(line, " -")
		if s == "" {
			continue
		}
		head := []rune(s)
		if len(head) > 4 {
			head = head[:4]
		}
		if strings.Contains(string(head), ". ") {
			_, rest, _ := strings.Cut(s, ". ")
			s = strings.TrimSpace(rest)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isNilClient(c Completer) bool {
	cl, ok := c.(*Client)
	return ok && cl == nil
}
