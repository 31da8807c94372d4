// Package textrules applies a profile's declarative text rewrites and file
// removals to the working set. Nothing in this package is fatal: problems
// surface as *Warning values and log lines.
package textrules

import (
	"context"
	"fmt"
	"slices"

	"epubfit/internal/archive"
	"epubfit/internal/profile"
)

// Reporter receives stage log lines and stage-local progress in [0,100].
type Reporter interface {
	Logf(format string, args ...any)
	Progress(percent float64)
}

// Apply runs every text rule of p in declared order, then removes every
// entry listed in p.RemovePaths. The input slice is not modified.
func Apply(ctx context.Context, entries []archive.Entry, p profile.Profile, rep Reporter) ([]archive.Entry, []*Warning, error) {
	rep.Progress(0)

	out := slices.Clone(entries)
	var warnings []*Warning
	warn := func(w *Warning) {
		warnings = append(warnings, w)
		rep.Logf("Warning: %s", w.Error())
	}

	total := len(p.TextRules) + len(p.RemovePaths)
	done := 0
	step := func() {
		done++
		if total > 0 {
			rep.Progress(float64(done) / float64(total) * 100)
		}
	}

	if total == 0 {
		rep.Logf("No text rules or removals in profile %q.", p.ID)
		rep.Progress(100)
		return out, nil, nil
	}

	for _, rule := range p.TextRules {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		idx := slices.IndexFunc(out, func(e archive.Entry) bool { return e.Path == rule.TargetPath })
		if idx < 0 {
			warn(&Warning{Path: rule.TargetPath, Msg: "file to modify not found"})
			step()
			continue
		}

		rep.Logf("Modifying %s...", rule.TargetPath)
		updated, w, changed := applyRule(out[idx].Content, rule)
		if w != nil {
			w.Path = rule.TargetPath
			warn(w)
		}
		if changed {
			out[idx] = out[idx].WithContent(updated)
		} else if w == nil {
			rep.Logf(" -> pattern not found, %s unchanged", rule.TargetPath)
		}
		step()
	}

	for _, target := range p.RemovePaths {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		before := len(out)
		out = slices.DeleteFunc(out, func(e archive.Entry) bool { return e.Path == target })
		if len(out) < before {
			rep.Logf("Removing file: %s", target)
		} else {
			rep.Logf("File to remove not present: %s", target)
		}
		step()
	}

	rep.Logf("Template application complete.")
	rep.Progress(100)
	return out, warnings, nil
}

// applyRule rewrites the first match of rule's pattern. It reports whether
// the content changed; a non-nil warning explains why a rewrite was skipped
// or degraded.
func applyRule(content []byte, rule profile.TextRule) ([]byte, *Warning, bool) {
	re := rule.Regexp()
	if re == nil {
		return content, &Warning{Msg: fmt.Sprintf("pattern %q was never compiled", rule.Pattern)}, false
	}

	doc, err := decodeText(content)
	if err != nil {
		return content, &Warning{Msg: err.Error()}, false
	}
	var w *Warning
	if doc.unsupported != "" {
		w = &Warning{Msg: fmt.Sprintf("unsupported encoding %q, decoding as utf-8", doc.unsupported)}
	}

	text := doc.text
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return content, w, false
	}

	replacement := re.ExpandString(nil, rule.Replacement, text, loc)
	text = text[:loc[0]] + string(replacement) + text[loc[1]:]
	if doc.label != "utf-8" {
		text = declareUTF8(text)
	}
	return []byte(text), w, true
}
