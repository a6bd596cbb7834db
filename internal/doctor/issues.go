package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// issue is a single problem found by a check.
type issue struct {
	Path     string
	Problem  string
	Severity Severity
	FixHint  string

	// fix repairs the issue; nil when it cannot be fixed automatically.
	fix         func() error
	fixDescribe string
}

// issueSet collects a check's issues and implements Fixer over them.
type issueSet struct {
	issues []issue
}

func (s *issueSet) reset() {
	s.issues = nil
}

func (s *issueSet) add(i issue) {
	s.issues = append(s.issues, i)
}

// CanFix reports whether any issue has a fix.
func (s *issueSet) CanFix() bool {
	for _, i := range s.issues {
		if i.fix != nil {
			return true
		}
	}
	return false
}

// Fix applies every available fix.
func (s *issueSet) Fix(_ context.Context) []FixResult {
	var results []FixResult
	for _, i := range s.issues {
		if i.fix == nil {
			continue
		}
		r := FixResult{Path: i.Path}
		if err := i.fix(); err != nil {
			r.Description = fmt.Sprintf("%s failed: %v", i.fixDescribe, err)
			r.Error = err
		} else {
			r.Fixed = true
			r.Description = i.fixDescribe
		}
		results = append(results, r)
	}
	return results
}

// result builds the CheckResult for the collected issues. pass is the
// message used when there are none.
func (s *issueSet) result(pass string, details map[string]any) *CheckResult {
	if details == nil {
		details = map[string]any{}
	}
	if len(s.issues) == 0 {
		return &CheckResult{Status: SeverityPass, Message: pass, Details: details}
	}

	severities := make([]Severity, 0, len(s.issues))
	list := make([]map[string]any, 0, len(s.issues))
	var hints []string
	fixable := false
	for _, i := range s.issues {
		severities = append(severities, i.Severity)
		m := map[string]any{
			"problem":  i.Problem,
			"severity": i.Severity.String(),
		}
		if i.Path != "" {
			m["path"] = i.Path
		}
		list = append(list, m)
		if i.FixHint != "" {
			hints = append(hints, i.FixHint)
		}
		if i.fix != nil {
			fixable = true
		}
	}
	details["issues"] = list

	message := s.issues[0].Problem
	if len(s.issues) > 1 {
		message = fmt.Sprintf("found %d issues: %s", len(s.issues), message)
	}

	return &CheckResult{
		Status:  worst(severities...),
		Message: message,
		Details: details,
		Fixable: fixable,
		FixHint: strings.Join(hints, "; "),
	}
}

// isDirectoryWritable creates and removes a probe file in path.
func isDirectoryWritable(path string) bool {
	f, err := os.CreateTemp(path, ".gfsave-doctor-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func formatPermissions(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode.Perm())
}
