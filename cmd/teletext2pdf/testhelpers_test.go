package main

import (
	"bytes"
	"sort"
	"time"
)

// testEnv returns an Environment backed by vars instead of the process
// environment, so tests can run in parallel.
func testEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, time.October, 15, 7, 30, 5, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(name string) string { return vars[name] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			sort.Strings(out)
			return out
		},
	}
	return env, &stdout, &stderr
}

// credentials returns a complete set of mail variables.
func credentials() map[string]string {
	return map[string]string{
		envSenderEmail:    "sender@seznam.cz",
		envSenderPassword: "secret",
		envRecipientEmail: "reader@example.com",
	}
}
