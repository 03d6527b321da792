package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/learnhub-academy/learnhub/internal/rbac"
)

// RBACOptions defines flags for the rbac command.
type RBACOptions struct {
	Role       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

type roleEntry struct {
	Role        rbac.Role         `json:"role"`
	Permissions []rbac.Permission `json:"permissions"`
}

// RBACCommand validates the permission table and prints it. It returns the
// process exit code.
func RBACCommand(opts RBACOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if err := rbac.ValidateTable(); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "rbac: invalid table: %v\n", err)
		return 2
	}

	roles := rbac.Roles()
	if opts.Role != "" {
		role, ok := rbac.ParseRole(opts.Role)
		if !ok {
			_, _ = fmt.Fprintf(opts.Stderr, "rbac: unknown role %q\n", opts.Role)
			return 1
		}
		roles = []rbac.Role{role}
	}
	entries := make([]roleEntry, 0, len(roles))
	for _, role := range roles {
		entries = append(entries, roleEntry{Role: role, Permissions: rbac.Permissions(role).Sorted()})
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(entries); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "rbac: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ROLE\tCOUNT\tPERMISSIONS")
	for _, e := range entries {
		names := make([]string, len(e.Permissions))
		for i, p := range e.Permissions {
			names[i] = string(p)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Role, len(names), strings.Join(names, ","))
	}
	_ = tw.Flush()
	return 0
}
