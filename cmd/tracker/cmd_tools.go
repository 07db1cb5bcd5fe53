package main

import (
	"fmt"
	"strings"

	"github.com/daviddao/tracker/pkg/mcp"
	"github.com/daviddao/tracker/pkg/store"
)

func (a *app) cmdTools(args []string) int {
	fs := a.newFlagSet("tools")
	jsonOut := fs.Bool("json", false, "output as JSON")
	if _, code, done := a.parse(fs, args); done {
		return code
	}

	// The catalog does not depend on store contents.
	srv := mcp.NewServer(store.NewMemory(store.Seed{}))
	tools := srv.Tools()
	if *jsonOut {
		a.printJSON(tools)
		return 0
	}
	for _, t := range tools {
		mode := "write"
		if t.ReadOnly {
			mode = "read"
		}
		fmt.Fprintf(a.stdout, "%-22s %-5s (%s)\n", t.Name, mode, strings.Join(t.Arguments, ", "))
		fmt.Fprintf(a.stdout, "    %s\n", t.Description)
	}
	return 0
}
