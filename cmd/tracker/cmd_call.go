package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/tailscale/hujson"

	"github.com/daviddao/tracker/pkg/mcp"
)

// cmdCall runs one tool against a freshly seeded store. Arguments are a
// JSON object given inline or, with "-", on stdin; comments and trailing
// commas are allowed.
func (a *app) cmdCall(args []string) int {
	fs := a.newFlagSet("call")
	cfg, code, done := a.parse(fs, args)
	if done {
		return code
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return a.errorf("usage: tracker call <tool> [json-args|-]")
	}
	name := fs.Arg(0)

	var raw []byte
	switch fs.Arg(1) {
	case "":
	case "-":
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return a.errorf("call: read stdin: %v", err)
		}
		raw = data
	default:
		raw = []byte(fs.Arg(1))
	}
	if len(raw) > 0 {
		standardized, err := hujson.Standardize(raw)
		if err != nil {
			return a.errorf("call: invalid arguments: %v", err)
		}
		raw = standardized
	}

	st, logger, err := a.open(cfg)
	if err != nil {
		return a.errorf("call: %v", err)
	}
	defer st.Close()

	srv := mcp.NewServer(st, mcp.WithLogger(logger), mcp.WithVersion(version))
	value, err := srv.CallTool(name, json.RawMessage(raw))
	if err != nil {
		if errors.Is(err, mcp.ErrUnknownTool) {
			return a.errorf("call: %v (run 'tracker tools' for the catalog)", err)
		}
		return a.errorf("call %s: %v", name, err)
	}
	a.printJSON(value)
	return 0
}
