package main

import (
	"context"
	"errors"

	"github.com/daviddao/tracker/pkg/mcp"
)

func (a *app) cmdServe(ctx context.Context, args []string) int {
	fs := a.newFlagSet("serve")
	addServeFlags(fs)
	cfg, code, done := a.parse(fs, args)
	if done {
		return code
	}
	if fs.NArg() > 0 {
		return a.errorf("serve: unexpected argument %q", fs.Arg(0))
	}

	st, logger, err := a.open(cfg)
	if err != nil {
		return a.errorf("serve: %v", err)
	}
	defer st.Close()

	srv := mcp.NewServer(st, mcp.WithLogger(logger), mcp.WithVersion(version))
	switch cfg.Transport {
	case transportHTTP:
		err = srv.ListenAndServe(ctx, cfg.Addr, cfg.Path)
	default:
		err = srv.Run(ctx, a.stdin, a.stdout)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return a.errorf("serve: %v", err)
	}
	return 0
}
