package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chazu/blockrun/server"
	"github.com/chazu/blockrun/store"
)

func cmdServe(args []string) int {
	fs, g := newFlagSet("serve")
	addr := fs.String("addr", "", "Listen address (default from blockrun.toml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	m, err := g.setup()
	if err != nil {
		return fail(err)
	}
	if *addr == "" {
		*addr = m.Server.Addr
	}

	lib, err := store.Open(m.StorePath())
	if err != nil {
		return fail(err)
	}
	defer lib.Close()

	srv := server.New(server.WithDriverOptions(driverOptions(m)), server.WithLibrary(lib))
	defer srv.Stop()
	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}

func cmdRemote(args []string) int {
	fs, g := newFlagSet("remote")
	addr := fs.String("addr", "", "Server address (default from blockrun.toml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s remote [-addr host:port] load <program.json> | run | stop | status | input [-cancel] [text]\n", appName)
		return 2
	}
	m, err := g.setup()
	if err != nil {
		return fail(err)
	}
	if *addr == "" {
		*addr = m.Server.Addr
	}
	base := *addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	c := server.NewClient(&http.Client{Timeout: 30 * time.Second}, base)
	ctx := context.Background()
	rest := fs.Args()[1:]

	switch fs.Arg(0) {
	case "load":
		if len(rest) != 1 {
			return fail(fmt.Errorf("load needs a program document"))
		}
		data, err := os.ReadFile(rest[0])
		if err != nil {
			return fail(err)
		}
		resp, err := c.Load(ctx, &server.LoadRequest{Document: data})
		if err != nil {
			return fail(err)
		}
		if resp.CompileError != "" {
			return fail(fmt.Errorf("compile error: %s", resp.CompileError))
		}
		fmt.Print(resp.Source)
	case "run":
		resp, err := c.Run(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("started=%v state=%s\n", resp.Started, resp.State)
	case "stop":
		resp, err := c.Stop(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("aborted=%v state=%s\n", resp.Aborted, resp.State)
	case "status":
		resp, err := c.Status(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("state: %s\n", resp.State)
		if resp.SuspendReason != "" {
			fmt.Printf("waiting for: %s\n", resp.SuspendReason)
		}
		if resp.LastError != "" {
			fmt.Printf("error: %s\n", resp.LastError)
		}
		fmt.Println(strings.Join(resp.Output, "\n"))
	case "input":
		cancel := len(rest) > 0 && rest[0] == "-cancel"
		if cancel {
			rest = rest[1:]
		}
		resp, err := c.Input(ctx, &server.InputRequest{Text: strings.Join(rest, " "), Cancel: cancel})
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%d answer(s) queued\n", resp.Pending)
	default:
		return fail(fmt.Errorf("unknown remote command %q", fs.Arg(0)))
	}
	return 0
}
