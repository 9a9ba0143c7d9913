package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/store"
)

// openLibrary parses the command's flags and opens the configured store.
func openLibrary(name string, args []string, nargs int, usageLine string) (*store.Store, []string, int) {
	fs, g := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, nil, 2
	}
	if fs.NArg() < nargs || fs.NArg() > nargs+1 {
		fmt.Fprintf(os.Stderr, "usage: %s %s\n", appName, usageLine)
		return nil, nil, 2
	}
	m, err := g.setup()
	if err != nil {
		return nil, nil, fail(err)
	}
	st, err := store.Open(m.StorePath())
	if err != nil {
		return nil, nil, fail(err)
	}
	return st, fs.Args(), 0
}

func cmdSave(args []string) int {
	st, rest, code := openLibrary("save", args, 2, "save <name> <program.json>")
	if st == nil {
		return code
	}
	defer st.Close()
	if len(rest) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s save <name> <program.json>\n", appName)
		return 2
	}

	p, err := blocks.LoadDocument(rest[1])
	if err != nil {
		return fail(err)
	}
	changed, err := st.Save(rest[0], p)
	if err != nil {
		return fail(err)
	}
	if changed {
		fmt.Printf("saved %s\n", rest[0])
	} else {
		fmt.Printf("%s unchanged\n", rest[0])
	}
	return 0
}

func cmdLoad(args []string) int {
	st, rest, code := openLibrary("load", args, 1, "load <name> [out.json]")
	if st == nil {
		return code
	}
	defer st.Close()

	p, err := st.Load(rest[0])
	if err != nil {
		return fail(err)
	}
	data, err := blocks.MarshalDocument(p)
	if err != nil {
		return fail(err)
	}
	data = append(data, '\n')
	if len(rest) == 2 {
		if err := os.WriteFile(rest[1], data, 0644); err != nil {
			return fail(err)
		}
		return 0
	}
	os.Stdout.Write(data)
	return 0
}

func cmdList(args []string) int {
	st, _, code := openLibrary("list", args, 0, "list")
	if st == nil {
		return code
	}
	defer st.Close()

	entries, err := st.List()
	if err != nil {
		return fail(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBLOCKS\tUPDATED\tFINGERPRINT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%.12s\n", e.Name, e.Blocks, e.UpdatedAt.Format(time.DateTime), e.Fingerprint)
	}
	w.Flush()
	return 0
}

func cmdDelete(args []string) int {
	st, rest, code := openLibrary("delete", args, 1, "delete <name>")
	if st == nil {
		return code
	}
	defer st.Close()
	if len(rest) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s delete <name>\n", appName)
		return 2
	}
	if err := st.Delete(rest[0]); err != nil {
		return fail(err)
	}
	return 0
}
