package linker

import (
	"fmt"
	"strings"

	"github.com/partite-ai/snaxld/dispatch"
	"github.com/partite-ai/snaxld/objfile"
)

// createDispatchFunction implements DispatchCodegen (spec §4.11): when no
// object file defines the contract entry point itself, one is
// synthesized from every file's declared action/notify entries, resolved
// against the symbol table in file-registration order. An action entry
// has the form "<action-name>:<handler-symbol-name>"; a notify entry has
// the form "<code-name>::<action-name>:<handler-symbol-name>". Both are
// deduplicated by the exact entry string, so a later file redeclaring
// the very same entry a file already registered is dropped — first-seen
// file-registration order wins (open question (c)).
func (w *Writer) createDispatchFunction() error {
	seenActions := map[string]bool{}
	var actions []dispatch.Entry

	for _, file := range w.symtab.ObjectFiles {
		for _, raw := range file.Actions {
			if seenActions[raw] {
				continue
			}
			seenActions[raw] = true

			name, handler, ok := strings.Cut(raw, ":")
			if !ok {
				return fmt.Errorf("dispatch: malformed action entry %q, want \"<name>:<handler>\"", raw)
			}
			fs, err := w.resolveDispatchHandler(handler)
			if err != nil {
				return err
			}
			actions = append(actions, dispatch.Entry{Name: name, Target: fs})
		}
	}

	seenNotify := map[string]bool{}
	var groupOrder []string
	groups := map[string]*dispatch.NotifyGroup{}

	for _, file := range w.symtab.ObjectFiles {
		for _, raw := range file.Notify {
			if seenNotify[raw] {
				continue
			}
			seenNotify[raw] = true

			code, rest, ok := strings.Cut(raw, "::")
			if !ok {
				return fmt.Errorf("dispatch: malformed notify entry %q, want \"<code>::<name>:<handler>\"", raw)
			}
			name, handler, ok := strings.Cut(rest, ":")
			if !ok {
				return fmt.Errorf("dispatch: malformed notify entry %q, want \"<code>::<name>:<handler>\"", raw)
			}
			fs, err := w.resolveDispatchHandler(handler)
			if err != nil {
				return err
			}

			g, ok := groups[code]
			if !ok {
				g = &dispatch.NotifyGroup{Code: code}
				groups[code] = g
				groupOrder = append(groupOrder, code)
			}
			g.Entries = append(g.Entries, dispatch.Entry{Name: name, Target: fs})
		}
	}

	var notify []dispatch.NotifyGroup
	for _, code := range groupOrder {
		notify = append(notify, *groups[code])
	}

	hooks := dispatch.Hooks{
		PreDispatch:  w.findOptionalDispatchHook("pre_dispatch"),
		PostDispatch: w.findOptionalDispatchHook("post_dispatch"),
		CxaFinalize:  w.findOptionalDispatchHook("__cxa_finalize"),
		AssertCode:   w.findOptionalDispatchHook("snax_assert_code"),
	}

	fn, err := dispatch.BuildApply(actions, notify, hooks)
	if err != nil {
		return err
	}

	w.symtab.SyntheticFunctions = append(w.symtab.SyntheticFunctions, fn)
	if w.symtab.EntryFunc != nil {
		w.symtab.EntryFunc.Chunk = fn
	}
	w.dispatchFunc = fn
	return nil
}

// resolveDispatchHandler looks up a declared action/notify handler name,
// which must resolve to a defined or imported function symbol, and
// marks it live so IndexAssigner keeps it in the output.
func (w *Writer) resolveDispatchHandler(name string) (*objfile.FunctionSymbol, error) {
	sym, ok := w.symtab.Find(name)
	if !ok {
		return nil, fmt.Errorf("dispatch handler %q is undefined", name)
	}
	fs, ok := sym.(*objfile.FunctionSymbol)
	if !ok {
		return nil, fmt.Errorf("dispatch handler %q is not a function", name)
	}
	fs.MarkLive()
	return fs, nil
}

// findOptionalDispatchHook resolves one of the well-known pre/post
// dispatch or finalize hooks. Unlike an action/notify handler, its
// absence is not an error — the generated control flow simply omits the
// call.
func (w *Writer) findOptionalDispatchHook(name string) *objfile.FunctionSymbol {
	sym, ok := w.symtab.Find(name)
	if !ok {
		return nil
	}
	fs, ok := sym.(*objfile.FunctionSymbol)
	if !ok {
		return nil
	}
	fs.MarkLive()
	return fs
}
