package dispatch

import (
	"bytes"
	"fmt"

	"github.com/partite-ai/snaxld/leb"
	"github.com/partite-ai/snaxld/objfile"
	"github.com/partite-ai/snaxld/wasmenc"
)

// SNAXErrorNoAction and SNAXErrorOnError are the error codes passed to
// snax_assert_code when dispatch falls through every declared action, or
// falls through every "snax"-code notify handler with no declared
// "onerror" handler to catch it.
const (
	SNAXErrorNoAction int64 = 8000000000000000000
	SNAXErrorOnError  int64 = 8000000000000000001
)

// Entry pairs a declared action or notification name with the handler
// function it dispatches to.
type Entry struct {
	Name   string
	Target *objfile.FunctionSymbol
}

// NotifyGroup collects every notify entry declared against one code
// name, e.g. "token" in "token::transfer:on_transfer". Code == "*" is the
// wildcard group, tried only once every named group's code has failed to
// match.
type NotifyGroup struct {
	Code    string
	Entries []Entry
}

// Hooks names the optional (and one mandatory) well-known runtime symbols
// the generated apply function calls into. PreDispatch and PostDispatch
// wrap the whole dispatch decision; CxaFinalize runs destructors after
// it; AssertCode is how dispatch reports an unmatched action or an
// unhandled "snax::onerror" notification, and must be defined — there is
// no sensible dispatch function without it.
type Hooks struct {
	PreDispatch  *objfile.FunctionSymbol
	PostDispatch *objfile.FunctionSymbol
	CxaFinalize  *objfile.FunctionSymbol
	AssertCode   *objfile.FunctionSymbol
}

// BuildApply synthesizes the contract-entry function: `apply(receiver
// i64, code i64, action i64)`. receiver == code means a contract
// dispatching its own action; otherwise it is a notification from
// another contract (code), and handlers are chosen by grouping on that
// code name first, then on the notified action name.
//
// Every handler is called with exactly two arguments, (receiver, code) —
// the action/notification name itself is never passed to its own
// handler, since the handler was already selected by that name. Hooks
// that wrap the whole decision (pre_dispatch, post_dispatch) get all
// three.
func BuildApply(actions []Entry, notify []NotifyGroup, hooks Hooks) (*objfile.InputFunction, error) {
	if hooks.AssertCode == nil {
		return nil, fmt.Errorf("dispatch: snax_assert_code is undefined")
	}

	sig := wasmenc.Signature{
		Params: []wasmenc.ValueType{wasmenc.ValueTypeI64, wasmenc.ValueTypeI64, wasmenc.ValueTypeI64},
	}

	var body bytes.Buffer
	body.WriteByte(0) // no locals

	var relocs []objfile.Relocation

	preOpened := false
	if hooks.PreDispatch != nil {
		emitCall3(&body, &relocs, hooks.PreDispatch)
		body.WriteByte(wasmenc.OpIf)
		body.WriteByte(wasmenc.OpBlockTypeVoid)
		preOpened = true
	}

	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(&body, 0) // receiver
	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(&body, 1) // code
	body.WriteByte(wasmenc.OpI64Eq)
	body.WriteByte(wasmenc.OpIf)
	body.WriteByte(wasmenc.OpBlockTypeVoid)

	if err := actionDispatch(&body, &relocs, actions, hooks.AssertCode, hooks.PostDispatch); err != nil {
		return nil, fmt.Errorf("dispatch: actions: %w", err)
	}

	body.WriteByte(wasmenc.OpElse)

	if err := notifyDispatch(&body, &relocs, notify, hooks.AssertCode, hooks.PostDispatch); err != nil {
		return nil, fmt.Errorf("dispatch: notify: %w", err)
	}

	body.WriteByte(wasmenc.OpEnd) // closes the receiver==code if/else

	if hooks.CxaFinalize != nil {
		body.WriteByte(wasmenc.OpI32Const)
		leb.PutInt32(&body, 0)
		emitCallRaw(&body, &relocs, hooks.CxaFinalize)
	}
	if preOpened {
		body.WriteByte(wasmenc.OpEnd) // closes pre_dispatch's if
	}
	body.WriteByte(wasmenc.OpEnd) // function end

	fn := objfile.NewInputFunction("apply", sig, body.Bytes())
	fn.Relocations = relocs
	return fn, nil
}

// actionDispatch emits the create-if chain over every declared action,
// comparing each against local slot 2 (action). If none match, it
// traps via snax_assert_code unless the caller itself is "snax", in
// which case it defers to post_dispatch if one is declared.
func actionDispatch(body *bytes.Buffer, relocs *[]objfile.Relocation, actions []Entry, assertSym, postSym *objfile.FunctionSymbol) error {
	depth, err := emitNameChain(body, relocs, 2, actions)
	if err != nil {
		return err
	}
	if depth > 0 {
		body.WriteByte(wasmenc.OpElse)
	}

	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(body, 0) // receiver
	packedSnax, err := PackName("snax")
	if err != nil {
		return err
	}
	body.WriteByte(wasmenc.OpI64Const)
	leb.PutInt64(body, int64(packedSnax))
	body.WriteByte(wasmenc.OpI64Ne)
	body.WriteByte(wasmenc.OpIf)
	body.WriteByte(wasmenc.OpBlockTypeVoid)

	body.WriteByte(wasmenc.OpI32Const)
	leb.PutInt32(body, 0)
	body.WriteByte(wasmenc.OpI64Const)
	leb.PutInt64(body, SNAXErrorNoAction)
	emitCallRaw(body, relocs, assertSym)

	if postSym != nil {
		body.WriteByte(wasmenc.OpElse)
		emitCall3(body, relocs, postSym)
	}
	body.WriteByte(wasmenc.OpEnd) // closes "receiver != snax"

	closeChain(body, depth)
	return nil
}

// notifyDispatch emits the two-level routing over declared notify
// groups: an outer chain selecting by code name (local slot 1), each
// selected group then running its own inner chain selecting by action
// name (local slot 2). The "*" code group, if declared, is the
// unconditional fallback once every named group's code has failed to
// match, and is the only group post_dispatch can follow.
func notifyDispatch(body *bytes.Buffer, relocs *[]objfile.Relocation, groups []NotifyGroup, assertSym, postSym *objfile.FunctionSymbol) error {
	var named []NotifyGroup
	var wildcard *NotifyGroup
	for i := range groups {
		if groups[i].Code == "*" {
			w := groups[i]
			wildcard = &w
			continue
		}
		named = append(named, groups[i])
	}

	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(body, 0) // receiver
	packedSnax, err := PackName("snax")
	if err != nil {
		return err
	}
	body.WriteByte(wasmenc.OpI64Const)
	leb.PutInt64(body, int64(packedSnax))
	body.WriteByte(wasmenc.OpI64Ne)
	body.WriteByte(wasmenc.OpIf)
	body.WriteByte(wasmenc.OpBlockTypeVoid)

	if !hasOnErrorHandler(groups) {
		packedOnError, err := PackName("onerror")
		if err != nil {
			return err
		}

		body.WriteByte(wasmenc.OpI64Const)
		leb.PutInt64(body, int64(packedSnax))
		body.WriteByte(wasmenc.OpGetLocal)
		leb.PutUint32(body, 1) // code
		body.WriteByte(wasmenc.OpI64Eq)
		body.WriteByte(wasmenc.OpIf)
		body.WriteByte(wasmenc.OpBlockTypeVoid)

		body.WriteByte(wasmenc.OpI64Const)
		leb.PutInt64(body, int64(packedOnError))
		body.WriteByte(wasmenc.OpGetLocal)
		leb.PutUint32(body, 2) // action
		body.WriteByte(wasmenc.OpI64Eq)
		body.WriteByte(wasmenc.OpIf)
		body.WriteByte(wasmenc.OpBlockTypeVoid)

		body.WriteByte(wasmenc.OpI32Const)
		leb.PutInt32(body, 0)
		body.WriteByte(wasmenc.OpI64Const)
		leb.PutInt64(body, SNAXErrorOnError)
		emitCallRaw(body, relocs, assertSym)

		body.WriteByte(wasmenc.OpEnd) // closes action==onerror
		body.WriteByte(wasmenc.OpEnd) // closes code==snax
	}

	groupDepth := 0
	for i, g := range named {
		if i > 0 {
			body.WriteByte(wasmenc.OpElse)
		}
		packed, err := PackName(g.Code)
		if err != nil {
			return fmt.Errorf("code %q: %w", g.Code, err)
		}
		body.WriteByte(wasmenc.OpI64Const)
		leb.PutInt64(body, int64(packed))
		body.WriteByte(wasmenc.OpGetLocal)
		leb.PutUint32(body, 1) // code
		body.WriteByte(wasmenc.OpI64Eq)
		body.WriteByte(wasmenc.OpIf)
		body.WriteByte(wasmenc.OpBlockTypeVoid)

		handlerDepth, err := emitNameChain(body, relocs, 2, g.Entries)
		if err != nil {
			return err
		}
		closeChain(body, handlerDepth)

		groupDepth++
	}
	if groupDepth > 0 {
		body.WriteByte(wasmenc.OpElse)
	}

	var wildcardEntries []Entry
	if wildcard != nil {
		wildcardEntries = wildcard.Entries
	}
	wildDepth, err := emitNameChain(body, relocs, 2, wildcardEntries)
	if err != nil {
		return err
	}
	if postSym != nil {
		if wildDepth > 0 {
			body.WriteByte(wasmenc.OpElse)
		}
		emitCall3(body, relocs, postSym)
	}
	closeChain(body, wildDepth)

	closeChain(body, groupDepth)

	body.WriteByte(wasmenc.OpEnd) // closes "receiver != snax"
	return nil
}

// hasOnErrorHandler reports whether any notify group named "snax"
// declares a handler for the "onerror" action, which suppresses the
// generated default onerror-trap guard.
func hasOnErrorHandler(groups []NotifyGroup) bool {
	for _, g := range groups {
		if g.Code != "snax" {
			continue
		}
		for _, e := range g.Entries {
			if e.Name == "onerror" {
				return true
			}
		}
	}
	return false
}

// emitNameChain writes a create-if chain comparing local slot against
// each entry's packed name in turn, calling the matching handler with
// (receiver, code) on a match. It leaves the chain open — positioned
// inside the final entry's if-body with no matching end yet — so a
// caller can either inject trailing "no match" content before an else,
// or close it immediately with closeChain for silent fallthrough. It
// returns the number of ifs opened (0 if entries is empty).
func emitNameChain(body *bytes.Buffer, relocs *[]objfile.Relocation, localSlot uint32, entries []Entry) (int, error) {
	depth := 0
	for i, e := range entries {
		if i > 0 {
			body.WriteByte(wasmenc.OpElse)
		}
		packed, err := PackName(e.Name)
		if err != nil {
			return 0, fmt.Errorf("name %q: %w", e.Name, err)
		}
		body.WriteByte(wasmenc.OpI64Const)
		leb.PutInt64(body, int64(packed))
		body.WriteByte(wasmenc.OpGetLocal)
		leb.PutUint32(body, localSlot)
		body.WriteByte(wasmenc.OpI64Eq)
		body.WriteByte(wasmenc.OpIf)
		body.WriteByte(wasmenc.OpBlockTypeVoid)

		emitCall2(body, relocs, e.Target)
		depth++
	}
	return depth, nil
}

// closeChain emits depth ends, closing a chain opened by emitNameChain
// (or the action/group-selection chains that follow the same shape).
func closeChain(body *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		body.WriteByte(wasmenc.OpEnd)
	}
}

// emitCallRaw emits a call to target assuming its arguments are already
// on the stack, recording a relocation for the call's operand since the
// target's final function index isn't known until index assignment.
func emitCallRaw(body *bytes.Buffer, relocs *[]objfile.Relocation, target *objfile.FunctionSymbol) {
	body.WriteByte(wasmenc.OpCall)
	offset := body.Len()
	leb.PutUint32Padded5(body, 0)
	*relocs = append(*relocs, objfile.Relocation{
		Kind:   objfile.RelocFunctionIndexLEB,
		Offset: uint32(offset),
		Symbol: target,
	})
}

// emitCall2 calls target with (receiver, code) — the signature every
// action and notify handler is dispatched with.
func emitCall2(body *bytes.Buffer, relocs *[]objfile.Relocation, target *objfile.FunctionSymbol) {
	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(body, 0)
	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(body, 1)
	emitCallRaw(body, relocs, target)
}

// emitCall3 calls target with (receiver, code, action) — the signature
// pre_dispatch and post_dispatch are called with.
func emitCall3(body *bytes.Buffer, relocs *[]objfile.Relocation, target *objfile.FunctionSymbol) {
	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(body, 0)
	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(body, 1)
	body.WriteByte(wasmenc.OpGetLocal)
	leb.PutUint32(body, 2)
	emitCallRaw(body, relocs, target)
}
