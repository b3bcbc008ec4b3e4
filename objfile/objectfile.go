package objfile

// ObjectFile is one parsed input object. Everything here is read-only from
// the writer's perspective — it is populated once by the upstream
// object-file reader and symbol resolver (out of scope, spec §1) before
// the writer ever runs.
//
// Relocations here carry their resolved target (a Symbol, or a Signature
// for a type-index relocation) directly rather than a raw, file-local
// symbol/type-table index: resolving that index is exactly the job of the
// upstream symbol resolver, so by the time the writer sees a Relocation
// the indirection has already been collapsed.
type ObjectFile struct {
	Name              string
	RegistrationIndex int
	Functions         []*InputFunction
	Globals           []*InputGlobal
	Segments          []*InputSegment
	CustomSections    []*InputSection
	InitFunctions     []InitFunc
	Symbols           []Symbol

	// ABI is this file's embedded ABI descriptor blob, possibly empty.
	ABI string

	// Actions lists this file's declared action entries, each of the
	// form "<action-name>:<handler-symbol-name>" — the handler need not
	// share the action's name.
	Actions []string
	// Notify lists this file's declared notification entries, each of
	// the form "<code-name>::<action-name>:<handler-symbol-name>". A
	// code name of "*" groups handlers that match a notification from
	// any contract whose code name no other declared group claims.
	Notify []string
}

// NewObjectFile creates an object file ready to be populated by the
// reader. regIndex is this file's position in the link's overall
// registration order.
func NewObjectFile(name string, regIndex int) *ObjectFile {
	return &ObjectFile{Name: name, RegistrationIndex: regIndex}
}
