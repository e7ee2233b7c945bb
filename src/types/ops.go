package types

// Package-level operation tables (C2, §4.2). Binary/unary/index operations
// are keyed by the *base* type ID (types.BaseTypeID) of each operand: the
// table answers "can int op double", not "can list<int> op list<string>"
// — composite element types are the inferencer's job (C3), not the
// operation registry's. CustomEmitter, when non-empty, names a codegen-side
// handler (e.g. comparisons route through a single object_compare call
// keyed by relational op code, not a per-op runtime function name) rather
// than embedding a function value in a type-system-only package.

// BinaryKey identifies one binary-operator/operand-base-type-pair entry.
type BinaryKey struct {
	Op    string
	Left  int
	Right int
}

// UnaryKey identifies one unary-operator/operand-base-type entry.
type UnaryKey struct {
	Op      string
	Operand int
}

// IndexKey identifies one container-base/index-base entry.
type IndexKey struct {
	Container int
	Index     int
}

type convKey struct {
	From int
	To   int
}

// BinaryDesc is what a binary-operation lookup returns.
type BinaryDesc struct {
	ResultID      int
	RuntimeFn     string
	NeedsWrap     bool
	CustomEmitter string
}

// UnaryDesc is what a unary-operation lookup returns.
type UnaryDesc struct {
	ResultID      int
	RuntimeFn     string
	NeedsWrap     bool
	CustomEmitter string
}

// IndexDesc is what an index-operation lookup returns.
type IndexDesc struct {
	ResultID  int
	RuntimeFn string
	NeedsWrap bool
}

// ConversionDesc is what a from->to conversion lookup returns.
type ConversionDesc struct {
	RuntimeFn string
	Cost      int
}

// OpRegistry holds C2's four tables plus the compatibility set and
// promotion table. Like Registry (C1), it is an explicit value threaded
// through compilation rather than a process-global singleton.
type OpRegistry struct {
	binary      map[BinaryKey]BinaryDesc
	unary       map[UnaryKey]UnaryDesc
	index       map[IndexKey]IndexDesc
	conversions map[convKey]ConversionDesc
	promotion   map[promKey]int
	compatible  map[[2]int]bool

	reg *Registry
}

type promKey struct {
	Left, Right int
	Op          string
}

// conversionSearchOrder is the ordered candidate list used by both
// FindOperablePath's step (c) and FindBestConversion's one-hop search.
var conversionSearchOrder = []int{IDDouble, IDInt, IDString, IDBool}

// NewOpRegistry builds an OpRegistry seeded with the built-in operation
// set from §4.2 against the primitives already interned in reg.
func NewOpRegistry(reg *Registry) *OpRegistry {
	o := &OpRegistry{
		binary:      make(map[BinaryKey]BinaryDesc, 32),
		unary:       make(map[UnaryKey]UnaryDesc, 8),
		index:       make(map[IndexKey]IndexDesc, 8),
		conversions: make(map[convKey]ConversionDesc, 16),
		promotion:   make(map[promKey]int, 16),
		compatible:  make(map[[2]int]bool, 32),
		reg:         reg,
	}
	o.seed()
	return o
}

func (o *OpRegistry) addBinary(op string, l, r int, desc BinaryDesc) {
	o.binary[BinaryKey{op, l, r}] = desc
	o.compatible[[2]int{l, r}] = true
	o.promotion[promKey{l, r, op}] = desc.ResultID
}

func (o *OpRegistry) seed() {
	arith := []string{"+", "-", "*"}
	arithFn := map[string]string{"+": "object_add", "-": "object_subtract", "*": "object_multiply"}

	// int op int -> int, for + - *.
	for _, op := range arith {
		o.addBinary(op, IDInt, IDInt, BinaryDesc{ResultID: IDInt, RuntimeFn: arithFn[op]})
	}
	// int / int -> double: division always promotes (§4.2).
	o.addBinary("/", IDInt, IDInt, BinaryDesc{ResultID: IDDouble, RuntimeFn: "object_divide"})

	// {int,double} x {int,double} -> double, for + - * /, except the
	// pure-int cases above which stay int for + - *.
	numFn := map[string]string{"+": "object_add", "-": "object_subtract", "*": "object_multiply", "/": "object_divide"}
	mixedPairs := [][2]int{{IDInt, IDDouble}, {IDDouble, IDInt}, {IDDouble, IDDouble}}
	for op, fn := range numFn {
		for _, p := range mixedPairs {
			o.addBinary(op, p[0], p[1], BinaryDesc{ResultID: IDDouble, RuntimeFn: fn})
		}
	}

	o.addBinary("%", IDInt, IDInt, BinaryDesc{ResultID: IDInt, RuntimeFn: "object_modulo"})

	// string + string -> string.
	o.addBinary("+", IDString, IDString, BinaryDesc{ResultID: IDString, RuntimeFn: "object_add"})
	// string * int -> string (repeat).
	o.addBinary("*", IDString, IDInt, BinaryDesc{ResultID: IDString, RuntimeFn: "object_multiply"})

	// list + list -> list, list * int -> list (repeat). Keyed on the base
	// list ID; the concrete element type is carried by the inferencer,
	// not this table.
	o.addBinary("+", IDListBase, IDListBase, BinaryDesc{ResultID: IDListBase, RuntimeFn: "object_add", NeedsWrap: false})
	o.addBinary("*", IDListBase, IDInt, BinaryDesc{ResultID: IDListBase, RuntimeFn: "object_multiply"})

	// Unary.
	o.unary[UnaryKey{"-", IDInt}] = UnaryDesc{ResultID: IDInt, RuntimeFn: "object_negate"}
	o.unary[UnaryKey{"-", IDDouble}] = UnaryDesc{ResultID: IDDouble, RuntimeFn: "object_negate"}
	o.unary[UnaryKey{"not", IDInt}] = UnaryDesc{ResultID: IDBool, RuntimeFn: "object_not"}
	o.unary[UnaryKey{"not", IDDouble}] = UnaryDesc{ResultID: IDBool, RuntimeFn: "object_not"}
	o.unary[UnaryKey{"not", IDBool}] = UnaryDesc{ResultID: IDBool, RuntimeFn: "object_not"}
	o.unary[UnaryKey{"not", IDString}] = UnaryDesc{ResultID: IDBool, RuntimeFn: "object_not"}

	// Index.
	o.index[IndexKey{IDString, IDInt}] = IndexDesc{ResultID: IDString, RuntimeFn: "string_get_item"}
	o.index[IndexKey{IDListBase, IDInt}] = IndexDesc{ResultID: 0 /* resolved to elem type by caller */, RuntimeFn: "list_get_item"}
	o.index[IndexKey{IDDictBase, IDAny}] = IndexDesc{ResultID: 0 /* resolved to value type by caller */, RuntimeFn: "dict_get_item"}

	// Conversions: int<->double (cost 1 widening, cost 2 narrowing), and
	// {int,double,string} -> bool.
	o.conversions[convKey{IDInt, IDDouble}] = ConversionDesc{RuntimeFn: "convert_int_to_double", Cost: 1}
	o.conversions[convKey{IDDouble, IDInt}] = ConversionDesc{RuntimeFn: "convert_double_to_int", Cost: 2}
	o.conversions[convKey{IDInt, IDBool}] = ConversionDesc{RuntimeFn: "convert_to_bool", Cost: 1}
	o.conversions[convKey{IDDouble, IDBool}] = ConversionDesc{RuntimeFn: "convert_to_bool", Cost: 1}
	o.conversions[convKey{IDString, IDBool}] = ConversionDesc{RuntimeFn: "convert_to_bool", Cost: 1}
}

// Binary looks up the (op, left, right) descriptor by base type ID.
func (o *OpRegistry) Binary(op string, left, right *Type) (BinaryDesc, bool) {
	d, ok := o.binary[BinaryKey{op, BaseTypeID(left.ID), BaseTypeID(right.ID)}]
	return d, ok
}

// Unary looks up the (op, operand) descriptor by base type ID.
func (o *OpRegistry) Unary(op string, operand *Type) (UnaryDesc, bool) {
	d, ok := o.unary[UnaryKey{op, BaseTypeID(operand.ID)}]
	return d, ok
}

// Index looks up the (container, index) descriptor by base type ID.
func (o *OpRegistry) Index(container, index *Type) (IndexDesc, bool) {
	key := IndexKey{BaseTypeID(container.ID), BaseTypeID(index.ID)}
	if d, ok := o.index[key]; ok {
		return d, true
	}
	// dict_get_item is keyed generically on "any" key base above; accept
	// any concrete key base for a dict container.
	if BaseTypeID(container.ID) == IDDictBase {
		if d, ok := o.index[IndexKey{IDDictBase, IDAny}]; ok {
			return d, true
		}
	}
	return IndexDesc{}, false
}

// Conversion looks up a direct from->to conversion descriptor.
func (o *OpRegistry) Conversion(from, to *Type) (ConversionDesc, bool) {
	d, ok := o.conversions[convKey{BaseTypeID(from.ID), BaseTypeID(to.ID)}]
	return d, ok
}

// FindOperablePath returns a (L', R') pair for which a binary descriptor
// exists, obtained by: (a) a direct hit, (b) coercing one side to match
// the other, (c) coercing both to a shared candidate from
// conversionSearchOrder, or (d) L, R unchanged if nothing works (§4.2).
func (o *OpRegistry) FindOperablePath(op string, l, r *Type) (*Type, *Type) {
	if _, ok := o.Binary(op, l, r); ok {
		return l, r
	}
	if _, ok := o.Binary(op, l, l); ok && o.reg.CanConvert(r, l, o) {
		return l, l
	}
	if _, ok := o.Binary(op, r, r); ok && o.reg.CanConvert(l, r, o) {
		return r, r
	}
	for _, candID := range conversionSearchOrder {
		cand, ok := o.reg.TypeByID(candID)
		if !ok {
			continue
		}
		if _, ok := o.Binary(op, cand, cand); !ok {
			continue
		}
		if o.reg.CanConvert(l, cand, o) && o.reg.CanConvert(r, cand, o) {
			return cand, cand
		}
	}
	return l, r
}

// FindBestConversion returns the direct from->to conversion if one
// exists; otherwise it searches one hop through conversionSearchOrder,
// picking the minimum summed cost. ok is false if nothing reaches to.
func (o *OpRegistry) FindBestConversion(from, to *Type) (ConversionDesc, bool) {
	if d, ok := o.Conversion(from, to); ok {
		return d, true
	}
	best := ConversionDesc{}
	bestCost := -1
	for _, midID := range conversionSearchOrder {
		mid, ok := o.reg.TypeByID(midID)
		if !ok || mid.Signature == from.Signature || mid.Signature == to.Signature {
			continue
		}
		d1, ok1 := o.Conversion(from, mid)
		d2, ok2 := o.Conversion(mid, to)
		if !ok1 || !ok2 {
			continue
		}
		cost := d1.Cost + d2.Cost
		if bestCost == -1 || cost < bestCost {
			bestCost = cost
			best = ConversionDesc{RuntimeFn: d1.RuntimeFn, Cost: cost}
		}
	}
	return best, bestCost != -1
}

// Promotion returns the result type ID recorded for (left, right, op) in
// the promotion table, mirroring whatever Binary would have returned —
// exposed separately because §4.2 names it as its own table.
func (o *OpRegistry) Promotion(left, right *Type, op string) (int, bool) {
	id, ok := o.promotion[promKey{BaseTypeID(left.ID), BaseTypeID(right.ID), op}]
	return id, ok
}

// Compatible reports whether the compatibility set has an entry for the
// (left, right) base-type pair, regardless of operator.
func (o *OpRegistry) Compatible(left, right *Type) bool {
	return o.compatible[[2]int{BaseTypeID(left.ID), BaseTypeID(right.ID)}]
}
