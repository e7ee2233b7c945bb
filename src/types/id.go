package types

// Type-ID schema (spec §6). Stable across one compilation and embedded in
// emitted IR; the runtime recovers the base kind from an ID with a range
// test (BaseTypeID), mirroring original_source/include/TypeIDs.h's
// getBaseTypeId.
const (
	IDNone     = 0
	IDInt      = 1
	IDDouble   = 2
	IDBool     = 3
	IDString   = 4
	IDListBase = 5
	IDDictBase = 6
	IDAny      = 7
	IDFuncBase = 8
	IDClass    = 12
	IDInstBase = 13

	IDListRangeStart = 100
	IDListRangeEnd   = 199
	IDDictRangeStart = 200
	IDDictRangeEnd   = 299
	IDFuncRangeStart = 300
	IDFuncRangeEnd   = 399
	IDPtrRangeStart  = 400
	IDPtrRangeEnd    = 499
	IDInstRangeStart = 500
)

// BaseTypeID maps any type ID, including a specialized list/dict/function/
// instance ID, back to its base kind. The open question in original_source
// (PY_TYPE_OBJECT and PY_TYPE_NONE sharing ID 0) is resolved by treating
// "object" purely as an alias of `any`: it is never registered as its own
// ID, so BaseTypeID never needs to disambiguate it from None.
//
// Pointer IDs (§6, 400-499) are internal compiler bookkeeping for raw
// scalar slots; they never tag a runtime object header and so never reach
// BaseTypeID in practice — the testable property in spec §8 ("base_type_id(x)
// in {0..13}") is scoped to the dynamic object type IDs that can.
func BaseTypeID(id int) int {
	switch {
	case id >= IDInstRangeStart:
		return IDInstBase
	case id >= IDFuncRangeStart && id <= IDFuncRangeEnd:
		return IDFuncBase
	case id >= IDDictRangeStart && id <= IDDictRangeEnd:
		return IDDictBase
	case id >= IDListRangeStart && id <= IDListRangeEnd:
		return IDListBase
	case id == IDClass:
		return IDClass
	default:
		return id
	}
}
