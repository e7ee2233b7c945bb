// Package runtimec carries the C11 object runtime contract: a bundled,
// C-callable implementation of reference-counted object semantics that
// the rest of this module only ever *declares* against (through C7, the
// runtime ABI emitter) and never compiles or links itself. The object
// file linker is out of scope (§1); this package's job is to ship the
// runtime's source text so an external C toolchain can build and link it
// against the LLVM IR this compiler produces, not to invoke that
// toolchain.
package runtimec

import _ "embed"

// Source is the embedded C source of the object runtime (C11):
// reference counting, list/dict storage, arithmetic and comparison
// dispatch, conversions, invocation, and the type-check/error helpers
// named in §6's runtime ABI table, plus the instance_alloc/
// instance_get_field/instance_set_field trio added for user classes
// (§4.12). Every symbol here corresponds to exactly one declaration
// produced by rtabi.Emitter.
//
//go:embed runtime.c
var Source string

// Symbols lists every C-callable function name Source defines, in the
// same grouping as §6's ABI table. The driver reports its length in
// verbose output; nothing in this module checks it against the
// declarations rtabi.Emitter makes.
var Symbols = []string{
	"create_int", "create_double", "create_bool", "create_string",
	"create_list", "create_dict", "get_none", "create_function",

	"incref", "decref", "object_copy",

	"list_get_item", "list_set_item", "list_append", "list_len", "string_get_item",

	"dict_get_item", "dict_set_item", "dict_keys", "dict_len",

	"object_add", "object_subtract", "object_multiply", "object_divide",
	"object_modulo", "object_negate", "object_not", "object_compare",

	"convert_int_to_double", "convert_double_to_int", "convert_to_bool",
	"convert_to_string",

	"call_function", "call_function_noargs", "object_to_exit_code",

	"check_type", "ensure_type", "runtime_error", "print_object",
	"print_int", "print_double", "print_bool", "print_string",

	"instance_alloc", "instance_get_field", "instance_set_field",
}
